package codec

import (
	"errors"

	"github.com/arloliu/sos/errs"
)

// materialize converts a decoded value into an owned value, recursing into views.
func materialize(v any) (any, error) {
	switch x := v.(type) {
	case MapView:
		return x.Materialize()
	case ListView:
		return x.Materialize()
	default:
		return v, nil
	}
}

func isKeyNotFound(err error) bool {
	return errors.Is(err, errs.ErrKeyNotFound)
}
