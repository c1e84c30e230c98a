package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"

	"github.com/arloliu/sos/alloc"
	"github.com/arloliu/sos/errs"
	"github.com/arloliu/sos/format"
)

func TestEncoder_WireFormat(t *testing.T) {
	enc, err := NewEncoder()
	require.NoError(t, err)
	defer enc.Release()

	b, err := enc.EncodeMap(NewMap().PutInt16("k", 0x0102).PutString("s", "hi"))
	require.NoError(t, err)
	require.Equal(t, []byte{
		byte(format.TypeMap), 11, 0,
		1, 'k', byte(format.TypeShort), 0x02, 0x01,
		1, 's', byte(format.TypeString), 2, 'h', 'i',
	}, b)

	b, err = enc.EncodeList(NewList(int8(-1), 3))
	require.NoError(t, err)
	require.Equal(t, []byte{
		byte(format.TypeList), 11, 0,
		byte(format.TypeByte), 0xff,
		byte(format.TypeLong), 3, 0, 0, 0, 0, 0, 0, 0,
	}, b)
}

func TestEncoder_Errors(t *testing.T) {
	enc, err := NewEncoder()
	require.NoError(t, err)
	defer enc.Release()

	tests := []struct {
		name string
		root any
		want error
	}{
		{"LongString", NewMap().PutString("s", strings.Repeat("x", MaxStringLength+1)), errs.ErrStringTooLong},
		{"LongKey", NewMap().PutInt8(strings.Repeat("k", MaxStringLength+1), 1), errs.ErrStringTooLong},
		{"Bool", NewMap().Put("b", true), errs.ErrUnsupportedType},
		{"Nil", NewList(nil), errs.ErrUnsupportedType},
		{"Uint", NewList(uint32(1)), errs.ErrUnsupportedType},
		{"ScalarRoot", "root", errs.ErrUnsupportedType},
		{"NilMapRoot", (*Map)(nil), errs.ErrUnsupportedType},
		{"NilNestedList", NewMap().PutList("l", nil), errs.ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := enc.Encode(tt.root)
			require.ErrorIs(t, err, tt.want)
		})
	}

	b, err := enc.Encode(NewMap().PutString("s", strings.Repeat("x", MaxStringLength)))
	require.NoError(t, err)
	require.Len(t, b, 3+2+1+1+MaxStringLength)
}

func TestEncoder_MaxObjectSize(t *testing.T) {
	big := NewList()
	for range 200 {
		big.AddString(strings.Repeat("v", 200))
	}

	enc, err := NewEncoder()
	require.NoError(t, err)
	_, err = enc.Encode(big)
	require.ErrorIs(t, err, errs.ErrObjectTooLarge)
	enc.Release()

	a, err := alloc.NewUnique()
	require.NoError(t, err)

	p := storeEncoded(t, a, big, WithMaxObjectSize(MaxObjectSize))
	view, err := NewListView(a, p)
	require.NoError(t, err)
	n, err := view.Count()
	require.NoError(t, err)
	require.Equal(t, 200, n)

	small, err := NewEncoder(WithMaxObjectSize(16))
	require.NoError(t, err)
	defer small.Release()

	_, err = small.Encode(NewMap().PutString("s", strings.Repeat("x", 20)))
	require.ErrorIs(t, err, errs.ErrObjectTooLarge)

	_, err = NewEncoder(WithMaxObjectSize(2))
	require.Error(t, err)
	_, err = NewEncoder(WithMaxObjectSize(MaxObjectSize + 1))
	require.Error(t, err)
	_, err = NewEncoder(WithByteOrder(nil))
	require.Error(t, err)
}

func TestEncoder_ReplacedKey(t *testing.T) {
	m := NewMap().PutInt8("a", 1).PutInt8("b", 2).PutInt32("a", 3)
	require.Equal(t, []string{"a", "b"}, m.Keys())

	a, err := alloc.NewUnique()
	require.NoError(t, err)

	view, err := NewMapView(a, storeEncoded(t, a, m))
	require.NoError(t, err)

	v, err := view.GetInt32("a")
	require.NoError(t, err)
	require.Equal(t, int32(3), v)
}

func TestEncoder_NormalizedDuplicateKeys(t *testing.T) {
	decomposed := "cafe\u0301"
	composed := "caf\u00e9"

	m := NewMap().PutInt8(decomposed, 1).PutInt8(composed, 2)
	require.Equal(t, 2, m.Len())

	nfc, err := NewEncoder(WithKeyNormalization(norm.NFC))
	require.NoError(t, err)
	defer nfc.Release()

	_, err = nfc.Encode(m)
	require.ErrorIs(t, err, errs.ErrDuplicateKey)

	_, err = nfc.Encode(NewList(NewMap().PutInt8("k", 0), m))
	require.ErrorIs(t, err, errs.ErrDuplicateKey)

	// Each map has its own key set.
	b, err := nfc.Encode(NewMap().
		PutMap("a", NewMap().PutInt8(decomposed, 1)).
		PutMap("b", NewMap().PutInt8(composed, 2)))
	require.NoError(t, err)
	require.NotEmpty(t, b)

	a, err := alloc.NewUnique()
	require.NoError(t, err)

	view, err := NewMapView(a, storeEncoded(t, a, m))
	require.NoError(t, err)
	got, err := view.Materialize()
	require.NoError(t, err)
	require.Equal(t, m, got)
}
