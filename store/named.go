package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arloliu/sos/codec"
	"github.com/arloliu/sos/errs"
)

// Put stores m under name, replacing and freeing any object already bound to it.
func (s *Store) Put(name string, m *codec.Map) (Handle, error) {
	if name == "" {
		return 0, errs.ErrInvalidName
	}

	h, err := s.create(m)
	if err != nil {
		return 0, err
	}

	old, replaced, err := s.names.Put(name, h)
	if err != nil {
		_ = s.Remove(h)
		return 0, err
	}

	obj := s.objects[h]
	obj.name = name
	s.objects[h] = obj

	if replaced {
		prev := s.objects[old]
		prev.name = ""
		s.objects[old] = prev
		if err := s.Remove(old); err != nil {
			return h, fmt.Errorf("free replaced object %q: %w", name, err)
		}
		s.logger.LogAttrs(context.Background(), slog.LevelDebug, "named object replaced",
			slog.String("name", name),
			slog.Uint64("old", uint64(old)),
			slog.Uint64("new", uint64(h)),
		)
	}

	return h, nil
}

// Get opens the map bound to name.
func (s *Store) Get(name string) (codec.MapView, error) {
	h, err := s.Lookup(name)
	if err != nil {
		return codec.MapView{}, err
	}

	return s.MapView(h)
}

// Lookup returns the handle bound to name.
func (s *Store) Lookup(name string) (Handle, error) {
	if s.closed {
		return 0, errs.ErrStoreClosed
	}

	h, ok := s.names.Get(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", errs.ErrNameNotFound, name)
	}

	return h, nil
}

// Delete removes the object bound to name.
func (s *Store) Delete(name string) error {
	h, err := s.Lookup(name)
	if err != nil {
		return err
	}

	return s.Remove(h)
}
