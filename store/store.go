// Package store keeps structured objects in a single allocator and hands out
// opaque handles to them.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arloliu/sos/alloc"
	"github.com/arloliu/sos/codec"
	"github.com/arloliu/sos/errs"
	"github.com/arloliu/sos/internal/collision"
	"github.com/arloliu/sos/internal/options"
)

// Handle identifies an object in a Store. Handles are never reused.
type Handle uint64

// Stats describes a store and its allocator.
type Stats struct {
	Objects         int         `json:"objects"`
	Named           int         `json:"named"`
	NameCollisions  int         `json:"name_collisions"`
	EncodedBytes    int         `json:"encoded_bytes"`
	Allocator       alloc.Stats `json:"allocator"`
	AllocatorIntact bool        `json:"allocator_intact"`
}

type object struct {
	ptr  alloc.Pointer
	size int
	name string
}

// Store encodes Map and List builders into allocator blocks and opens them
// again as views.
//
// Every handle maps to the block of its object; the block pointer is never
// derived from the encoded bytes. A Store is not safe for concurrent use.
type Store struct {
	alloc   alloc.Allocator
	enc     *codec.Encoder
	logger  *slog.Logger
	objects map[Handle]object
	names   *collision.Index[Handle]
	next    Handle
	bytes   int
	owned   bool
	closed  bool
}

// New creates a store over a. The encoder uses the byte order of a.
func New(a alloc.Allocator, opts ...Option) (*Store, error) {
	cfg := &config{logger: slog.Default()}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	encOpts := append(cfg.encoderOpts, codec.WithByteOrder(a.Engine()))
	enc, err := codec.NewEncoder(encOpts...)
	if err != nil {
		return nil, err
	}

	return &Store{
		alloc:   a,
		enc:     enc,
		logger:  cfg.logger,
		objects: make(map[Handle]object),
		names:   collision.NewIndex[Handle](),
		next:    1,
		owned:   cfg.ownAlloc,
	}, nil
}

// CreateMap encodes m into a new block.
func (s *Store) CreateMap(m *codec.Map) (Handle, error) {
	return s.create(m)
}

// CreateList encodes l into a new block.
func (s *Store) CreateList(l *codec.List) (Handle, error) {
	return s.create(l)
}

func (s *Store) create(v any) (Handle, error) {
	if s.closed {
		return 0, errs.ErrStoreClosed
	}

	b, err := s.enc.Encode(v)
	if err != nil {
		return 0, err
	}

	p, err := s.alloc.AllocateAndClone(b)
	if err != nil {
		s.logger.LogAttrs(context.Background(), slog.LevelWarn, "object allocation failed",
			slog.Int("size", len(b)),
			slog.Int("objects", len(s.objects)),
			slog.Any("error", err),
		)

		return 0, err
	}

	h := s.next
	s.next++
	s.objects[h] = object{ptr: p, size: len(b)}
	s.bytes += len(b)

	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "object created",
		slog.Uint64("handle", uint64(h)),
		slog.Int("block", int(p)),
		slog.Int("size", len(b)),
	)

	return h, nil
}

func (s *Store) lookup(h Handle) (object, error) {
	if s.closed {
		return object{}, errs.ErrStoreClosed
	}

	obj, ok := s.objects[h]
	if !ok {
		return object{}, fmt.Errorf("%w: %d", errs.ErrUnknownHandle, h)
	}

	return obj, nil
}

// MapView opens the map stored under h.
func (s *Store) MapView(h Handle) (codec.MapView, error) {
	obj, err := s.lookup(h)
	if err != nil {
		return codec.MapView{}, err
	}

	return codec.NewMapView(s.alloc, obj.ptr)
}

// ListView opens the list stored under h.
func (s *Store) ListView(h Handle) (codec.ListView, error) {
	obj, err := s.lookup(h)
	if err != nil {
		return codec.ListView{}, err
	}

	return codec.NewListView(s.alloc, obj.ptr)
}

// Pointer returns the block holding h.
func (s *Store) Pointer(h Handle) (alloc.Pointer, error) {
	obj, err := s.lookup(h)
	if err != nil {
		return alloc.Nil, err
	}

	return obj.ptr, nil
}

// Size returns the encoded size of h.
func (s *Store) Size(h Handle) (int, error) {
	obj, err := s.lookup(h)
	if err != nil {
		return 0, err
	}

	return obj.size, nil
}

// Remove frees the block of h and forgets the handle and any name bound to it.
// Views of h must not be used afterwards.
func (s *Store) Remove(h Handle) error {
	obj, err := s.lookup(h)
	if err != nil {
		return err
	}

	if err := s.alloc.Deallocate(obj.ptr); err != nil {
		return err
	}

	delete(s.objects, h)
	s.bytes -= obj.size
	if obj.name != "" {
		s.names.Delete(obj.name)
	}

	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "object removed",
		slog.Uint64("handle", uint64(h)),
		slog.Int("block", int(obj.ptr)),
	)

	return nil
}

// Len returns the number of live objects.
func (s *Store) Len() int {
	return len(s.objects)
}

// Handles calls fn for every live handle in unspecified order until fn returns false.
func (s *Store) Handles(fn func(Handle) bool) {
	for h := range s.objects {
		if !fn(h) {
			return
		}
	}
}

// Allocator returns the allocator backing the store.
func (s *Store) Allocator() alloc.Allocator {
	return s.alloc
}

// Stats returns object counts and a snapshot of the allocator counters.
func (s *Store) Stats() Stats {
	st := Stats{
		Objects:        len(s.objects),
		Named:          s.names.Len(),
		NameCollisions: s.names.Collisions(),
		EncodedBytes:   s.bytes,
	}
	if !s.closed {
		st.Allocator = s.alloc.Stats()
		st.AllocatorIntact = s.alloc.VerifyIntegrity()
	}

	return st
}

// ImportMsgpack decodes a msgpack map or array and stores it.
func (s *Store) ImportMsgpack(data []byte) (Handle, error) {
	v, err := codec.FromMsgpack(data)
	if err != nil {
		return 0, err
	}

	return s.create(v)
}

// ExportMsgpack encodes the object under h as msgpack.
func (s *Store) ExportMsgpack(h Handle) ([]byte, error) {
	obj, err := s.lookup(h)
	if err != nil {
		return nil, err
	}

	if m, err := codec.NewMapView(s.alloc, obj.ptr); err == nil {
		return codec.ToMsgpack(m)
	}

	l, err := codec.NewListView(s.alloc, obj.ptr)
	if err != nil {
		return nil, err
	}

	return codec.ToMsgpack(l)
}

// Close releases the encoder and, with WithOwnedAllocator, the allocator.
// Objects are not freed individually.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.enc.Release()

	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "store closed",
		slog.Int("objects", len(s.objects)),
		slog.Int("encoded_bytes", s.bytes),
	)
	clear(s.objects)
	s.names.Reset()

	if s.owned {
		return s.alloc.Close()
	}

	return nil
}
