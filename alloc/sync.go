package alloc

import (
	"sync"

	"github.com/arloliu/sos/endian"
)

// Sync serializes every call on an underlying Allocator with a mutex.
//
// Slices returned by Slice still alias the block and are not protected once
// the call returns.
type Sync struct {
	mu sync.Mutex
	a  Allocator
}

var _ Allocator = (*Sync)(nil)

// NewSync wraps a for use from multiple goroutines.
func NewSync(a Allocator) *Sync {
	return &Sync{a: a}
}

// Unwrap returns the wrapped allocator.
func (s *Sync) Unwrap() Allocator {
	return s.a
}

// Engine returns the byte order of the wrapped allocator.
func (s *Sync) Engine() endian.EndianEngine {
	return s.a.Engine()
}

// Allocate calls Allocate on the wrapped allocator under the lock.
func (s *Sync) Allocate(n int) (Pointer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.a.Allocate(n)
}

// AllocateAndClear calls AllocateAndClear on the wrapped allocator under the lock.
func (s *Sync) AllocateAndClear(n int) (Pointer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.a.AllocateAndClear(n)
}

// AllocateAndClone calls AllocateAndClone on the wrapped allocator under the lock.
func (s *Sync) AllocateAndClone(data []byte) (Pointer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.a.AllocateAndClone(data)
}

// Deallocate calls Deallocate on the wrapped allocator under the lock.
func (s *Sync) Deallocate(p Pointer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.a.Deallocate(p)
}

// AllocatedSize calls AllocatedSize on the wrapped allocator under the lock.
func (s *Sync) AllocatedSize(p Pointer) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.a.AllocatedSize(p)
}

// GetInt8 calls GetInt8 on the wrapped allocator under the lock.
func (s *Sync) GetInt8(p Pointer, off int) (int8, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.a.GetInt8(p, off)
}

// GetInt16 calls GetInt16 on the wrapped allocator under the lock.
func (s *Sync) GetInt16(p Pointer, off int) (int16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.a.GetInt16(p, off)
}

// GetInt32 calls GetInt32 on the wrapped allocator under the lock.
func (s *Sync) GetInt32(p Pointer, off int) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.a.GetInt32(p, off)
}

// GetInt64 calls GetInt64 on the wrapped allocator under the lock.
func (s *Sync) GetInt64(p Pointer, off int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.a.GetInt64(p, off)
}

// GetFloat32 calls GetFloat32 on the wrapped allocator under the lock.
func (s *Sync) GetFloat32(p Pointer, off int) (float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.a.GetFloat32(p, off)
}

// GetFloat64 calls GetFloat64 on the wrapped allocator under the lock.
func (s *Sync) GetFloat64(p Pointer, off int) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.a.GetFloat64(p, off)
}

// GetBytes calls GetBytes on the wrapped allocator under the lock.
func (s *Sync) GetBytes(p Pointer, off, n int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.a.GetBytes(p, off, n)
}

// Slice calls Slice on the wrapped allocator under the lock.
func (s *Sync) Slice(p Pointer, off, n int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.a.Slice(p, off, n)
}

// PutInt8 calls PutInt8 on the wrapped allocator under the lock.
func (s *Sync) PutInt8(p Pointer, off int, v int8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.a.PutInt8(p, off, v)
}

// PutInt16 calls PutInt16 on the wrapped allocator under the lock.
func (s *Sync) PutInt16(p Pointer, off int, v int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.a.PutInt16(p, off, v)
}

// PutInt32 calls PutInt32 on the wrapped allocator under the lock.
func (s *Sync) PutInt32(p Pointer, off int, v int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.a.PutInt32(p, off, v)
}

// PutInt64 calls PutInt64 on the wrapped allocator under the lock.
func (s *Sync) PutInt64(p Pointer, off int, v int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.a.PutInt64(p, off, v)
}

// PutFloat32 calls PutFloat32 on the wrapped allocator under the lock.
func (s *Sync) PutFloat32(p Pointer, off int, v float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.a.PutFloat32(p, off, v)
}

// PutFloat64 calls PutFloat64 on the wrapped allocator under the lock.
func (s *Sync) PutFloat64(p Pointer, off int, v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.a.PutFloat64(p, off, v)
}

// PutBytes calls PutBytes on the wrapped allocator under the lock.
func (s *Sync) PutBytes(p Pointer, off int, src []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.a.PutBytes(p, off, src)
}

// Stats calls Stats on the wrapped allocator under the lock.
func (s *Sync) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.a.Stats()
}

// VerifyIntegrity calls VerifyIntegrity on the wrapped allocator under the lock.
func (s *Sync) VerifyIntegrity() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.a.VerifyIntegrity()
}

// Close calls Close on the wrapped allocator under the lock.
func (s *Sync) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.a.Close()
}
