package tensor

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// elementStride is the size of one float32 element in bytes.
const elementStride = 4

// syncState tracks which copy of the data is authoritative.
type syncState int

const (
	hostOnly    syncState = iota // no device buffer
	inSync                       // host and device hold the same values
	deviceNewer                  // a device kernel wrote after the last download
)

// storageSeq orders storages for deadlock-free pair locking.
var storageSeq atomic.Uint64

// Storage owns a contiguous float32 host buffer and, optionally, a device
// buffer of the same length on a ComputeContext. The two are independent
// allocations; promotion copies data, it never aliases.
//
// A Storage supports one in-flight operation at a time. The mutex only keeps
// sync-state transitions consistent for concurrent readers.
type Storage struct {
	mu       sync.Mutex
	seq      uint64
	host     []float32
	ctx      ComputeContext
	buf      Buffer
	state    syncState
	released bool
}

// NewStorage copies values into a newly owned host buffer.
// Nothing is allocated if len(values) disagrees with the shape.
func NewStorage(values []float32, shape Shape) (*Storage, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(values) != shape.NumElements() {
		return nil, &SizeError{Shape: shape.Clone(), Got: len(values)}
	}

	host := make([]float32, len(values))
	copy(host, values)
	return newStorage(host), nil
}

func newStorage(host []float32) *Storage {
	return &Storage{
		seq:  storageSeq.Add(1),
		host: host,
	}
}

// Len returns the element count.
func (s *Storage) Len() int {
	return len(s.host)
}

// Stride returns the element size in bytes.
func (s *Storage) Stride() int {
	return elementStride
}

// Residency reports whether a device mirror exists.
func (s *Storage) Residency() Residency {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buf != nil {
		return Mirrored
	}
	return HostOnly
}

// Context returns the ComputeContext holding the device mirror, or nil.
func (s *Storage) Context() ComputeContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// DeviceBuffer returns the device mirror, or nil for host-only storage.
func (s *Storage) DeviceBuffer() Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf
}

// PromoteToDevice allocates a device buffer on ctx and uploads the host data.
//
// Calling it again re-uploads. If the device copy is newer it is downloaded
// first, so promotion never discards kernel results. Promoting to a different
// context moves the mirror: the old buffer is released once the new one holds
// the data. On failure the storage keeps its previous residency.
func (s *Storage) PromoteToDevice(ctx ComputeContext) error {
	if ctx == nil {
		return ErrNoDevice
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return ErrReleased
	}
	if err := s.syncToHostLocked(); err != nil {
		return err
	}

	if s.buf != nil && s.ctx == ctx {
		if err := ctx.Upload(s.buf, s.host); err != nil {
			return fmt.Errorf("promote: %w", err)
		}
		s.state = inSync
		return nil
	}

	buf, err := ctx.Alloc(len(s.host))
	if err != nil {
		return fmt.Errorf("promote: %w", err)
	}
	if err := ctx.Upload(buf, s.host); err != nil {
		ctx.ReleaseBuffer(buf)
		return fmt.Errorf("promote: %w", err)
	}

	s.dropDeviceLocked()
	s.ctx = ctx
	s.buf = buf
	s.state = inSync
	return nil
}

// DemoteToHost downloads pending device writes and frees the device buffer.
func (s *Storage) DemoteToHost() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return ErrReleased
	}
	if err := s.syncToHostLocked(); err != nil {
		return err
	}
	s.dropDeviceLocked()
	return nil
}

// SyncToHost brings the host buffer up to date with the device mirror.
func (s *Storage) SyncToHost() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return ErrReleased
	}
	return s.syncToHostLocked()
}

func (s *Storage) syncToHostLocked() error {
	if s.state != deviceNewer {
		return nil
	}
	data, err := s.ctx.Download(s.buf)
	if err != nil {
		return fmt.Errorf("sync to host: %w", err)
	}
	copy(s.host, data)
	s.state = inSync
	return nil
}

// HostData returns a copy of the current values, synchronising from the
// device first when needed.
func (s *Storage) HostData() ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil, ErrReleased
	}
	if err := s.syncToHostLocked(); err != nil {
		return nil, err
	}
	out := make([]float32, len(s.host))
	copy(out, s.host)
	return out, nil
}

// ReadBack materialises the device contents into a fresh slice without
// touching the owned host buffer. Host-only storage returns a copy of the
// host data.
func (s *Storage) ReadBack() ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil, ErrReleased
	}
	if s.buf == nil {
		out := make([]float32, len(s.host))
		copy(out, s.host)
		return out, nil
	}
	data, err := s.ctx.Download(s.buf)
	if err != nil {
		return nil, fmt.Errorf("read back: %w", err)
	}
	return data, nil
}

// Clone duplicates the storage. The copy gets its own host buffer and, when
// the source is mirrored, its own device buffer on the same context.
func (s *Storage) Clone() (*Storage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil, ErrReleased
	}

	host := make([]float32, len(s.host))
	copy(host, s.host)
	c := newStorage(host)
	if s.buf == nil {
		return c, nil
	}

	buf, err := s.ctx.Alloc(len(s.host))
	if err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	if err := s.ctx.CopyBuffer(buf, s.buf); err != nil {
		s.ctx.ReleaseBuffer(buf)
		return nil, fmt.Errorf("clone: %w", err)
	}
	c.ctx = s.ctx
	c.buf = buf
	c.state = s.state
	return c, nil
}

// Release frees the device buffer and drops the host data.
// Further use returns ErrReleased. Safe to call more than once.
func (s *Storage) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return
	}
	s.dropDeviceLocked()
	s.host = nil
	s.released = true
}

// Released reports whether Release has been called.
func (s *Storage) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

func (s *Storage) dropDeviceLocked() {
	if s.buf != nil {
		s.ctx.ReleaseBuffer(s.buf)
	}
	s.ctx = nil
	s.buf = nil
	s.state = hostOnly
}

// lockPair locks one or two storages in a global order. The returned
// function unlocks them.
func lockPair(a, b *Storage) func() {
	if b == nil || a == b {
		a.mu.Lock()
		return a.mu.Unlock
	}
	first, second := a, b
	if b.seq < a.seq {
		first, second = b, a
	}
	first.mu.Lock()
	second.mu.Lock()
	return func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}
}
