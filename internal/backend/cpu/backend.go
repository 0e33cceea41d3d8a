// Package cpu implements a host-memory compute context. Each device buffer is
// a separate Go allocation, so tensors promoted to it exercise the same
// mirror and sync paths as a real accelerator.
package cpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"github.com/born-ml/floattensor/internal/parallel"
	"github.com/born-ml/floattensor/internal/tensor"
)

// Verify that Context implements tensor.ComputeContext.
var _ tensor.ComputeContext = (*Context)(nil)

// errForeignBuffer is returned when a buffer from another context is passed in.
var errForeignBuffer = errors.New("cpu: buffer belongs to another context")

// Config configures a Context.
type Config struct {
	// Parallel controls how kernels split work across goroutines.
	Parallel parallel.Config `yaml:"parallel"`
	// MemoryLimit caps live device bytes. Zero means unlimited.
	MemoryLimit uint64 `yaml:"memory_limit"`
	// Logger receives allocation events at debug level. Nil discards.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns a Config with CPU-count-based parallelism and no
// memory limit.
func DefaultConfig() Config {
	return Config{Parallel: parallel.DefaultConfig()}
}

// Context emulates device memory in host RAM.
type Context struct {
	cfg    Config
	logger *slog.Logger

	// Memory tracking
	memoryStats struct {
		liveBytes       uint64
		peakBytes       uint64
		totalAllocated  uint64
		activeBuffers   int64
		allocationCount uint64
		mu              sync.RWMutex
	}
}

// Buffer is a Context allocation.
type Buffer struct {
	owner *Context
	data  []float32
}

// Len returns the element count.
func (b *Buffer) Len() int { return len(b.data) }

// Stride returns the element size in bytes.
func (b *Buffer) Stride() int { return 4 }

// NativePtr returns the address of the first element.
func (b *Buffer) NativePtr() uintptr {
	if b.data == nil {
		return 0
	}
	//nolint:gosec // address used as identity only
	return uintptr(unsafe.Pointer(unsafe.SliceData(b.data[:cap(b.data)])))
}

// New creates a Context with DefaultConfig.
func New() *Context {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a Context.
func NewWithConfig(cfg Config) *Context {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Context{cfg: cfg, logger: logger}
}

// Name returns the context name.
func (c *Context) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (c *Context) Device() tensor.Device {
	return tensor.CPU
}

// Alloc allocates a zeroed buffer of n elements.
func (c *Context) Alloc(n int) (tensor.Buffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("cpu: %w: negative length %d", tensor.ErrAllocation, n)
	}
	size := uint64(n) * 4

	c.memoryStats.mu.Lock()
	if limit := c.cfg.MemoryLimit; limit > 0 && c.memoryStats.liveBytes+size > limit {
		live := c.memoryStats.liveBytes
		c.memoryStats.mu.Unlock()
		return nil, fmt.Errorf("cpu: %w: %d bytes requested, %d of %d in use",
			tensor.ErrAllocation, size, live, limit)
	}
	c.trackAllocationLocked(size)
	c.memoryStats.mu.Unlock()

	// Capacity of at least one keeps zero-length buffers at distinct addresses.
	buf := &Buffer{owner: c, data: make([]float32, n, max(n, 1))}
	c.logger.Debug("cpu buffer allocated", "elements", n)
	return buf, nil
}

// ReleaseBuffer frees a buffer. Releasing twice is a no-op.
func (c *Context) ReleaseBuffer(buf tensor.Buffer) {
	b, err := c.own(buf)
	if err != nil || b.data == nil {
		return
	}
	c.trackRelease(uint64(len(b.data)) * 4)
	b.data = nil
}

// Upload copies src into dst.
func (c *Context) Upload(dst tensor.Buffer, src []float32) error {
	b, err := c.own(dst)
	if err != nil {
		return err
	}
	if len(src) != len(b.data) {
		return fmt.Errorf("cpu: upload: %w: %d elements into %d", tensor.ErrSizeMismatch, len(src), len(b.data))
	}
	copy(b.data, src)
	return nil
}

// Download returns a copy of src.
func (c *Context) Download(src tensor.Buffer) ([]float32, error) {
	b, err := c.own(src)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(b.data))
	copy(out, b.data)
	return out, nil
}

// CopyBuffer copies src into dst.
func (c *Context) CopyBuffer(dst, src tensor.Buffer) error {
	d, err := c.own(dst)
	if err != nil {
		return err
	}
	s, err := c.own(src)
	if err != nil {
		return err
	}
	if len(d.data) != len(s.data) {
		return fmt.Errorf("cpu: copy: %w", tensor.ErrSizeMismatch)
	}
	copy(d.data, s.data)
	return nil
}

// RunUnary computes dst[i] = op(src[i]).
func (c *Context) RunUnary(op tensor.Op, dst, src tensor.Buffer) error {
	d, s, err := c.own2(dst, src)
	if err != nil {
		return err
	}
	return tensor.UnaryKernel(op, d.data, s.data, c.cfg.Parallel)
}

// RunScalar computes dst[i] = op(src[i], scalar).
func (c *Context) RunScalar(op tensor.Op, dst, src tensor.Buffer, scalar float32) error {
	d, s, err := c.own2(dst, src)
	if err != nil {
		return err
	}
	return tensor.ScalarKernel(op, d.data, s.data, scalar, c.cfg.Parallel)
}

// RunBinary computes dst[i] = op(a[i], b[i]). dst may alias a or b.
func (c *Context) RunBinary(op tensor.Op, dst, a, b tensor.Buffer) error {
	d, x, err := c.own2(dst, a)
	if err != nil {
		return err
	}
	y, err := c.own(b)
	if err != nil {
		return err
	}
	return tensor.BinaryKernel(op, d.data, x.data, y.data, c.cfg.Parallel)
}

func (c *Context) own(buf tensor.Buffer) (*Buffer, error) {
	b, ok := buf.(*Buffer)
	if !ok || b.owner != c {
		return nil, errForeignBuffer
	}
	return b, nil
}

func (c *Context) own2(x, y tensor.Buffer) (*Buffer, *Buffer, error) {
	a, err := c.own(x)
	if err != nil {
		return nil, nil, err
	}
	b, err := c.own(y)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}
