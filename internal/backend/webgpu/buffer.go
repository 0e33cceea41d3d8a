package webgpu

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/born-ml/floattensor/internal/tensor"
	"github.com/openfluke/webgpu/wgpu"
)

// minBufferSize is the smallest buffer WebGPU accepts for a storage binding.
const minBufferSize = 4

// storageUsage is the usage of every tensor buffer.
const storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc

var (
	errForeignBuffer = errors.New("webgpu: buffer belongs to another context")
	errContextClosed = errors.New("webgpu: context released")
)

// Buffer is a GPU storage buffer holding float32 elements.
type Buffer struct {
	owner  *Context
	buffer *wgpu.Buffer
	n      int
	size   uint64
}

// Len returns the element count.
func (b *Buffer) Len() int { return b.n }

// Stride returns the element size in bytes.
func (b *Buffer) Stride() int { return 4 }

// NativePtr returns the address of the underlying wgpu object. Distinct
// buffers have distinct addresses for as long as both are alive.
func (b *Buffer) NativePtr() uintptr {
	if b.buffer == nil {
		return 0
	}
	//nolint:gosec // address used as identity only
	return uintptr(unsafe.Pointer(b.buffer))
}

// Alloc creates a zero-initialised storage buffer of n elements.
func (c *Context) Alloc(n int) (tensor.Buffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("webgpu: %w: negative length %d", tensor.ErrAllocation, n)
	}
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	size := max(uint64(n)*4, minBufferSize)
	buf, err := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "tensor",
		Size:  size,
		Usage: storageUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: %w: %d bytes: %w", tensor.ErrAllocation, size, err)
	}
	c.trackBufferAllocation(size)
	return &Buffer{owner: c, buffer: buf, n: n, size: size}, nil
}

// ReleaseBuffer destroys a buffer. Releasing twice is a no-op.
func (c *Context) ReleaseBuffer(buf tensor.Buffer) {
	b, err := c.own(buf)
	if err != nil || b.buffer == nil {
		return
	}

	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	if c.checkOpen() != nil {
		b.buffer = nil
		return
	}
	b.buffer.Destroy()
	b.buffer.Release()
	b.buffer = nil
	c.trackBufferRelease(b.size)
}

// Upload writes src into dst through the queue.
func (c *Context) Upload(dst tensor.Buffer, src []float32) error {
	b, err := c.own(dst)
	if err != nil {
		return err
	}
	if len(src) != b.n {
		return fmt.Errorf("webgpu: upload: %w: %d elements into %d", tensor.ErrSizeMismatch, len(src), b.n)
	}
	if b.n == 0 {
		return nil
	}

	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.queue.WriteBuffer(b.buffer, 0, wgpu.ToBytes(src))
	return nil
}

// Download reads src back through a staging buffer.
func (c *Context) Download(src tensor.Buffer) ([]float32, error) {
	b, err := c.own(src)
	if err != nil {
		return nil, err
	}
	if b.n == 0 {
		return []float32{}, nil
	}

	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	return c.readBuffer(b.buffer, b.n)
}

// CopyBuffer copies src into dst on the device.
func (c *Context) CopyBuffer(dst, src tensor.Buffer) error {
	d, err := c.own(dst)
	if err != nil {
		return err
	}
	s, err := c.own(src)
	if err != nil {
		return err
	}
	if d.n != s.n {
		return fmt.Errorf("webgpu: copy: %w", tensor.ErrSizeMismatch)
	}
	if d.n == 0 {
		return nil
	}

	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}

	encoder, err := c.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("webgpu: copy: %w", err)
	}
	encoder.CopyBufferToBuffer(s.buffer, 0, d.buffer, 0, uint64(d.n)*4)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("webgpu: copy: %w", err)
	}
	c.queue.Submit(cmd)
	return nil
}

// readBuffer copies n elements from src into a mapped staging buffer.
// Caller holds queueMu.
func (c *Context) readBuffer(src *wgpu.Buffer, n int) ([]float32, error) {
	size := uint64(n) * 4
	const stagingUsage = wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst

	staging, err := c.bufferPool.Acquire(size, stagingUsage)
	if err != nil {
		return nil, fmt.Errorf("webgpu: staging buffer: %w", err)
	}
	defer c.bufferPool.Release(staging, size, stagingUsage)

	encoder, err := c.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("webgpu: read back: %w", err)
	}
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("webgpu: read back: %w", err)
	}
	c.queue.Submit(cmd)

	done := make(chan struct{})
	var mapErr error
	err = staging.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			mapErr = fmt.Errorf("webgpu: map status %d", status)
		}
		close(done)
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: map staging buffer: %w", err)
	}

Wait:
	for {
		c.device.Poll(true, nil)
		select {
		case <-done:
			break Wait
		default:
		}
	}
	if mapErr != nil {
		return nil, mapErr
	}

	data := staging.GetMappedRange(0, uint(size))
	if data == nil {
		staging.Unmap()
		return nil, fmt.Errorf("webgpu: mapped range unavailable")
	}
	out := make([]float32, n)
	copy(out, wgpu.FromBytes[float32](data))
	staging.Unmap()
	return out, nil
}

func (c *Context) own(buf tensor.Buffer) (*Buffer, error) {
	b, ok := buf.(*Buffer)
	if !ok || b.owner != c {
		return nil, errForeignBuffer
	}
	return b, nil
}

func (c *Context) checkOpen() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.released {
		return errContextClosed
	}
	return nil
}
