package webgpu

import (
	"sync"

	"github.com/openfluke/webgpu/wgpu"
)

// BufferSize represents different buffer size categories for pooling.
type BufferSize int

const (
	// SmallBuffer for buffers < 4KB.
	SmallBuffer BufferSize = iota
	// MediumBuffer for buffers 4KB-1MB.
	MediumBuffer
	// LargeBuffer for buffers > 1MB.
	LargeBuffer
)

const (
	// Size thresholds for buffer categories.
	smallThreshold  = 4 * 1024    // 4KB
	mediumThreshold = 1024 * 1024 // 1MB
	maxPoolSize     = 32          // Max buffers per category
)

// pooledBuffer wraps a GPU buffer with metadata.
type pooledBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
	usage  wgpu.BufferUsage
}

// BufferPool recycles the short-lived buffers a kernel launch needs:
// parameter uniforms, readback staging and aliasing temporaries. Tensor
// storage buffers are never pooled; each allocation is distinct.
type BufferPool struct {
	device *wgpu.Device

	// Pools organized by size category
	pools [3][]*pooledBuffer

	mu sync.Mutex

	// Statistics
	totalAllocated uint64
	totalReleased  uint64
	poolHits       uint64
	poolMisses     uint64
}

// NewBufferPool creates a new buffer pool for the given device.
func NewBufferPool(device *wgpu.Device) *BufferPool {
	return &BufferPool{device: device}
}

// Acquire gets a buffer of exactly size bytes with the given usage from the
// pool or creates a new one.
func (p *BufferPool) Acquire(size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	category := categorize(size)
	pool := p.pools[category]

	for i, pb := range pool {
		if pb.size == size && pb.usage == usage {
			p.pools[category] = append(pool[:i], pool[i+1:]...)
			p.poolHits++
			return pb.buffer, nil
		}
	}

	// No suitable buffer found - create new one
	buffer, err := p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "pooled",
		Usage: usage,
		Size:  size,
	})
	if err != nil {
		return nil, err
	}
	p.poolMisses++
	p.totalAllocated++
	return buffer, nil
}

// Release returns a buffer to the pool for reuse.
// If the pool is full, the buffer is immediately released.
func (p *BufferPool) Release(buffer *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.totalReleased++

	category := categorize(size)
	if len(p.pools[category]) >= maxPoolSize {
		buffer.Release()
		return
	}
	p.pools[category] = append(p.pools[category], &pooledBuffer{
		buffer: buffer,
		size:   size,
		usage:  usage,
	})
}

// Clear releases all pooled buffers.
func (p *BufferPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, pool := range p.pools {
		for _, pb := range pool {
			pb.buffer.Release()
		}
		p.pools[i] = nil
	}
}

// Stats returns statistics about buffer pool usage.
func (p *BufferPool) Stats() (allocated, released, hits, misses uint64, pooledCount int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, pool := range p.pools {
		pooledCount += len(pool)
	}
	return p.totalAllocated, p.totalReleased, p.poolHits, p.poolMisses, pooledCount
}

// categorize determines the size category for a buffer.
func categorize(size uint64) BufferSize {
	if size < smallThreshold {
		return SmallBuffer
	}
	if size < mediumThreshold {
		return MediumBuffer
	}
	return LargeBuffer
}
