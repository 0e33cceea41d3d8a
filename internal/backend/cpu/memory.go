package cpu

// MemoryStats represents emulated device memory usage.
type MemoryStats struct {
	// Bytes held by live buffers
	LiveBytes uint64
	// Highest LiveBytes observed
	PeakBytes uint64
	// Total bytes allocated since creation
	TotalAllocatedBytes uint64
	// Number of currently active buffers
	ActiveBuffers int64
	// Number of successful allocations
	Allocations uint64
}

// MemoryStats returns current memory usage statistics.
func (c *Context) MemoryStats() MemoryStats {
	c.memoryStats.mu.RLock()
	defer c.memoryStats.mu.RUnlock()

	return MemoryStats{
		LiveBytes:           c.memoryStats.liveBytes,
		PeakBytes:           c.memoryStats.peakBytes,
		TotalAllocatedBytes: c.memoryStats.totalAllocated,
		ActiveBuffers:       c.memoryStats.activeBuffers,
		Allocations:         c.memoryStats.allocationCount,
	}
}

// trackAllocationLocked records an allocation. Caller holds memoryStats.mu.
func (c *Context) trackAllocationLocked(size uint64) {
	c.memoryStats.liveBytes += size
	c.memoryStats.totalAllocated += size
	c.memoryStats.activeBuffers++
	c.memoryStats.allocationCount++

	if c.memoryStats.liveBytes > c.memoryStats.peakBytes {
		c.memoryStats.peakBytes = c.memoryStats.liveBytes
	}
}

// trackRelease records a buffer release.
func (c *Context) trackRelease(size uint64) {
	c.memoryStats.mu.Lock()
	defer c.memoryStats.mu.Unlock()

	if c.memoryStats.liveBytes >= size {
		c.memoryStats.liveBytes -= size
	}
	c.memoryStats.activeBuffers--
}
