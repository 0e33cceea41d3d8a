package webgpu

// MemoryStats represents GPU memory usage statistics.
type MemoryStats struct {
	// Bytes held by live tensor buffers
	LiveBytes uint64
	// Peak memory usage in bytes
	PeakMemoryBytes uint64
	// Total bytes allocated since creation
	TotalAllocatedBytes uint64
	// Number of currently active buffers
	ActiveBuffers int64
	// Buffer pool statistics
	PoolAllocated uint64
	PoolReleased  uint64
	PoolHits      uint64
	PoolMisses    uint64
	PooledBuffers int
}

// MemoryStats returns current GPU memory usage statistics.
func (c *Context) MemoryStats() MemoryStats {
	c.memoryStats.mu.RLock()
	stats := MemoryStats{
		LiveBytes:           c.memoryStats.liveBytes,
		PeakMemoryBytes:     c.memoryStats.peakBytes,
		TotalAllocatedBytes: c.memoryStats.totalAllocated,
		ActiveBuffers:       c.memoryStats.activeBuffers,
	}
	c.memoryStats.mu.RUnlock()

	c.mu.RLock()
	pool := c.bufferPool
	c.mu.RUnlock()
	if pool != nil {
		stats.PoolAllocated, stats.PoolReleased, stats.PoolHits, stats.PoolMisses, stats.PooledBuffers = pool.Stats()
	}
	return stats
}

// trackBufferAllocation records a buffer allocation in memory statistics.
func (c *Context) trackBufferAllocation(size uint64) {
	c.memoryStats.mu.Lock()
	defer c.memoryStats.mu.Unlock()

	c.memoryStats.liveBytes += size
	c.memoryStats.totalAllocated += size
	c.memoryStats.activeBuffers++

	if c.memoryStats.liveBytes > c.memoryStats.peakBytes {
		c.memoryStats.peakBytes = c.memoryStats.liveBytes
	}
}

// trackBufferRelease records a buffer release in memory statistics.
func (c *Context) trackBufferRelease(size uint64) {
	c.memoryStats.mu.Lock()
	defer c.memoryStats.mu.Unlock()

	if c.memoryStats.liveBytes >= size {
		c.memoryStats.liveBytes -= size
	}
	c.memoryStats.activeBuffers--
}
