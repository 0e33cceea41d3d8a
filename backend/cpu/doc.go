// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a compute context backed by host memory.
//
// # Overview
//
// Promoting a tensor to a CPU context gives it a device mirror that is a
// separate Go allocation. Kernels run on the mirror and results reach the
// host copy only when it is read, exactly as with a GPU context. This makes
// the context useful where no GPU is present and in tests.
//
// # Basic Usage
//
//	ctx := cpu.NewWithConfig(cpu.Config{
//	    Parallel:    parallel.DefaultConfig(),
//	    MemoryLimit: 64 << 20,
//	})
//	_ = x.PromoteToDevice(ctx)
//	y, _ := x.Sin(tensor.ModeCopy) // runs on ctx
//
// Allocations beyond MemoryLimit fail with tensor.ErrAllocation.
//
// # Thread Safety
//
// A Context may be shared between goroutines. Memory statistics are
// guarded internally; buffers are protected by the storages that own them.
package cpu
