// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/floattensor/internal/backend/cpu"
	"github.com/born-ml/floattensor/tensor"
)

// Context is a compute context whose device memory lives in host RAM.
type Context = internalcpu.Context

// Config configures a Context.
type Config = internalcpu.Config

// MemoryStats reports emulated device memory usage.
type MemoryStats = internalcpu.MemoryStats

// Compile-time check that Context implements tensor.ComputeContext.
var _ tensor.ComputeContext = (*Context)(nil)

// New creates a CPU context with default settings.
//
// Example:
//
//	import (
//	    "github.com/born-ml/floattensor/backend/cpu"
//	    "github.com/born-ml/floattensor/tensor"
//	)
//
//	func main() {
//	    ctrl := tensor.NewController(tensor.DefaultConfig())
//	    defer ctrl.Close()
//
//	    x, _ := ctrl.New([]float32{1, 2, 3}, tensor.Shape{3})
//	    _ = x.PromoteToDevice(cpu.New())
//	}
func New() *Context {
	return internalcpu.New()
}

// NewWithConfig creates a CPU context.
func NewWithConfig(cfg Config) *Context {
	return internalcpu.NewWithConfig(cfg)
}

// DefaultConfig returns the default CPU context settings.
func DefaultConfig() Config {
	return internalcpu.DefaultConfig()
}
