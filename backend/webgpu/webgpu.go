// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides a WebGPU compute context for tensor operations.
//
// WebGPU is a cross-platform graphics and compute API that works on:
//   - Windows (via D3D12 or Vulkan)
//   - macOS (via Metal)
//   - Linux (via Vulkan)
//
// The context needs the wgpu-native library at runtime. Use IsAvailable
// to fall back to the CPU context when it is missing.
//
// Example:
//
//	import (
//	    "github.com/born-ml/floattensor/backend/webgpu"
//	    "github.com/born-ml/floattensor/tensor"
//	)
//
//	func main() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//
//	    ctrl := tensor.NewController(tensor.DefaultConfig())
//	    defer ctrl.Close()
//
//	    x, _ := ctrl.New([]float32{0.4, 0.5, 0.3, -0.1}, tensor.Shape{4})
//	    _ = x.PromoteToDevice(gpu)
//	    _, _ = x.Cos(tensor.ModeInline)
//	}
package webgpu

import (
	internalwebgpu "github.com/born-ml/floattensor/internal/backend/webgpu"
	"github.com/born-ml/floattensor/tensor"
)

// Context runs elementwise kernels on a WebGPU device.
type Context = internalwebgpu.Context

// Config configures a Context.
type Config = internalwebgpu.Config

// MemoryStats reports GPU buffer usage.
type MemoryStats = internalwebgpu.MemoryStats

// PowerPreference selects which adapter to request.
type PowerPreference = internalwebgpu.PowerPreference

// AdapterSummary describes one GPU adapter.
type AdapterSummary = internalwebgpu.AdapterSummary

// Adapter preferences.
const (
	PowerHighPerformance = internalwebgpu.PowerHighPerformance
	PowerLowPower        = internalwebgpu.PowerLowPower
	PowerDefault         = internalwebgpu.PowerDefault
)

// Compile-time check that Context implements tensor.ComputeContext.
var _ tensor.ComputeContext = (*Context)(nil)

// New creates a WebGPU context with default settings.
//
// Call Release() when done to free GPU resources. Tensors promoted to the
// context must be released first.
//
// Returns an error matching tensor.ErrNoDevice if no compatible GPU is found.
func New() (*Context, error) {
	return internalwebgpu.New()
}

// NewWithConfig creates a WebGPU context.
func NewWithConfig(cfg Config) (*Context, error) {
	return internalwebgpu.NewWithConfig(cfg)
}

// DefaultConfig returns the default WebGPU settings.
func DefaultConfig() Config {
	return internalwebgpu.DefaultConfig()
}

// IsAvailable checks if WebGPU is available on the current system.
//
// Example:
//
//	var ctx tensor.ComputeContext = cpu.New()
//	if webgpu.IsAvailable() {
//	    if gpu, err := webgpu.New(); err == nil {
//	        ctx = gpu
//	    }
//	}
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}

// ListAdapters returns the GPU adapters visible to WebGPU.
func ListAdapters() ([]AdapterSummary, error) {
	return internalwebgpu.ListAdapters()
}
