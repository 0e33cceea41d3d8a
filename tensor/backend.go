// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/floattensor/internal/tensor"

// ComputeContext is a device tensors can be promoted to. It owns device
// memory and runs elementwise kernels on it.
//
// Implementations:
//   - backend/cpu: device memory emulated in host RAM
//   - backend/webgpu: GPU compute via WebGPU
//
// Example:
//
//	import (
//	    "github.com/born-ml/floattensor/tensor"
//	    "github.com/born-ml/floattensor/backend/webgpu"
//	)
//
//	gpu, err := webgpu.New()
//	if err != nil {
//	    return err
//	}
//	defer gpu.Release()
//	_ = x.PromoteToDevice(gpu)
type ComputeContext = tensor.ComputeContext

// Buffer is a device allocation owned by a ComputeContext.
type Buffer = tensor.Buffer

// Device identifies the kind of hardware behind a ComputeContext.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	WebGPU Device = tensor.WebGPU
)

// Residency reports whether a tensor has a device mirror.
type Residency = tensor.Residency

// Residency constants.
const (
	HostOnly Residency = tensor.HostOnly
	Mirrored Residency = tensor.Mirrored
)
