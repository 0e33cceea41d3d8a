// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides float32 tensors with optional device mirrors.
//
// # Overview
//
// A Tensor owns a contiguous float32 host buffer. Promoting it to a
// ComputeContext copies the data into a separate device buffer; from then
// on its operations run on that device and results are pulled back to the
// host when read.
//
// # Basic Usage
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
//	    x, _ := ctrl.New([]float32{0.4, 0.5, 0.3, -0.1}, tensor.Shape{4})
//	    _ = x.PromoteToDevice(cpu.New())
//
//	    y, _ := x.Cos(tensor.ModeCopy)
//	    data, _ := y.Data()
//	}
//
// # Modes
//
// Every operation takes a Mode:
//
//	y, _ := x.AddScalar(1, tensor.ModeCopy)   // new tensor, x untouched
//	_, _ = x.AddScalar(1, tensor.ModeInline)  // x overwritten
//
// # Shapes
//
// Binary operations require identical shapes. There is no broadcasting.
// A mismatch fails with a *ShapeError before anything is allocated:
//
//	_, err := a.Add(b, tensor.ModeCopy)
//	var se *tensor.ShapeError
//	if errors.As(err, &se) {
//	    fmt.Println(se.Reason) // size, rank or extent
//	}
//
// # Residency
//
// Both operands of a binary operation must live in the same place: both on
// the host or both on the same ComputeContext. Mixed operands fail with
// ErrResidencyMismatch.
//
// # Available Operations
//
// Unary operations:
//
//	Neg, Abs, Cos, Sin, Tan, Exp, Log, Sqrt, Rsqrt, Tanh, Sigmoid,
//	Ceil, Floor, Round, Sign
//
// Scalar operations:
//
//	AddScalar, SubScalar, MulScalar, DivScalar, PowScalar, Fill, Zero
//
// Binary operations:
//
//	Add, Sub, Mul, Div, Pow
package tensor
