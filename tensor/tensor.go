// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for float32 tensors.
//
// The package defines the core types:
//   - Tensor: identified, shaped float32 container
//   - Controller: session that creates and tracks tensors
//   - ComputeContext: device capability tensors can be promoted to
//   - Shape, Op, Mode: operation vocabulary
//
// Example:
//
//	ctrl := tensor.NewController(tensor.DefaultConfig())
//	defer ctrl.Close()
//
//	x, _ := ctrl.New([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	y, _ := x.AddScalar(1, tensor.ModeCopy)
package tensor

import (
	"github.com/born-ml/floattensor/internal/tensor"
)

// Type aliases for public API

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Tensor is an identified, shaped float32 container.
//
// Every operation takes a Mode. ModeCopy returns a new tensor and leaves
// the operands untouched; ModeInline overwrites the receiver and returns it.
//
// Example:
//
//	a, _ := ctrl.New([]float32{1, 2, 3}, tensor.Shape{3})
//	b, _ := ctrl.New([]float32{4, 5, 6}, tensor.Shape{3})
//	c, _ := a.Add(b, tensor.ModeCopy)   // [5, 7, 9]
//	_, _ = a.Cos(tensor.ModeInline)     // a overwritten
type Tensor = tensor.Tensor

// Controller is a tensor session. It assigns identities and releases every
// tracked tensor on Close.
type Controller = tensor.Controller

// Config controls a Controller.
type Config = tensor.Config

// Storage is the data holder behind a Tensor.
type Storage = tensor.Storage

// Op identifies an elementwise operation.
type Op = tensor.Op

// Mode selects where an operation writes its result.
type Mode = tensor.Mode

// Operation modes.
const (
	ModeCopy   Mode = tensor.ModeCopy
	ModeInline Mode = tensor.ModeInline
)

// Unary operations.
const (
	OpNeg     Op = tensor.OpNeg
	OpAbs     Op = tensor.OpAbs
	OpCos     Op = tensor.OpCos
	OpSin     Op = tensor.OpSin
	OpTan     Op = tensor.OpTan
	OpExp     Op = tensor.OpExp
	OpLog     Op = tensor.OpLog
	OpSqrt    Op = tensor.OpSqrt
	OpRsqrt   Op = tensor.OpRsqrt
	OpTanh    Op = tensor.OpTanh
	OpSigmoid Op = tensor.OpSigmoid
	OpCeil    Op = tensor.OpCeil
	OpFloor   Op = tensor.OpFloor
	OpRound   Op = tensor.OpRound
	OpSign    Op = tensor.OpSign
)

// Scalar operations.
const (
	OpAddScalar Op = tensor.OpAddScalar
	OpSubScalar Op = tensor.OpSubScalar
	OpMulScalar Op = tensor.OpMulScalar
	OpDivScalar Op = tensor.OpDivScalar
	OpPowScalar Op = tensor.OpPowScalar
	OpFill      Op = tensor.OpFill
)

// Binary operations.
const (
	OpAdd Op = tensor.OpAdd
	OpSub Op = tensor.OpSub
	OpMul Op = tensor.OpMul
	OpDiv Op = tensor.OpDiv
	OpPow Op = tensor.OpPow
)

// Errors returned by tensor operations. Test with errors.Is.
var (
	ErrSizeMismatch      = tensor.ErrSizeMismatch
	ErrShapeMismatch     = tensor.ErrShapeMismatch
	ErrInvalidShape      = tensor.ErrInvalidShape
	ErrAllocation        = tensor.ErrAllocation
	ErrResidencyMismatch = tensor.ErrResidencyMismatch
	ErrUnsupportedOp     = tensor.ErrUnsupportedOp
	ErrReleased          = tensor.ErrReleased
	ErrClosed            = tensor.ErrClosed
	ErrNoDevice          = tensor.ErrNoDevice
)

// ShapeError describes why two shapes are incompatible.
type ShapeError = tensor.ShapeError

// SizeError reports data whose length disagrees with its shape.
type SizeError = tensor.SizeError

// MismatchReason classifies a ShapeError.
type MismatchReason = tensor.MismatchReason

// Mismatch reasons.
const (
	ReasonSize   MismatchReason = tensor.ReasonSize
	ReasonRank   MismatchReason = tensor.ReasonRank
	ReasonExtent MismatchReason = tensor.ReasonExtent
)

// NewController starts a tensor session.
//
// Example:
//
//	ctrl := tensor.NewController(tensor.Config{Logger: slog.Default()})
//	defer ctrl.Close()
func NewController(cfg Config) *Controller {
	return tensor.NewController(cfg)
}

// DefaultConfig returns a Config with a discarding logger and
// CPU-count-based parallelism.
func DefaultConfig() Config {
	return tensor.DefaultConfig()
}

// ValidateBinary checks that two shapes can be combined elementwise.
// The returned error is a *ShapeError matching ErrShapeMismatch.
func ValidateBinary(a, b Shape) error {
	return tensor.ValidateBinary(a, b)
}
