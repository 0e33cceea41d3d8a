package tensor

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrSizeMismatch      = errors.New("data length does not match shape")
	ErrShapeMismatch     = errors.New("tensor shapes do not match")
	ErrInvalidShape      = errors.New("invalid shape")
	ErrAllocation        = errors.New("device allocation failed")
	ErrResidencyMismatch = errors.New("operands live on different devices")
	ErrUnsupportedOp     = errors.New("unsupported operation")
	ErrReleased          = errors.New("tensor storage has been released")
	ErrClosed            = errors.New("controller is closed")
	ErrNoDevice          = errors.New("no compute device available")
)

// MismatchReason identifies which shape check failed in ValidateBinary.
type MismatchReason int

// Shape mismatch reasons, in the order they are checked.
const (
	ReasonSize   MismatchReason = iota // Element counts differ.
	ReasonRank                         // Same count, different number of dimensions.
	ReasonExtent                       // Same count and rank, an axis extent differs.
)

// String returns a short name for the reason.
func (r MismatchReason) String() string {
	switch r {
	case ReasonSize:
		return "size"
	case ReasonRank:
		return "rank"
	case ReasonExtent:
		return "extent"
	default:
		return "unknown"
	}
}

// ShapeError describes an incompatible pair of operand shapes.
type ShapeError struct {
	Reason MismatchReason
	Left   Shape
	Right  Shape
	Axis   int // First differing axis for ReasonExtent, -1 otherwise.
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	switch e.Reason {
	case ReasonSize:
		return fmt.Sprintf("%s: %v has %d elements, %v has %d",
			ErrShapeMismatch, e.Left, e.Left.NumElements(), e.Right, e.Right.NumElements())
	case ReasonRank:
		return fmt.Sprintf("%s: %v has rank %d, %v has rank %d",
			ErrShapeMismatch, e.Left, len(e.Left), e.Right, len(e.Right))
	default:
		return fmt.Sprintf("%s: %v vs %v differ at axis %d",
			ErrShapeMismatch, e.Left, e.Right, e.Axis)
	}
}

// Is reports whether target is ErrShapeMismatch.
func (e *ShapeError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// SizeError describes raw data whose length disagrees with the declared shape.
type SizeError struct {
	Shape Shape
	Got   int
}

// Error implements the error interface.
func (e *SizeError) Error() string {
	return fmt.Sprintf("%s: shape %v requires %d elements, but got %d",
		ErrSizeMismatch, e.Shape, e.Shape.NumElements(), e.Got)
}

// Is reports whether target is ErrSizeMismatch.
func (e *SizeError) Is(target error) bool {
	return target == ErrSizeMismatch
}
