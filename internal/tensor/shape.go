package tensor

import (
	"fmt"
	"math"
)

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid: all dimensions >= 0 and an element
// count that fits in an int.
func (s Shape) Validate() error {
	empty := false
	for i, dim := range s {
		if dim < 0 {
			return fmt.Errorf("%w: dimension at index %d is %d (must be >= 0)", ErrInvalidShape, i, dim)
		}
		if dim == 0 {
			empty = true
		}
	}
	if empty {
		return nil
	}
	n := 1
	for i, dim := range s {
		if n > math.MaxInt/dim {
			return fmt.Errorf("%w: element count overflows at dimension %d", ErrInvalidShape, i)
		}
		n *= dim
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ValidateBinary checks that two shapes can be combined by an elementwise
// binary operation. There is no broadcasting: the shapes must have the same
// rank and identical extents on every axis.
//
// Every incompatibility is reported as a *ShapeError matching ErrShapeMismatch.
// The Reason field tells the cases apart:
//
//	[2,5] vs [2,6] → ReasonSize   (10 vs 12 elements)
//	[4]   vs [2,2] → ReasonRank   (same count, rank 1 vs 2)
//	[2,3] vs [3,2] → ReasonExtent (same count and rank, axis 0 differs)
func ValidateBinary(a, b Shape) error {
	if a.NumElements() != b.NumElements() {
		return &ShapeError{Reason: ReasonSize, Left: a.Clone(), Right: b.Clone(), Axis: -1}
	}
	if len(a) != len(b) {
		return &ShapeError{Reason: ReasonRank, Left: a.Clone(), Right: b.Clone(), Axis: -1}
	}
	for i := range a {
		if a[i] != b[i] {
			return &ShapeError{Reason: ReasonExtent, Left: a.Clone(), Right: b.Clone(), Axis: i}
		}
	}
	return nil
}
