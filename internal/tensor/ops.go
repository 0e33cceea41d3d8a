package tensor

// Binary operations. Shapes must match exactly; there is no broadcasting.

// Add performs element-wise addition.
//
// Example:
//
//	a, _ := ctrl.New([]float32{1, 2, 3}, Shape{3})
//	b, _ := ctrl.New([]float32{4, 5, 6}, Shape{3})
//	c, _ := a.Add(b, ModeCopy)   // [5, 7, 9], a unchanged
//	_, _ = a.Add(b, ModeInline)  // a is now [5, 7, 9]
func (t *Tensor) Add(other *Tensor, mode Mode) (*Tensor, error) {
	return t.Apply(OpAdd, mode, other, 0)
}

// Sub performs element-wise subtraction.
func (t *Tensor) Sub(other *Tensor, mode Mode) (*Tensor, error) {
	return t.Apply(OpSub, mode, other, 0)
}

// Mul performs element-wise multiplication.
func (t *Tensor) Mul(other *Tensor, mode Mode) (*Tensor, error) {
	return t.Apply(OpMul, mode, other, 0)
}

// Div performs element-wise division.
func (t *Tensor) Div(other *Tensor, mode Mode) (*Tensor, error) {
	return t.Apply(OpDiv, mode, other, 0)
}

// Pow raises each element to the power of the matching element of other.
func (t *Tensor) Pow(other *Tensor, mode Mode) (*Tensor, error) {
	return t.Apply(OpPow, mode, other, 0)
}

// Scalar operations.

// AddScalar adds scalar to each element.
func (t *Tensor) AddScalar(scalar float32, mode Mode) (*Tensor, error) {
	return t.Apply(OpAddScalar, mode, nil, scalar)
}

// SubScalar subtracts scalar from each element.
func (t *Tensor) SubScalar(scalar float32, mode Mode) (*Tensor, error) {
	return t.Apply(OpSubScalar, mode, nil, scalar)
}

// MulScalar multiplies each element by scalar.
func (t *Tensor) MulScalar(scalar float32, mode Mode) (*Tensor, error) {
	return t.Apply(OpMulScalar, mode, nil, scalar)
}

// DivScalar divides each element by scalar.
func (t *Tensor) DivScalar(scalar float32, mode Mode) (*Tensor, error) {
	return t.Apply(OpDivScalar, mode, nil, scalar)
}

// PowScalar raises each element to the power scalar.
func (t *Tensor) PowScalar(scalar float32, mode Mode) (*Tensor, error) {
	return t.Apply(OpPowScalar, mode, nil, scalar)
}

// Fill sets every element to value.
func (t *Tensor) Fill(value float32, mode Mode) (*Tensor, error) {
	return t.Apply(OpFill, mode, nil, value)
}

// Zero sets every element to 0.
func (t *Tensor) Zero(mode Mode) (*Tensor, error) {
	return t.Apply(OpFill, mode, nil, 0)
}

// Unary operations.

// Neg negates each element.
func (t *Tensor) Neg(mode Mode) (*Tensor, error) { return t.Apply(OpNeg, mode, nil, 0) }

// Abs computes the absolute value of each element.
func (t *Tensor) Abs(mode Mode) (*Tensor, error) { return t.Apply(OpAbs, mode, nil, 0) }

// Cos computes element-wise cosine.
func (t *Tensor) Cos(mode Mode) (*Tensor, error) { return t.Apply(OpCos, mode, nil, 0) }

// Sin computes element-wise sine.
func (t *Tensor) Sin(mode Mode) (*Tensor, error) { return t.Apply(OpSin, mode, nil, 0) }

// Tan computes element-wise tangent.
func (t *Tensor) Tan(mode Mode) (*Tensor, error) { return t.Apply(OpTan, mode, nil, 0) }

// Exp computes element-wise exponential.
func (t *Tensor) Exp(mode Mode) (*Tensor, error) { return t.Apply(OpExp, mode, nil, 0) }

// Log computes element-wise natural logarithm.
// Non-positive inputs give NaN or -Inf as IEEE-754 prescribes.
func (t *Tensor) Log(mode Mode) (*Tensor, error) { return t.Apply(OpLog, mode, nil, 0) }

// Sqrt computes element-wise square root.
func (t *Tensor) Sqrt(mode Mode) (*Tensor, error) { return t.Apply(OpSqrt, mode, nil, 0) }

// Rsqrt computes element-wise reciprocal square root.
func (t *Tensor) Rsqrt(mode Mode) (*Tensor, error) { return t.Apply(OpRsqrt, mode, nil, 0) }

// Tanh computes element-wise hyperbolic tangent.
func (t *Tensor) Tanh(mode Mode) (*Tensor, error) { return t.Apply(OpTanh, mode, nil, 0) }

// Sigmoid computes 1 / (1 + exp(-x)) per element.
func (t *Tensor) Sigmoid(mode Mode) (*Tensor, error) { return t.Apply(OpSigmoid, mode, nil, 0) }

// Ceil rounds each element up.
func (t *Tensor) Ceil(mode Mode) (*Tensor, error) { return t.Apply(OpCeil, mode, nil, 0) }

// Floor rounds each element down.
func (t *Tensor) Floor(mode Mode) (*Tensor, error) { return t.Apply(OpFloor, mode, nil, 0) }

// Round rounds each element to the nearest integer, halves away from zero.
func (t *Tensor) Round(mode Mode) (*Tensor, error) { return t.Apply(OpRound, mode, nil, 0) }

// Sign maps each element to its sign, keeping ±0 and NaN.
func (t *Tensor) Sign(mode Mode) (*Tensor, error) { return t.Apply(OpSign, mode, nil, 0) }
