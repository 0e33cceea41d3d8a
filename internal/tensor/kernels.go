package tensor

import (
	"fmt"
	"math"

	"github.com/born-ml/floattensor/internal/parallel"
)

// Host kernels. Arithmetic is done in float32 so overflow saturates the same
// way IEEE-754 single precision does; transcendental functions go through
// float64 math and are rounded once, which keeps results bit-reproducible.

// UnaryFunc returns the scalar function for a unary op.
func UnaryFunc(op Op) (func(float32) float32, bool) {
	switch op {
	case OpNeg:
		return func(x float32) float32 { return -x }, true
	case OpAbs:
		return func(x float32) float32 { return float32(math.Abs(float64(x))) }, true
	case OpCos:
		return func(x float32) float32 { return float32(math.Cos(float64(x))) }, true
	case OpSin:
		return func(x float32) float32 { return float32(math.Sin(float64(x))) }, true
	case OpTan:
		return func(x float32) float32 { return float32(math.Tan(float64(x))) }, true
	case OpExp:
		return func(x float32) float32 { return float32(math.Exp(float64(x))) }, true
	case OpLog:
		return func(x float32) float32 { return float32(math.Log(float64(x))) }, true
	case OpSqrt:
		return func(x float32) float32 { return float32(math.Sqrt(float64(x))) }, true
	case OpRsqrt:
		return func(x float32) float32 { return float32(1 / math.Sqrt(float64(x))) }, true
	case OpTanh:
		return func(x float32) float32 { return float32(math.Tanh(float64(x))) }, true
	case OpSigmoid:
		return func(x float32) float32 { return float32(1 / (1 + math.Exp(-float64(x)))) }, true
	case OpCeil:
		return func(x float32) float32 { return float32(math.Ceil(float64(x))) }, true
	case OpFloor:
		return func(x float32) float32 { return float32(math.Floor(float64(x))) }, true
	case OpRound:
		return func(x float32) float32 { return float32(math.Round(float64(x))) }, true
	case OpSign:
		return sign, true
	default:
		return nil, false
	}
}

func sign(x float32) float32 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return x // keeps ±0 and NaN
	}
}

// ScalarFunc returns the function for a scalar op.
func ScalarFunc(op Op) (func(x, s float32) float32, bool) {
	switch op {
	case OpAddScalar:
		return func(x, s float32) float32 { return x + s }, true
	case OpSubScalar:
		return func(x, s float32) float32 { return x - s }, true
	case OpMulScalar:
		return func(x, s float32) float32 { return x * s }, true
	case OpDivScalar:
		return func(x, s float32) float32 { return x / s }, true
	case OpPowScalar:
		return pow, true
	case OpFill:
		return func(_, s float32) float32 { return s }, true
	default:
		return nil, false
	}
}

// BinaryFunc returns the function for a binary op.
func BinaryFunc(op Op) (func(a, b float32) float32, bool) {
	switch op {
	case OpAdd:
		return func(a, b float32) float32 { return a + b }, true
	case OpSub:
		return func(a, b float32) float32 { return a - b }, true
	case OpMul:
		return func(a, b float32) float32 { return a * b }, true
	case OpDiv:
		return func(a, b float32) float32 { return a / b }, true
	case OpPow:
		return pow, true
	default:
		return nil, false
	}
}

func pow(a, b float32) float32 {
	return float32(math.Pow(float64(a), float64(b)))
}

// UnaryKernel computes dst[i] = f(src[i]). dst and src may be the same slice.
func UnaryKernel(op Op, dst, src []float32, cfg parallel.Config) error {
	f, ok := UnaryFunc(op)
	if !ok {
		return fmt.Errorf("%s: %w as unary kernel", op, ErrUnsupportedOp)
	}
	if len(dst) != len(src) {
		return fmt.Errorf("%s: %w: dst has %d elements, src has %d", op, ErrSizeMismatch, len(dst), len(src))
	}
	parallel.Range(len(src), cfg, func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = f(src[i])
		}
	})
	return nil
}

// ScalarKernel computes dst[i] = src[i] OP scalar.
func ScalarKernel(op Op, dst, src []float32, scalar float32, cfg parallel.Config) error {
	f, ok := ScalarFunc(op)
	if !ok {
		return fmt.Errorf("%s: %w as scalar kernel", op, ErrUnsupportedOp)
	}
	if len(dst) != len(src) {
		return fmt.Errorf("%s: %w: dst has %d elements, src has %d", op, ErrSizeMismatch, len(dst), len(src))
	}
	parallel.Range(len(src), cfg, func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = f(src[i], scalar)
		}
	})
	return nil
}

// BinaryKernel computes dst[i] = a[i] OP b[i]. dst may alias a or b.
func BinaryKernel(op Op, dst, a, b []float32, cfg parallel.Config) error {
	f, ok := BinaryFunc(op)
	if !ok {
		return fmt.Errorf("%s: %w as binary kernel", op, ErrUnsupportedOp)
	}
	if len(a) != len(b) || len(dst) != len(a) {
		return fmt.Errorf("%s: %w: dst %d, a %d, b %d elements", op, ErrSizeMismatch, len(dst), len(a), len(b))
	}
	parallel.Range(len(a), cfg, func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = f(a[i], b[i])
		}
	})
	return nil
}
