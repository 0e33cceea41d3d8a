package tensor

import (
	"math"
	"testing"

	"github.com/born-ml/floattensor/internal/parallel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-6

func TestOpArity(t *testing.T) {
	for op := OpNeg; op < opCount; op++ {
		assert.NotEqual(t, ArityInvalid, op.Arity(), "op %s", op)
		assert.NotEqual(t, "unknown", op.String(), "op %d", int(op))
	}
	assert.Equal(t, ArityInvalid, Op(-1).Arity())
	assert.Equal(t, ArityInvalid, opCount.Arity())
	assert.Equal(t, ArityUnary, OpCos.Arity())
	assert.Equal(t, ArityScalar, OpAddScalar.Arity())
	assert.Equal(t, ArityBinary, OpAdd.Arity())
}

func TestUnaryKernel(t *testing.T) {
	src := []float32{0.4, 0.5, 0.3, -0.1}

	tests := []struct {
		op  Op
		ref func(float64) float64
	}{
		{OpCos, math.Cos},
		{OpSin, math.Sin},
		{OpTan, math.Tan},
		{OpExp, math.Exp},
		{OpTanh, math.Tanh},
		{OpAbs, math.Abs},
		{OpCeil, math.Ceil},
		{OpFloor, math.Floor},
		{OpNeg, func(x float64) float64 { return -x }},
		{OpSigmoid, func(x float64) float64 { return 1 / (1 + math.Exp(-x)) }},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			dst := make([]float32, len(src))
			require.NoError(t, UnaryKernel(tt.op, dst, src, parallel.Sequential()))
			for i, v := range src {
				assert.Equal(t, float32(tt.ref(float64(v))), dst[i], "%s(%v)", tt.op, v)
			}
		})
	}
}

func TestUnaryKernel_CosMatchesReference(t *testing.T) {
	src := []float32{0.4, 0.5, 0.3, -0.1}
	expected := []float32{0.92106099, 0.87758256, 0.95533649, 0.99500417}

	dst := make([]float32, len(src))
	require.NoError(t, UnaryKernel(OpCos, dst, src, parallel.Sequential()))

	assert.InDeltaSlice(t, expected, dst, epsilon)
}

func TestUnaryKernel_Reproducible(t *testing.T) {
	src := make([]float32, 10000)
	for i := range src {
		src[i] = float32(i)*0.001 - 5
	}

	seq := make([]float32, len(src))
	par := make([]float32, len(src))
	require.NoError(t, UnaryKernel(OpCos, seq, src, parallel.Sequential()))
	require.NoError(t, UnaryKernel(OpCos, par, src, parallel.Config{Enabled: true, NumWorkers: 8, MinChunkSize: 16}))

	assert.Equal(t, seq, par, "parallel and sequential results must be bit-identical")
}

func TestUnaryKernel_Specials(t *testing.T) {
	src := []float32{-2, -0.5, 0.5, 2.5, 0}
	dst := make([]float32, len(src))

	require.NoError(t, UnaryKernel(OpRound, dst, src, parallel.Sequential()))
	assert.Equal(t, []float32{-2, -1, 1, 3, 0}, dst)

	// Largest float32 below one half; x + 0.5 would round up to 1.
	below := math.Nextafter32(0.5, 0)
	require.NoError(t, UnaryKernel(OpRound, dst[:2], []float32{below, -below}, parallel.Sequential()))
	assert.Equal(t, []float32{0, 0}, dst[:2])

	require.NoError(t, UnaryKernel(OpSign, dst, src, parallel.Sequential()))
	assert.Equal(t, []float32{-1, -1, 1, 1, 0}, dst)

	require.NoError(t, UnaryKernel(OpRsqrt, dst[:1], []float32{4}, parallel.Sequential()))
	assert.Equal(t, float32(0.5), dst[0])

	require.NoError(t, UnaryKernel(OpLog, dst[:2], []float32{0, -1}, parallel.Sequential()))
	assert.True(t, math.IsInf(float64(dst[0]), -1), "log(0) = %v", dst[0])
	assert.True(t, math.IsNaN(float64(dst[1])), "log(-1) = %v", dst[1])
}

func TestScalarKernel_Saturation(t *testing.T) {
	src := []float32{-1, 0, 0.1, 1, math.MaxFloat32, -math.MaxFloat32}
	expected := []float32{-101, -100, -99.9, -99, math.MaxFloat32 - 100, -math.MaxFloat32 - 100}

	dst := make([]float32, len(src))
	require.NoError(t, ScalarKernel(OpAddScalar, dst, src, -100, parallel.Sequential()))

	assert.Equal(t, expected, dst)
}

func TestScalarKernel(t *testing.T) {
	src := []float32{1, 2, 4}

	tests := []struct {
		op       Op
		scalar   float32
		expected []float32
	}{
		{OpAddScalar, 1, []float32{2, 3, 5}},
		{OpSubScalar, 1, []float32{0, 1, 3}},
		{OpMulScalar, 2, []float32{2, 4, 8}},
		{OpDivScalar, 2, []float32{0.5, 1, 2}},
		{OpPowScalar, 2, []float32{1, 4, 16}},
		{OpFill, 7, []float32{7, 7, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			dst := make([]float32, len(src))
			require.NoError(t, ScalarKernel(tt.op, dst, src, tt.scalar, parallel.Sequential()))
			assert.Equal(t, tt.expected, dst)
		})
	}
}

func TestBinaryKernel(t *testing.T) {
	a := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	b := []float32{3, 2, 6, 9, 10, 1, 4, 8, 5, 7}

	dst := make([]float32, len(a))
	require.NoError(t, BinaryKernel(OpAdd, dst, a, b, parallel.Sequential()))
	assert.Equal(t, []float32{4, 4, 9, 13, 15, 7, 11, 16, 14, 17}, dst)

	require.NoError(t, BinaryKernel(OpSub, dst, a, b, parallel.Sequential()))
	assert.Equal(t, []float32{-2, 0, -3, -5, -5, 5, 3, 0, 4, 3}, dst)

	require.NoError(t, BinaryKernel(OpMul, dst[:3], a[:3], b[:3], parallel.Sequential()))
	assert.Equal(t, []float32{3, 4, 18}, dst[:3])

	require.NoError(t, BinaryKernel(OpDiv, dst[:2], []float32{1, 9}, []float32{2, 3}, parallel.Sequential()))
	assert.Equal(t, []float32{0.5, 3}, dst[:2])

	require.NoError(t, BinaryKernel(OpPow, dst[:2], []float32{2, 3}, []float32{3, 2}, parallel.Sequential()))
	assert.Equal(t, []float32{8, 9}, dst[:2])
}

func TestBinaryKernel_InPlace(t *testing.T) {
	a := []float32{1, 2, 3}
	require.NoError(t, BinaryKernel(OpAdd, a, a, a, parallel.Sequential()))
	assert.Equal(t, []float32{2, 4, 6}, a)
}

func TestKernels_RejectWrongArity(t *testing.T) {
	dst := make([]float32, 2)
	src := []float32{1, 2}

	assert.ErrorIs(t, UnaryKernel(OpAdd, dst, src, parallel.Sequential()), ErrUnsupportedOp)
	assert.ErrorIs(t, ScalarKernel(OpCos, dst, src, 1, parallel.Sequential()), ErrUnsupportedOp)
	assert.ErrorIs(t, BinaryKernel(OpAddScalar, dst, src, src, parallel.Sequential()), ErrUnsupportedOp)
}

func TestKernels_RejectLengthMismatch(t *testing.T) {
	dst := make([]float32, 3)
	src := []float32{1, 2}

	assert.ErrorIs(t, UnaryKernel(OpCos, dst, src, parallel.Sequential()), ErrSizeMismatch)
	assert.ErrorIs(t, ScalarKernel(OpAddScalar, dst, src, 1, parallel.Sequential()), ErrSizeMismatch)
	assert.ErrorIs(t, BinaryKernel(OpAdd, dst, src, src, parallel.Sequential()), ErrSizeMismatch)
}
