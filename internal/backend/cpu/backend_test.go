package cpu

import (
	"math"
	"testing"

	"github.com/born-ml/floattensor/internal/parallel"
	"github.com/born-ml/floattensor/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext() *Context {
	return NewWithConfig(Config{Parallel: parallel.Sequential()})
}

// TestContext_New tests context creation.
func TestContext_New(t *testing.T) {
	ctx := New()
	require.NotNil(t, ctx)
	assert.Equal(t, "CPU", ctx.Name())
	assert.Equal(t, tensor.CPU, ctx.Device())
}

// TestContext_AllocUploadDownload tests the buffer round trip.
func TestContext_AllocUploadDownload(t *testing.T) {
	ctx := newTestContext()

	buf, err := ctx.Alloc(3)
	require.NoError(t, err)
	assert.Equal(t, 3, buf.Len())
	assert.Equal(t, 4, buf.Stride())
	assert.NotZero(t, buf.NativePtr())

	require.NoError(t, ctx.Upload(buf, []float32{1, 2, 3}))
	data, err := ctx.Download(buf)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, data)

	data[0] = 99
	again, err := ctx.Download(buf)
	require.NoError(t, err)
	assert.Equal(t, float32(1), again[0], "download must return a copy")

	assert.ErrorIs(t, ctx.Upload(buf, []float32{1}), tensor.ErrSizeMismatch)
}

// TestContext_ZeroLength tests that empty buffers stay distinct.
func TestContext_ZeroLength(t *testing.T) {
	ctx := newTestContext()

	a, err := ctx.Alloc(0)
	require.NoError(t, err)
	b, err := ctx.Alloc(0)
	require.NoError(t, err)

	assert.Equal(t, 0, a.Len())
	assert.NotEqual(t, a.NativePtr(), b.NativePtr())
}

// TestContext_ForeignBuffer tests that buffers cannot cross contexts.
func TestContext_ForeignBuffer(t *testing.T) {
	a, b := newTestContext(), newTestContext()
	buf, err := a.Alloc(2)
	require.NoError(t, err)

	_, err = b.Download(buf)
	assert.ErrorIs(t, err, errForeignBuffer)
	assert.ErrorIs(t, b.Upload(buf, []float32{1, 2}), errForeignBuffer)
	assert.ErrorIs(t, b.RunUnary(tensor.OpNeg, buf, buf), errForeignBuffer)

	b.ReleaseBuffer(buf)
	assert.Equal(t, int64(1), a.MemoryStats().ActiveBuffers)
}

// TestContext_MemoryStats tests allocation accounting.
func TestContext_MemoryStats(t *testing.T) {
	ctx := newTestContext()

	a, err := ctx.Alloc(10)
	require.NoError(t, err)
	b, err := ctx.Alloc(5)
	require.NoError(t, err)

	stats := ctx.MemoryStats()
	assert.Equal(t, uint64(60), stats.LiveBytes)
	assert.Equal(t, uint64(60), stats.PeakBytes)
	assert.Equal(t, int64(2), stats.ActiveBuffers)
	assert.Equal(t, uint64(2), stats.Allocations)

	ctx.ReleaseBuffer(a)
	ctx.ReleaseBuffer(a)
	stats = ctx.MemoryStats()
	assert.Equal(t, uint64(20), stats.LiveBytes)
	assert.Equal(t, uint64(60), stats.PeakBytes)
	assert.Equal(t, uint64(60), stats.TotalAllocatedBytes)
	assert.Equal(t, int64(1), stats.ActiveBuffers)

	ctx.ReleaseBuffer(b)
	assert.Equal(t, uint64(0), ctx.MemoryStats().LiveBytes)
}

// TestContext_MemoryLimit tests that the limit surfaces as ErrAllocation.
func TestContext_MemoryLimit(t *testing.T) {
	ctx := NewWithConfig(Config{Parallel: parallel.Sequential(), MemoryLimit: 16})

	a, err := ctx.Alloc(4)
	require.NoError(t, err)

	_, err = ctx.Alloc(1)
	require.ErrorIs(t, err, tensor.ErrAllocation)

	ctx.ReleaseBuffer(a)
	_, err = ctx.Alloc(4)
	assert.NoError(t, err)

	_, err = ctx.Alloc(-1)
	assert.ErrorIs(t, err, tensor.ErrAllocation)
}

// TestContext_Kernels tests kernel execution on device buffers.
func TestContext_Kernels(t *testing.T) {
	ctx := newTestContext()

	upload := func(values ...float32) tensor.Buffer {
		t.Helper()
		buf, err := ctx.Alloc(len(values))
		require.NoError(t, err)
		require.NoError(t, ctx.Upload(buf, values))
		return buf
	}
	download := func(buf tensor.Buffer) []float32 {
		t.Helper()
		data, err := ctx.Download(buf)
		require.NoError(t, err)
		return data
	}

	a := upload(1, 2, 3)
	b := upload(4, 5, 6)
	dst := upload(0, 0, 0)

	require.NoError(t, ctx.RunBinary(tensor.OpAdd, dst, a, b))
	assert.Equal(t, []float32{5, 7, 9}, download(dst))

	require.NoError(t, ctx.RunScalar(tensor.OpMulScalar, dst, a, 2))
	assert.Equal(t, []float32{2, 4, 6}, download(dst))

	require.NoError(t, ctx.RunUnary(tensor.OpNeg, a, a))
	assert.Equal(t, []float32{-1, -2, -3}, download(a))

	require.NoError(t, ctx.RunBinary(tensor.OpMul, b, b, b))
	assert.Equal(t, []float32{16, 25, 36}, download(b))

	require.NoError(t, ctx.CopyBuffer(dst, b))
	assert.Equal(t, []float32{16, 25, 36}, download(dst))

	assert.ErrorIs(t, ctx.RunUnary(tensor.OpAdd, dst, a), tensor.ErrUnsupportedOp)
}

// TestContext_Controller runs tensor operations end to end on this context.
func TestContext_Controller(t *testing.T) {
	ctx := newTestContext()
	ctrl := tensor.NewController(tensor.DefaultConfig())
	defer func() { _ = ctrl.Close() }()

	x, err := ctrl.New([]float32{-1, 0, 0.1, 1, math.MaxFloat32, -math.MaxFloat32}, tensor.Shape{3, 2})
	require.NoError(t, err)
	require.NoError(t, x.PromoteToDevice(ctx))

	y, err := x.AddScalar(-100, tensor.ModeCopy)
	require.NoError(t, err)
	assert.Equal(t, tensor.Mirrored, y.Residency())

	got, err := y.Data()
	require.NoError(t, err)
	assert.Equal(t, []float32{-101, -100, -99.9, -99, math.MaxFloat32 - 100, -math.MaxFloat32 - 100}, got)

	a, err := ctrl.New([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	require.NoError(t, err)
	b, err := ctrl.New([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2})
	require.NoError(t, err)
	require.NoError(t, a.PromoteToDevice(ctx))
	require.NoError(t, b.PromoteToDevice(ctx))

	before := ctx.MemoryStats().Allocations
	_, err = a.Add(b, tensor.ModeCopy)
	require.ErrorIs(t, err, tensor.ErrShapeMismatch)
	assert.Equal(t, before, ctx.MemoryStats().Allocations, "shape mismatch must not allocate")

	require.NoError(t, ctrl.Close())
	assert.Equal(t, int64(0), ctx.MemoryStats().ActiveBuffers)
}

// TestContext_Parallel tests that parallel kernels match sequential output.
func TestContext_Parallel(t *testing.T) {
	seq := newTestContext()
	par := NewWithConfig(Config{Parallel: parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 64}})

	values := make([]float32, 5000)
	for i := range values {
		values[i] = float32(i) * 0.01
	}

	run := func(ctx *Context) []float32 {
		t.Helper()
		src, err := ctx.Alloc(len(values))
		require.NoError(t, err)
		require.NoError(t, ctx.Upload(src, values))
		dst, err := ctx.Alloc(len(values))
		require.NoError(t, err)
		require.NoError(t, ctx.RunUnary(tensor.OpSin, dst, src))
		out, err := ctx.Download(dst)
		require.NoError(t, err)
		return out
	}

	assert.Equal(t, run(seq), run(par))
}

func BenchmarkContext_AddScalar(b *testing.B) {
	ctx := New()
	src, _ := ctx.Alloc(1 << 20)
	dst, _ := ctx.Alloc(1 << 20)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ctx.RunScalar(tensor.OpAddScalar, dst, src, 1)
	}
}
