package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorage_CopiesInput(t *testing.T) {
	values := []float32{1, 2, 3, 4, 5}
	s, err := NewStorage(values, Shape{5})
	require.NoError(t, err)

	values[0] = 99

	data, err := s.HostData()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4, 5}, data)
	assert.Equal(t, 5, s.Len())
	assert.Equal(t, 4, s.Stride())
	assert.Equal(t, HostOnly, s.Residency())
	assert.Nil(t, s.DeviceBuffer())
}

func TestNewStorage_SizeMismatch(t *testing.T) {
	_, err := NewStorage([]float32{1, 2, 3}, Shape{2, 2})

	require.ErrorIs(t, err, ErrSizeMismatch)
	var se *SizeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 3, se.Got)
	assert.Equal(t, Shape{2, 2}, se.Shape)
}

func TestNewStorage_InvalidShape(t *testing.T) {
	_, err := NewStorage(nil, Shape{-1})
	assert.ErrorIs(t, err, ErrInvalidShape)

	// 2^64 elements wraps to zero in an int product.
	_, err = NewStorage(nil, Shape{1 << 32, 1 << 32})
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestStorage_PromoteToDevice(t *testing.T) {
	ctx := NewMockContext()
	s, err := NewStorage([]float32{1, 2, 3}, Shape{3})
	require.NoError(t, err)

	require.NoError(t, s.PromoteToDevice(ctx))

	assert.Equal(t, Mirrored, s.Residency())
	assert.Same(t, ctx, s.Context())
	buf := s.DeviceBuffer()
	require.NotNil(t, buf)
	assert.Equal(t, 3, buf.Len())
	assert.Equal(t, 4, buf.Stride())

	data, err := s.ReadBack()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, data)
}

func TestStorage_PromoteTwiceReuploads(t *testing.T) {
	ctx := NewMockContext()
	s, err := NewStorage([]float32{1, 2}, Shape{2})
	require.NoError(t, err)

	require.NoError(t, s.PromoteToDevice(ctx))
	first := s.DeviceBuffer()
	require.NoError(t, s.PromoteToDevice(ctx))

	assert.Same(t, first, s.DeviceBuffer(), "same context keeps the buffer")
	assert.Equal(t, 1, ctx.Live())
}

func TestStorage_PromoteKeepsDeviceWrites(t *testing.T) {
	ctx := NewMockContext()
	s, err := NewStorage([]float32{1, 2}, Shape{2})
	require.NoError(t, err)
	require.NoError(t, s.PromoteToDevice(ctx))

	d := NewDispatcher(DefaultConfig().Parallel)
	_, err = d.Apply(Request{Op: OpMulScalar, Mode: ModeInline, A: s, AShape: Shape{2}, Scalar: 10})
	require.NoError(t, err)

	require.NoError(t, s.PromoteToDevice(ctx))

	data, err := s.ReadBack()
	require.NoError(t, err)
	assert.Equal(t, []float32{10, 20}, data)
}

func TestStorage_PromoteToOtherContextMoves(t *testing.T) {
	first, second := NewMockContext(), NewMockContext()
	s, err := NewStorage([]float32{1, 2}, Shape{2})
	require.NoError(t, err)

	require.NoError(t, s.PromoteToDevice(first))
	require.NoError(t, s.PromoteToDevice(second))

	assert.Same(t, second, s.Context())
	assert.Equal(t, 0, first.Live())
	assert.Equal(t, 1, second.Live())
}

func TestStorage_PromoteFailures(t *testing.T) {
	t.Run("nil context", func(t *testing.T) {
		s, err := NewStorage([]float32{1}, Shape{1})
		require.NoError(t, err)
		assert.ErrorIs(t, s.PromoteToDevice(nil), ErrNoDevice)
	})

	t.Run("allocation", func(t *testing.T) {
		ctx := &MockContext{FailAlloc: true}
		s, err := NewStorage([]float32{1}, Shape{1})
		require.NoError(t, err)

		assert.ErrorIs(t, s.PromoteToDevice(ctx), ErrAllocation)
		assert.Equal(t, HostOnly, s.Residency())
	})

	t.Run("upload releases the fresh buffer", func(t *testing.T) {
		ctx := &MockContext{FailUpload: true}
		s, err := NewStorage([]float32{1}, Shape{1})
		require.NoError(t, err)

		require.Error(t, s.PromoteToDevice(ctx))
		assert.Equal(t, HostOnly, s.Residency())
		assert.Equal(t, 1, ctx.Allocs)
		assert.Equal(t, 0, ctx.Live())
	})
}

func TestStorage_ReadBackDoesNotTouchHost(t *testing.T) {
	ctx := NewMockContext()
	s, err := NewStorage([]float32{1, 2}, Shape{2})
	require.NoError(t, err)
	require.NoError(t, s.PromoteToDevice(ctx))

	d := NewDispatcher(DefaultConfig().Parallel)
	_, err = d.Apply(Request{Op: OpNeg, Mode: ModeInline, A: s, AShape: Shape{2}})
	require.NoError(t, err)

	back, err := s.ReadBack()
	require.NoError(t, err)
	assert.Equal(t, []float32{-1, -2}, back)
	assert.Equal(t, []float32{1, 2}, s.host, "host mirror stays stale until synced")
	assert.Equal(t, deviceNewer, s.state)

	data, err := s.HostData()
	require.NoError(t, err)
	assert.Equal(t, []float32{-1, -2}, data)
	assert.Equal(t, inSync, s.state)
}

func TestStorage_CloneNeverAliases(t *testing.T) {
	ctx := NewMockContext()
	s, err := NewStorage([]float32{1, 2, 3}, Shape{3})
	require.NoError(t, err)

	hostClone, err := s.Clone()
	require.NoError(t, err)
	assert.NotSame(t, &s.host[0], &hostClone.host[0])
	assert.Equal(t, HostOnly, hostClone.Residency())

	require.NoError(t, s.PromoteToDevice(ctx))
	devClone, err := s.Clone()
	require.NoError(t, err)

	assert.Equal(t, Mirrored, devClone.Residency())
	assert.Equal(t, s.DeviceBuffer().Len(), devClone.DeviceBuffer().Len())
	assert.Equal(t, s.DeviceBuffer().Stride(), devClone.DeviceBuffer().Stride())
	assert.NotEqual(t, s.DeviceBuffer().NativePtr(), devClone.DeviceBuffer().NativePtr())

	data, err := devClone.ReadBack()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, data)
}

func TestStorage_CloneAllocationFailure(t *testing.T) {
	ctx := NewMockContext()
	s, err := NewStorage([]float32{1}, Shape{1})
	require.NoError(t, err)
	require.NoError(t, s.PromoteToDevice(ctx))

	ctx.FailAlloc = true
	_, err = s.Clone()
	assert.ErrorIs(t, err, ErrAllocation)
	assert.Equal(t, 1, ctx.Live())
}

func TestStorage_DemoteToHost(t *testing.T) {
	ctx := NewMockContext()
	s, err := NewStorage([]float32{1, 2}, Shape{2})
	require.NoError(t, err)
	require.NoError(t, s.PromoteToDevice(ctx))

	d := NewDispatcher(DefaultConfig().Parallel)
	_, err = d.Apply(Request{Op: OpAddScalar, Mode: ModeInline, A: s, AShape: Shape{2}, Scalar: 1})
	require.NoError(t, err)

	require.NoError(t, s.DemoteToHost())

	assert.Equal(t, HostOnly, s.Residency())
	assert.Equal(t, 0, ctx.Live())
	data, err := s.HostData()
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 3}, data)
}

func TestStorage_Release(t *testing.T) {
	ctx := NewMockContext()
	s, err := NewStorage([]float32{1}, Shape{1})
	require.NoError(t, err)
	require.NoError(t, s.PromoteToDevice(ctx))

	s.Release()
	s.Release()

	assert.True(t, s.Released())
	assert.Equal(t, 0, ctx.Live())
	assert.Equal(t, 1, ctx.Releases)

	_, err = s.HostData()
	assert.ErrorIs(t, err, ErrReleased)
	_, err = s.ReadBack()
	assert.ErrorIs(t, err, ErrReleased)
	_, err = s.Clone()
	assert.ErrorIs(t, err, ErrReleased)
	assert.ErrorIs(t, s.PromoteToDevice(ctx), ErrReleased)
	assert.ErrorIs(t, s.SyncToHost(), ErrReleased)
	assert.ErrorIs(t, s.DemoteToHost(), ErrReleased)
}
