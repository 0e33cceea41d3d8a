package tensor

import (
	"fmt"
	"unsafe"
)

// Verify that MockContext implements ComputeContext.
var _ ComputeContext = (*MockContext)(nil)

// MockContext is a minimal ComputeContext for testing.
// Device memory is plain host slices, kernels run sequentially, and each
// stage can be made to fail.
type MockContext struct {
	FailAlloc  bool
	FailUpload bool
	FailKernel bool

	Allocs   int // Successful Alloc calls.
	Releases int // ReleaseBuffer calls.
	Kernels  int // Kernel calls that ran.
}

// mockBuffer is a MockContext allocation.
type mockBuffer struct {
	data []float32
}

func (b *mockBuffer) Len() int    { return len(b.data) }
func (b *mockBuffer) Stride() int { return elementStride }

func (b *mockBuffer) NativePtr() uintptr {
	//nolint:gosec // address used as identity only
	return uintptr(unsafe.Pointer(unsafe.SliceData(b.data[:cap(b.data)])))
}

// NewMockContext creates a new MockContext.
func NewMockContext() *MockContext {
	return &MockContext{}
}

// Name returns the context name.
func (m *MockContext) Name() string {
	return "mock"
}

// Device returns the device type.
func (m *MockContext) Device() Device {
	return CPU
}

// Live returns the number of buffers allocated and not yet released.
func (m *MockContext) Live() int {
	return m.Allocs - m.Releases
}

// Alloc allocates a zeroed buffer.
func (m *MockContext) Alloc(n int) (Buffer, error) {
	if m.FailAlloc {
		return nil, fmt.Errorf("mock: %w: %d elements", ErrAllocation, n)
	}
	m.Allocs++
	// Capacity of at least one keeps zero-length buffers at distinct addresses.
	return &mockBuffer{data: make([]float32, n, max(n, 1))}, nil
}

// ReleaseBuffer frees a buffer.
func (m *MockContext) ReleaseBuffer(buf Buffer) {
	m.Releases++
	if b, ok := buf.(*mockBuffer); ok {
		b.data = nil
	}
}

// Upload copies src into dst.
func (m *MockContext) Upload(dst Buffer, src []float32) error {
	if m.FailUpload {
		return fmt.Errorf("mock: upload failed")
	}
	copy(dst.(*mockBuffer).data, src)
	return nil
}

// Download returns a copy of src.
func (m *MockContext) Download(src Buffer) ([]float32, error) {
	data := src.(*mockBuffer).data
	out := make([]float32, len(data))
	copy(out, data)
	return out, nil
}

// CopyBuffer copies src into dst.
func (m *MockContext) CopyBuffer(dst, src Buffer) error {
	copy(dst.(*mockBuffer).data, src.(*mockBuffer).data)
	return nil
}

// RunUnary runs a unary kernel.
func (m *MockContext) RunUnary(op Op, dst, src Buffer) error {
	if m.FailKernel {
		return fmt.Errorf("mock: kernel %s failed", op)
	}
	m.Kernels++
	f, ok := UnaryFunc(op)
	if !ok {
		return fmt.Errorf("mock: %w: %s", ErrUnsupportedOp, op)
	}
	d, s := dst.(*mockBuffer).data, src.(*mockBuffer).data
	for i, v := range s {
		d[i] = f(v)
	}
	return nil
}

// RunScalar runs a scalar kernel.
func (m *MockContext) RunScalar(op Op, dst, src Buffer, scalar float32) error {
	if m.FailKernel {
		return fmt.Errorf("mock: kernel %s failed", op)
	}
	m.Kernels++
	f, ok := ScalarFunc(op)
	if !ok {
		return fmt.Errorf("mock: %w: %s", ErrUnsupportedOp, op)
	}
	d, s := dst.(*mockBuffer).data, src.(*mockBuffer).data
	for i, v := range s {
		d[i] = f(v, scalar)
	}
	return nil
}

// RunBinary runs a binary kernel.
func (m *MockContext) RunBinary(op Op, dst, a, b Buffer) error {
	if m.FailKernel {
		return fmt.Errorf("mock: kernel %s failed", op)
	}
	m.Kernels++
	f, ok := BinaryFunc(op)
	if !ok {
		return fmt.Errorf("mock: %w: %s", ErrUnsupportedOp, op)
	}
	d, x, y := dst.(*mockBuffer).data, a.(*mockBuffer).data, b.(*mockBuffer).data
	for i := range x {
		d[i] = f(x[i], y[i])
	}
	return nil
}
