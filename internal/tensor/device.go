package tensor

// Device represents the compute device behind a ComputeContext.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// Residency tells where a tensor's data currently lives.
type Residency int

// Residency states.
const (
	HostOnly Residency = iota // Only the CPU buffer exists.
	Mirrored                  // CPU buffer plus a device buffer.
)

// String returns a human-readable residency name.
func (r Residency) String() string {
	if r == Mirrored {
		return "mirrored"
	}
	return "host"
}

// Buffer is a float32 allocation owned by a ComputeContext.
type Buffer interface {
	// Len returns the element count.
	Len() int
	// Stride returns the size of one element in bytes.
	Stride() int
	// NativePtr returns an address that identifies the underlying allocation.
	// Two live buffers never report the same address.
	NativePtr() uintptr
}

// ComputeContext is the capability a host hands to the tensor core to run
// kernels on a device. Implementations:
//   - backend/cpu: device memory emulated in separate host allocations
//   - backend/webgpu: GPU compute via WebGPU
//
// Every call is synchronous: when it returns, the write is visible to the
// next Download. dst may be the same buffer as src or a (inline mode).
type ComputeContext interface {
	Name() string
	Device() Device

	// Alloc reserves a buffer of n elements. Failures wrap ErrAllocation.
	Alloc(n int) (Buffer, error)
	// ReleaseBuffer frees a buffer obtained from Alloc.
	ReleaseBuffer(buf Buffer)

	Upload(dst Buffer, src []float32) error
	Download(src Buffer) ([]float32, error)
	CopyBuffer(dst, src Buffer) error

	RunUnary(op Op, dst, src Buffer) error
	RunScalar(op Op, dst, src Buffer, scalar float32) error
	RunBinary(op Op, dst, a, b Buffer) error
}
