// Package tensor provides float32 tensors with host storage, optional device
// mirrors and elementwise kernels.
package tensor

import (
	"fmt"

	"github.com/google/uuid"
)

// Tensor is an identified, shaped float32 container registered with a
// Controller. Its data lives in a Storage that may be mirrored on a device.
//
// Example:
//
//	ctrl := tensor.NewController(tensor.DefaultConfig())
//	t, _ := ctrl.New([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	_ = t.PromoteToDevice(gpu)
//	sum, _ := t.AddScalar(1, tensor.ModeCopy)
type Tensor struct {
	id    uuid.UUID
	shape Shape
	store *Storage
	ctrl  *Controller
}

// ID returns the tensor's identity. It is never shared with another tensor.
func (t *Tensor) ID() uuid.UUID {
	return t.id
}

// Shape returns a copy of the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape.Clone()
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return t.shape.NumElements()
}

// Residency reports whether the tensor has a device mirror.
func (t *Tensor) Residency() Residency {
	return t.store.Residency()
}

// Storage returns the underlying storage.
func (t *Tensor) Storage() *Storage {
	return t.store
}

// Controller returns the session the tensor belongs to.
func (t *Tensor) Controller() *Controller {
	return t.ctrl
}

// DeviceBuffer returns the device mirror, or nil for host-only tensors.
func (t *Tensor) DeviceBuffer() Buffer {
	return t.store.DeviceBuffer()
}

// Data returns a copy of the tensor's values, pulling device writes first.
func (t *Tensor) Data() ([]float32, error) {
	return t.store.HostData()
}

// ReadBack returns a fresh copy of the device contents (host contents for
// host-only tensors) without touching the host buffer.
func (t *Tensor) ReadBack() ([]float32, error) {
	return t.store.ReadBack()
}

// PromoteToDevice mirrors the tensor into device memory on ctx.
func (t *Tensor) PromoteToDevice(ctx ComputeContext) error {
	if err := t.store.PromoteToDevice(ctx); err != nil {
		return err
	}
	t.ctrl.logger.Debug("tensor promoted", "id", t.id, "device", ctx.Name())
	return nil
}

// ToHost drops the device mirror after syncing its contents to the host.
func (t *Tensor) ToHost() error {
	return t.store.DemoteToHost()
}

// Copy returns a new tensor with a fresh identity, the same shape and an
// independent copy of the data on the same residency.
func (t *Tensor) Copy() (*Tensor, error) {
	if err := t.ctrl.checkOpen(); err != nil {
		return nil, err
	}
	store, err := t.store.Clone()
	if err != nil {
		return nil, fmt.Errorf("copy: %w", err)
	}
	return t.ctrl.register(t.shape.Clone(), store)
}

// Release unregisters the tensor and frees its buffers.
func (t *Tensor) Release() {
	if !t.ctrl.Forget(t.id) {
		t.store.Release()
	}
}

// Apply runs op with the given mode. other is the second operand of binary
// ops and scalar the operand of scalar ops; both are ignored otherwise.
//
// In ModeCopy the result is a new registered tensor. In ModeInline the
// receiver is overwritten and returned. Binary ops fail with
// ErrShapeMismatch unless both shapes are identical, and nothing is written.
func (t *Tensor) Apply(op Op, mode Mode, other *Tensor, scalar float32) (*Tensor, error) {
	if err := t.ctrl.checkOpen(); err != nil {
		return nil, err
	}

	req := Request{
		Op:     op,
		Mode:   mode,
		A:      t.store,
		AShape: t.shape,
		Scalar: scalar,
	}
	if other != nil {
		req.B = other.store
		req.BShape = other.shape
	}

	out, err := t.ctrl.dispatcher.Apply(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if mode == ModeInline {
		return t, nil
	}
	return t.ctrl.register(t.shape.Clone(), out)
}

// Equal reports whether both tensors have the same shape and elementwise
// equal values.
func (t *Tensor) Equal(other *Tensor) (bool, error) {
	if !t.shape.Equal(other.shape) {
		return false, nil
	}
	a, err := t.Data()
	if err != nil {
		return false, err
	}
	b, err := other.Data()
	if err != nil {
		return false, err
	}
	for i := range a {
		if a[i] != b[i] {
			return false, nil
		}
	}
	return true, nil
}

// String returns a short description of the tensor.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor(id=%s, shape=%v, %s)", t.id, t.shape, t.store.Residency())
}
