package tensor

import (
	"fmt"

	"github.com/born-ml/floattensor/internal/parallel"
)

// Request describes one kernel invocation.
type Request struct {
	Op     Op
	Mode   Mode
	A      *Storage // Receiver; written in ModeInline.
	B      *Storage // Second operand of binary ops, nil otherwise.
	AShape Shape
	BShape Shape
	Scalar float32 // Operand of scalar ops.
}

func (r *Request) validate() error {
	if r.A == nil {
		return fmt.Errorf("%w: missing receiver", ErrUnsupportedOp)
	}
	if r.Mode != ModeCopy && r.Mode != ModeInline {
		return fmt.Errorf("%w: mode %d", ErrUnsupportedOp, r.Mode)
	}

	switch r.Op.Arity() {
	case ArityUnary, ArityScalar:
		r.B = nil
		return nil
	case ArityBinary:
		if r.B == nil {
			return fmt.Errorf("%w: %s needs a second operand", ErrUnsupportedOp, r.Op)
		}
		return ValidateBinary(r.AShape, r.BShape)
	default:
		return fmt.Errorf("%w: op %d", ErrUnsupportedOp, r.Op)
	}
}

// Dispatcher routes elementwise operations to host kernels or to the
// ComputeContext that holds the operands.
type Dispatcher struct {
	cfg parallel.Config
}

// NewDispatcher creates a Dispatcher whose host kernels use cfg.
func NewDispatcher(cfg parallel.Config) *Dispatcher {
	return &Dispatcher{cfg: cfg}
}

// Apply runs the request.
//
// All validation happens before any buffer is allocated or written, so a
// failed call leaves both operands untouched. In ModeCopy the result is a
// new Storage with the receiver's residency. In ModeInline the receiver is
// overwritten and returned.
func (d *Dispatcher) Apply(req Request) (*Storage, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	unlock := lockPair(req.A, req.B)
	defer unlock()

	if req.A.released || (req.B != nil && req.B.released) {
		return nil, ErrReleased
	}
	if req.B != nil {
		if err := checkResidency(req.A, req.B); err != nil {
			return nil, err
		}
	}

	if req.A.buf == nil {
		return d.applyHost(req)
	}
	return d.applyDevice(req)
}

// checkResidency rejects mixed host/device operands and operands on
// different contexts.
func checkResidency(a, b *Storage) error {
	if (a.buf == nil) != (b.buf == nil) {
		return fmt.Errorf("%w: %s operand with %s operand",
			ErrResidencyMismatch, residencyOf(a), residencyOf(b))
	}
	if a.buf != nil && a.ctx != b.ctx {
		return fmt.Errorf("%w: %s vs %s", ErrResidencyMismatch, a.ctx.Name(), b.ctx.Name())
	}
	return nil
}

func residencyOf(s *Storage) Residency {
	if s.buf != nil {
		return Mirrored
	}
	return HostOnly
}

func (d *Dispatcher) applyHost(req Request) (*Storage, error) {
	a := req.A
	dst := a.host
	if req.Mode == ModeCopy {
		dst = make([]float32, len(a.host))
	}

	var err error
	switch req.Op.Arity() {
	case ArityUnary:
		err = UnaryKernel(req.Op, dst, a.host, d.cfg)
	case ArityScalar:
		err = ScalarKernel(req.Op, dst, a.host, req.Scalar, d.cfg)
	case ArityBinary:
		err = BinaryKernel(req.Op, dst, a.host, req.B.host, d.cfg)
	}
	if err != nil {
		return nil, err
	}

	if req.Mode == ModeInline {
		return a, nil
	}
	return newStorage(dst), nil
}

func (d *Dispatcher) applyDevice(req Request) (*Storage, error) {
	a := req.A
	ctx := a.ctx
	n := len(a.host)

	dst := a.buf
	var fresh Buffer
	if req.Mode == ModeCopy {
		buf, err := ctx.Alloc(n)
		if err != nil {
			return nil, err
		}
		fresh, dst = buf, buf
	}

	var err error
	switch req.Op.Arity() {
	case ArityUnary:
		err = ctx.RunUnary(req.Op, dst, a.buf)
	case ArityScalar:
		err = ctx.RunScalar(req.Op, dst, a.buf, req.Scalar)
	case ArityBinary:
		err = ctx.RunBinary(req.Op, dst, a.buf, req.B.buf)
	}
	if err != nil {
		if fresh != nil {
			ctx.ReleaseBuffer(fresh)
		}
		return nil, err
	}

	if req.Mode == ModeInline {
		a.state = deviceNewer
		return a, nil
	}

	out := newStorage(make([]float32, n))
	out.ctx = ctx
	out.buf = fresh
	out.state = deviceNewer
	return out, nil
}
