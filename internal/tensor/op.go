package tensor

// Op identifies an elementwise kernel.
type Op int

// Unary operations: result[i] = f(x[i]).
const (
	OpNeg Op = iota
	OpAbs
	OpCos
	OpSin
	OpTan
	OpExp
	OpLog
	OpSqrt
	OpRsqrt
	OpTanh
	OpSigmoid
	OpCeil
	OpFloor
	OpRound
	OpSign

	// Scalar operations: result[i] = x[i] OP scalar.
	OpAddScalar
	OpSubScalar
	OpMulScalar
	OpDivScalar
	OpPowScalar
	OpFill // result[i] = scalar

	// Binary operations: result[i] = a[i] OP b[i].
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpPow

	opCount
)

var opNames = [opCount]string{
	OpNeg:       "neg",
	OpAbs:       "abs",
	OpCos:       "cos",
	OpSin:       "sin",
	OpTan:       "tan",
	OpExp:       "exp",
	OpLog:       "log",
	OpSqrt:      "sqrt",
	OpRsqrt:     "rsqrt",
	OpTanh:      "tanh",
	OpSigmoid:   "sigmoid",
	OpCeil:      "ceil",
	OpFloor:     "floor",
	OpRound:     "round",
	OpSign:      "sign",
	OpAddScalar: "addScalar",
	OpSubScalar: "subScalar",
	OpMulScalar: "mulScalar",
	OpDivScalar: "divScalar",
	OpPowScalar: "powScalar",
	OpFill:      "fill",
	OpAdd:       "add",
	OpSub:       "sub",
	OpMul:       "mul",
	OpDiv:       "div",
	OpPow:       "pow",
}

// String returns the operation name.
func (o Op) String() string {
	if o < 0 || o >= opCount {
		return "unknown"
	}
	return opNames[o]
}

// Arity describes the operands an Op consumes.
type Arity int

// Operand layouts.
const (
	ArityInvalid Arity = iota
	ArityUnary
	ArityScalar
	ArityBinary
)

// Arity returns the operand layout of the operation.
func (o Op) Arity() Arity {
	switch {
	case o >= OpNeg && o <= OpSign:
		return ArityUnary
	case o >= OpAddScalar && o <= OpFill:
		return ArityScalar
	case o >= OpAdd && o <= OpPow:
		return ArityBinary
	default:
		return ArityInvalid
	}
}

// Mode selects where an operation writes its result.
type Mode int

// Operation modes.
const (
	// ModeCopy allocates a new tensor for the result; operands are untouched.
	ModeCopy Mode = iota
	// ModeInline writes into the receiver and returns it.
	ModeInline
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeInline {
		return "inline"
	}
	return "copy"
}
