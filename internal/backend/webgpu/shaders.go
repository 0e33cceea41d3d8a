package webgpu

import (
	"fmt"
	"strings"

	"github.com/born-ml/floattensor/internal/tensor"
)

// WGSL compute shaders for elementwise operations. Each op contributes an
// expression in x (unary, scalar) or a and b (binary); the layout templates
// below wrap it into a kernel.

// workgroupSize is the default number of threads per workgroup.
const workgroupSize = 256

// variant selects the binding layout of a kernel.
type variant int

const (
	// variantCopy reads the inputs and writes a separate result.
	variantCopy variant = iota
	// variantInline reads and writes the receiver; a binary rhs stays read-only.
	variantInline
	// variantInlineSelf is a binary op whose operands and result coincide.
	variantInlineSelf
)

func (v variant) String() string {
	switch v {
	case variantInline:
		return "inline"
	case variantInlineSelf:
		return "self"
	default:
		return "copy"
	}
}

// opExpressions maps each op to its WGSL expression.
var opExpressions = map[tensor.Op]string{
	tensor.OpNeg:     "-x",
	tensor.OpAbs:     "abs(x)",
	tensor.OpCos:     "cos(x)",
	tensor.OpSin:     "sin(x)",
	tensor.OpTan:     "tan(x)",
	tensor.OpExp:     "exp(x)",
	tensor.OpLog:     "log(x)",
	tensor.OpSqrt:    "sqrt(x)",
	tensor.OpRsqrt:   "inverseSqrt(x)",
	tensor.OpTanh:    "tanh(x)",
	tensor.OpSigmoid: "1.0 / (1.0 + exp(-x))",
	tensor.OpCeil:    "ceil(x)",
	tensor.OpFloor:   "floor(x)",
	tensor.OpRound:   "select(trunc(x), trunc(x) + sign(x), abs(x - trunc(x)) >= 0.5)", // halves away from zero
	tensor.OpSign:    "sign(x)",

	tensor.OpAddScalar: "x + params.scalar",
	tensor.OpSubScalar: "x - params.scalar",
	tensor.OpMulScalar: "x * params.scalar",
	tensor.OpDivScalar: "x / params.scalar",
	tensor.OpPowScalar: "pow(x, params.scalar)",
	tensor.OpFill:      "select(params.scalar, x, false)", // keeps the input binding live

	tensor.OpAdd: "a + b",
	tensor.OpSub: "a - b",
	tensor.OpMul: "a * b",
	tensor.OpDiv: "a / b",
	tensor.OpPow: "pow(a, b)",
}

// paramsStruct is shared by every kernel. Padded to 16 bytes for uniform
// layout rules.
const paramsStruct = `
struct Params {
    size: u32,
    scalar: f32,
    row: u32,
    _pad: u32,
}
`

// kernelHeader computes the flat index. Large tensors dispatch a 2D grid of
// workgroups; params.row is the number of invocations per grid row.
const kernelHeader = `
@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let idx = gid.y * params.row + gid.x;
    if (idx >= params.size) {
        return;
    }
`

const unaryCopyLayout = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;
@group(0) @binding(2) var<uniform> params: Params;
`

const unaryInlineLayout = `
@group(0) @binding(0) var<storage, read_write> data: array<f32>;
@group(0) @binding(1) var<uniform> params: Params;
`

const binaryCopyLayout = `
@group(0) @binding(0) var<storage, read> lhs: array<f32>;
@group(0) @binding(1) var<storage, read> rhs: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;
@group(0) @binding(3) var<uniform> params: Params;
`

const binaryInlineLayout = `
@group(0) @binding(0) var<storage, read_write> data: array<f32>;
@group(0) @binding(1) var<storage, read> rhs: array<f32>;
@group(0) @binding(2) var<uniform> params: Params;
`

// generateShader returns the WGSL source for op in the given variant.
func generateShader(op tensor.Op, v variant) (string, error) {
	expr, ok := opExpressions[op]
	if !ok {
		return "", fmt.Errorf("webgpu: %w: %s", tensor.ErrUnsupportedOp, op)
	}

	var sb strings.Builder
	sb.WriteString(paramsStruct)

	switch op.Arity() {
	case tensor.ArityUnary, tensor.ArityScalar:
		switch v {
		case variantCopy:
			sb.WriteString(unaryCopyLayout)
			sb.WriteString(kernelHeader)
			sb.WriteString("    let x = input[idx];\n")
			fmt.Fprintf(&sb, "    result[idx] = %s;\n", expr)
		case variantInline:
			sb.WriteString(unaryInlineLayout)
			sb.WriteString(kernelHeader)
			sb.WriteString("    let x = data[idx];\n")
			fmt.Fprintf(&sb, "    data[idx] = %s;\n", expr)
		default:
			return "", fmt.Errorf("webgpu: %w: %s has no %s variant", tensor.ErrUnsupportedOp, op, v)
		}
	case tensor.ArityBinary:
		switch v {
		case variantCopy:
			sb.WriteString(binaryCopyLayout)
			sb.WriteString(kernelHeader)
			sb.WriteString("    let a = lhs[idx];\n    let b = rhs[idx];\n")
			fmt.Fprintf(&sb, "    result[idx] = %s;\n", expr)
		case variantInline:
			sb.WriteString(binaryInlineLayout)
			sb.WriteString(kernelHeader)
			sb.WriteString("    let a = data[idx];\n    let b = rhs[idx];\n")
			fmt.Fprintf(&sb, "    data[idx] = %s;\n", expr)
		case variantInlineSelf:
			sb.WriteString(unaryInlineLayout)
			sb.WriteString(kernelHeader)
			sb.WriteString("    let a = data[idx];\n    let b = a;\n")
			fmt.Fprintf(&sb, "    data[idx] = %s;\n", expr)
		}
	default:
		return "", fmt.Errorf("webgpu: %w: op %d", tensor.ErrUnsupportedOp, op)
	}

	sb.WriteString("}\n")
	return sb.String(), nil
}

// shaderKey names the cache entry for op in variant v.
func shaderKey(op tensor.Op, v variant) string {
	return op.String() + "/" + v.String()
}
