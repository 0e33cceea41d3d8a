package webgpu

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/born-ml/floattensor/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateShader_EveryOp(t *testing.T) {
	for op := tensor.OpNeg; op.Arity() != tensor.ArityInvalid; op++ {
		variants := []variant{variantCopy, variantInline}
		if op.Arity() == tensor.ArityBinary {
			variants = append(variants, variantInlineSelf)
		}
		for _, v := range variants {
			code, err := generateShader(op, v)
			require.NoError(t, err, "%s/%s", op, v)
			assert.Contains(t, code, "@compute @workgroup_size(256)")
			assert.Contains(t, code, "var<uniform> params: Params")
			assert.Contains(t, code, opExpressions[op])
			assert.Equal(t, strings.Count(code, "{"), strings.Count(code, "}"), "%s/%s braces", op, v)
		}
	}
}

func TestGenerateShader_Layouts(t *testing.T) {
	code, err := generateShader(tensor.OpCos, variantCopy)
	require.NoError(t, err)
	assert.Contains(t, code, "var<storage, read> input")
	assert.Contains(t, code, "result[idx] = cos(x);")

	code, err = generateShader(tensor.OpAddScalar, variantInline)
	require.NoError(t, err)
	assert.Contains(t, code, "var<storage, read_write> data")
	assert.NotContains(t, code, "input")
	assert.Contains(t, code, "data[idx] = x + params.scalar;")

	code, err = generateShader(tensor.OpAdd, variantInline)
	require.NoError(t, err)
	assert.Contains(t, code, "var<storage, read> rhs")
	assert.Contains(t, code, "data[idx] = a + b;")

	code, err = generateShader(tensor.OpMul, variantInlineSelf)
	require.NoError(t, err)
	assert.NotContains(t, code, "rhs")
	assert.Contains(t, code, "let b = a;")
}

func TestGenerateShader_RoundAvoidsHalfAddition(t *testing.T) {
	code, err := generateShader(tensor.OpRound, variantCopy)
	require.NoError(t, err)
	assert.Contains(t, code, "trunc(x)")
	assert.NotContains(t, code, "+ 0.5")
}

func TestGenerateShader_Unsupported(t *testing.T) {
	_, err := generateShader(tensor.Op(-1), variantCopy)
	assert.ErrorIs(t, err, tensor.ErrUnsupportedOp)

	_, err = generateShader(tensor.OpCos, variantInlineSelf)
	assert.ErrorIs(t, err, tensor.ErrUnsupportedOp)
}

func TestShaderKey(t *testing.T) {
	assert.Equal(t, "cos/copy", shaderKey(tensor.OpCos, variantCopy))
	assert.Equal(t, "add/inline", shaderKey(tensor.OpAdd, variantInline))
	assert.Equal(t, "mul/self", shaderKey(tensor.OpMul, variantInlineSelf))
}

func TestEncodeParams(t *testing.T) {
	buf := encodeParams(1000, -100, 1024)

	require.Len(t, buf, paramsSize)
	assert.Equal(t, uint32(1000), binary.LittleEndian.Uint32(buf[0:]))
	assert.Equal(t, float32(-100), math.Float32frombits(binary.LittleEndian.Uint32(buf[4:])))
	assert.Equal(t, uint32(1024), binary.LittleEndian.Uint32(buf[8:]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[12:]))
}

func TestWorkgroups(t *testing.T) {
	c := &Context{maxGroups: 4}

	x, y, row := c.workgroups(10)
	assert.Equal(t, []uint32{1, 1, 256}, []uint32{x, y, row})

	x, y, row = c.workgroups(4 * 256)
	assert.Equal(t, []uint32{4, 1, 1024}, []uint32{x, y, row})

	// 9 groups over a limit of 4 per dimension.
	x, y, row = c.workgroups(9 * 256)
	assert.Equal(t, uint32(3), y)
	assert.Equal(t, uint32(3), x)
	assert.Equal(t, uint32(768), row)
	assert.GreaterOrEqual(t, x*y*workgroupSize, uint32(9*256))

	c.maxGroups = 0
	x, y, _ = c.workgroups(65535*256 + 1)
	assert.Equal(t, uint32(2), y)
	assert.LessOrEqual(t, x, uint32(65535))
}
