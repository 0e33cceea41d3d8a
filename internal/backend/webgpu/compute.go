package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/born-ml/floattensor/internal/tensor"
	"github.com/openfluke/webgpu/wgpu"
)

// paramsSize is the byte size of the Params uniform.
const paramsSize = 16

// uniformUsage is the usage of parameter buffers.
const uniformUsage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst

// getOrCreatePipeline returns the cached pipeline for op in variant v,
// compiling the shader on first use.
func (c *Context) getOrCreatePipeline(op tensor.Op, v variant) (*wgpu.ComputePipeline, error) {
	key := shaderKey(op, v)

	c.mu.RLock()
	if pipeline, exists := c.pipelines[key]; exists {
		c.mu.RUnlock()
		return pipeline, nil
	}
	c.mu.RUnlock()

	code, err := generateShader(op, v)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return nil, errContextClosed
	}
	if pipeline, exists := c.pipelines[key]; exists {
		return pipeline, nil
	}

	shader, err := c.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: code},
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: compile %s: %w", key, err)
	}

	// Auto layout (nil layout) derived from the shader bindings
	pipeline, err := c.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: key,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     shader,
			EntryPoint: "main",
		},
	})
	if err != nil {
		shader.Release()
		return nil, fmt.Errorf("webgpu: pipeline %s: %w", key, err)
	}

	c.shaders[key] = shader
	c.pipelines[key] = pipeline
	c.logger.Debug("webgpu pipeline compiled", "kernel", key)
	return pipeline, nil
}

// workgroups returns the dispatch grid for n elements and the number of
// invocations per grid row.
func (c *Context) workgroups(n int) (x, y, row uint32) {
	groups := (uint32(n) + workgroupSize - 1) / workgroupSize
	limit := c.maxGroups
	if limit == 0 {
		limit = 65535
	}
	if groups <= limit {
		return groups, 1, groups * workgroupSize
	}
	y = (groups + limit - 1) / limit
	x = (groups + y - 1) / y
	return x, y, x * workgroupSize
}

// encodeParams packs the Params uniform.
func encodeParams(size int, scalar float32, row uint32) []byte {
	buf := make([]byte, paramsSize)
	binary.LittleEndian.PutUint32(buf[0:], uint32(size))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(scalar))
	binary.LittleEndian.PutUint32(buf[8:], row)
	return buf
}

// launch runs the pipeline for op in variant v over n elements. buffers are
// bound in order starting at binding 0; the Params uniform follows them.
func (c *Context) launch(op tensor.Op, v variant, n int, scalar float32, buffers ...*wgpu.Buffer) error {
	if n == 0 {
		return nil
	}

	pipeline, err := c.getOrCreatePipeline(op, v)
	if err != nil {
		return err
	}

	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}

	gx, gy, row := c.workgroups(n)

	params, err := c.bufferPool.Acquire(paramsSize, uniformUsage)
	if err != nil {
		return fmt.Errorf("webgpu: params buffer: %w", err)
	}
	defer c.bufferPool.Release(params, paramsSize, uniformUsage)
	c.queue.WriteBuffer(params, 0, encodeParams(n, scalar, row))

	size := uint64(n) * 4
	entries := make([]wgpu.BindGroupEntry, 0, len(buffers)+1)
	for i, b := range buffers {
		entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(i), Buffer: b, Size: size})
	}
	entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(len(buffers)), Buffer: params, Size: paramsSize})

	bindGroup, err := c.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   shaderKey(op, v),
		Layout:  pipeline.GetBindGroupLayout(0),
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("webgpu: bind group: %w", err)
	}
	defer bindGroup.Release()

	encoder, err := c.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("webgpu: command encoder: %w", err)
	}
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(gx, gy, 1)
	pass.End()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("webgpu: finish: %w", err)
	}
	c.queue.Submit(cmd)
	return nil
}

// RunUnary computes dst[i] = op(src[i]). dst may be src.
func (c *Context) RunUnary(op tensor.Op, dst, src tensor.Buffer) error {
	if op.Arity() != tensor.ArityUnary {
		return fmt.Errorf("webgpu: %w: %s is not unary", tensor.ErrUnsupportedOp, op)
	}
	return c.runElementwise(op, dst, src, 0)
}

// RunScalar computes dst[i] = op(src[i], scalar). dst may be src.
func (c *Context) RunScalar(op tensor.Op, dst, src tensor.Buffer, scalar float32) error {
	if op.Arity() != tensor.ArityScalar {
		return fmt.Errorf("webgpu: %w: %s is not a scalar op", tensor.ErrUnsupportedOp, op)
	}
	return c.runElementwise(op, dst, src, scalar)
}

func (c *Context) runElementwise(op tensor.Op, dst, src tensor.Buffer, scalar float32) error {
	d, s, err := c.ownPair(dst, src)
	if err != nil {
		return err
	}
	if d == s {
		return c.launch(op, variantInline, d.n, scalar, d.buffer)
	}
	return c.launch(op, variantCopy, d.n, scalar, s.buffer, d.buffer)
}

// RunBinary computes dst[i] = op(a[i], b[i]). dst may alias a, b or both.
func (c *Context) RunBinary(op tensor.Op, dst, a, b tensor.Buffer) error {
	if op.Arity() != tensor.ArityBinary {
		return fmt.Errorf("webgpu: %w: %s is not binary", tensor.ErrUnsupportedOp, op)
	}
	d, x, err := c.ownPair(dst, a)
	if err != nil {
		return err
	}
	y, err := c.own(b)
	if err != nil {
		return err
	}
	if y.n != d.n {
		return fmt.Errorf("webgpu: %w: %d elements vs %d", tensor.ErrSizeMismatch, y.n, d.n)
	}

	switch {
	case d == x && d == y:
		return c.launch(op, variantInlineSelf, d.n, 0, d.buffer)
	case d == x:
		return c.launch(op, variantInline, d.n, 0, d.buffer, y.buffer)
	case d == y:
		// A buffer bound read-write cannot also be bound read-only, so the
		// right operand is copied out first.
		tmp, err := c.Alloc(y.n)
		if err != nil {
			return err
		}
		defer c.ReleaseBuffer(tmp)
		if err := c.CopyBuffer(tmp, y); err != nil {
			return err
		}
		return c.launch(op, variantCopy, d.n, 0, x.buffer, tmp.(*Buffer).buffer, d.buffer)
	default:
		return c.launch(op, variantCopy, d.n, 0, x.buffer, y.buffer, d.buffer)
	}
}

func (c *Context) ownPair(dst, src tensor.Buffer) (*Buffer, *Buffer, error) {
	d, err := c.own(dst)
	if err != nil {
		return nil, nil, err
	}
	s, err := c.own(src)
	if err != nil {
		return nil, nil, err
	}
	if d.n != s.n {
		return nil, nil, fmt.Errorf("webgpu: %w: %d elements vs %d", tensor.ErrSizeMismatch, s.n, d.n)
	}
	return d, s, nil
}
