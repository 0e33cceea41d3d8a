// Package webgpu implements a tensor.ComputeContext on a GPU through WebGPU.
// Uses openfluke/webgpu (github.com/openfluke/webgpu) for wgpu-native bindings.
package webgpu

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/born-ml/floattensor/internal/tensor"
	"github.com/openfluke/webgpu/wgpu"
)

// Verify that Context implements tensor.ComputeContext.
var _ tensor.ComputeContext = (*Context)(nil)

// PowerPreference selects which adapter to request.
type PowerPreference string

// Adapter preferences.
const (
	PowerHighPerformance PowerPreference = "high-performance"
	PowerLowPower        PowerPreference = "low-power"
	PowerDefault         PowerPreference = ""
)

// options returns the adapter request for p, nil for the default adapter.
func (p PowerPreference) options() *wgpu.RequestAdapterOptions {
	switch p {
	case PowerHighPerformance:
		return &wgpu.RequestAdapterOptions{PowerPreference: wgpu.PowerPreferenceHighPerformance}
	case PowerLowPower:
		return &wgpu.RequestAdapterOptions{PowerPreference: wgpu.PowerPreferenceLowPower}
	default:
		return nil
	}
}

// Config configures a Context.
type Config struct {
	// PowerPreference picks the adapter. Falls back to any adapter when the
	// preferred one cannot be obtained.
	PowerPreference PowerPreference `yaml:"power_preference"`
	// Logger receives adapter selection at info level. Nil discards.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig prefers a high-performance adapter.
func DefaultConfig() Config {
	return Config{PowerPreference: PowerHighPerformance}
}

// Context runs elementwise kernels on a WebGPU device.
type Context struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Shader and pipeline cache
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex

	// queueMu serialises submissions and readback polling.
	queueMu sync.Mutex

	// Device info
	adapterInfo wgpu.AdapterInfo
	maxGroups   uint32 // Workgroups per dispatch dimension

	// Pool for staging and parameter buffers
	bufferPool *BufferPool

	// Memory tracking
	memoryStats struct {
		liveBytes      uint64
		peakBytes      uint64
		totalAllocated uint64
		activeBuffers  int64
		mu             sync.RWMutex
	}

	logger   *slog.Logger
	released bool
}

// New creates a Context with DefaultConfig.
func New() (*Context, error) {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a Context.
// Returns an error if WebGPU is not available or initialization fails.
func NewWithConfig(cfg Config) (ctx *Context, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			ctx = nil
			err = fmt.Errorf("webgpu: %w: native library not available: %v", tensor.ErrNoDevice, r)
		}
	}()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	instance := wgpu.CreateInstance(nil)
	if instance == nil {
		return nil, fmt.Errorf("webgpu: %w: failed to create instance", tensor.ErrNoDevice)
	}

	adapter, err := requestAdapter(instance, cfg.PowerPreference)
	if err != nil {
		instance.Release()
		return nil, err
	}
	info := adapter.GetInfo()
	limits := adapter.GetLimits()

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: %w: failed to request device: %w", tensor.ErrNoDevice, err)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: %w: failed to get queue", tensor.ErrNoDevice)
	}

	c := &Context{
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       queue,
		shaders:     make(map[string]*wgpu.ShaderModule),
		pipelines:   make(map[string]*wgpu.ComputePipeline),
		adapterInfo: info,
		maxGroups:   limits.Limits.MaxComputeWorkgroupsPerDimension,
		bufferPool:  NewBufferPool(device),
		logger:      logger,
	}
	logger.Info("webgpu adapter selected", "name", info.Name, "vendor", info.VendorName)
	return c, nil
}

// requestAdapter asks for the preferred adapter and falls back to the default.
func requestAdapter(instance *wgpu.Instance, pref PowerPreference) (*wgpu.Adapter, error) {
	adapter, err := instance.RequestAdapter(pref.options())
	if err == nil && adapter != nil {
		return adapter, nil
	}
	if pref != PowerDefault {
		adapter, err = instance.RequestAdapter(nil)
		if err == nil && adapter != nil {
			return adapter, nil
		}
	}
	if err == nil {
		err = fmt.Errorf("no adapter returned")
	}
	return nil, fmt.Errorf("webgpu: %w: failed to request adapter: %w", tensor.ErrNoDevice, err)
}

// Release releases all WebGPU resources. Buffers still held by tensors
// become invalid; release or demote them first.
func (c *Context) Release() {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return
	}
	c.released = true

	if c.bufferPool != nil {
		c.bufferPool.Clear()
		c.bufferPool = nil
	}

	for _, p := range c.pipelines {
		p.Release()
	}
	c.pipelines = nil

	for _, s := range c.shaders {
		s.Release()
	}
	c.shaders = nil

	c.queue = nil
	if c.device != nil {
		c.device.Release()
		c.device = nil
	}
	if c.adapter != nil {
		c.adapter.Release()
		c.adapter = nil
	}
	if c.instance != nil {
		c.instance.Release()
		c.instance = nil
	}
}

// Name returns the context name including the adapter.
func (c *Context) Name() string {
	if c.adapterInfo.Name != "" {
		return fmt.Sprintf("WebGPU (%s %s)", c.adapterInfo.Name, c.adapterInfo.VendorName)
	}
	return "WebGPU"
}

// Device returns the compute device.
func (c *Context) Device() tensor.Device {
	return tensor.WebGPU
}

// AdapterInfo returns information about the GPU adapter.
func (c *Context) AdapterInfo() wgpu.AdapterInfo {
	return c.adapterInfo
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() (available bool) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance := wgpu.CreateInstance(nil)
	if instance == nil {
		return false
	}
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil || adapter == nil {
		return false
	}
	adapter.Release()

	return true
}

// AdapterSummary describes one GPU adapter.
type AdapterSummary struct {
	Name    string
	Vendor  string
	Backend string
	Type    string
}

// ListAdapters returns the adapters the instance can see.
func ListAdapters() (adapters []AdapterSummary, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			adapters = nil
			err = fmt.Errorf("webgpu: %w: native library not available: %v", tensor.ErrNoDevice, r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	if instance == nil {
		return nil, fmt.Errorf("webgpu: %w: failed to create instance", tensor.ErrNoDevice)
	}
	defer instance.Release()

	for _, a := range instance.EnumerateAdapters(nil) {
		info := a.GetInfo()
		adapters = append(adapters, AdapterSummary{
			Name:    info.Name,
			Vendor:  info.VendorName,
			Backend: info.BackendType.String(),
			Type:    info.AdapterType.String(),
		})
		a.Release()
	}
	return adapters, nil
}
