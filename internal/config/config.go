// Package config loads floattensor runtime settings from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/born-ml/floattensor/internal/backend/cpu"
	"github.com/born-ml/floattensor/internal/backend/webgpu"
	"github.com/born-ml/floattensor/internal/parallel"
	"github.com/born-ml/floattensor/internal/tensor"
	"gopkg.in/yaml.v3"
)

// Device names accepted in the device field.
const (
	DeviceCPU    = "cpu"
	DeviceWebGPU = "webgpu"
	DeviceHost   = "host" // no compute context, host kernels only
)

// ErrInvalid is returned for settings that fail validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the file layout. The top-level parallel block applies to host
// kernels; cpu.parallel applies to kernels run on a CPU context.
//
//	device: webgpu
//	log_level: debug
//	parallel:
//	  enabled: true
//	  num_workers: 8
//	  min_chunk_size: 4096
//	cpu:
//	  memory_limit: 67108864
//	  parallel:
//	    enabled: false
//	webgpu:
//	  power_preference: low-power
type Config struct {
	Device   string          `yaml:"device"`
	LogLevel string          `yaml:"log_level"`
	Parallel parallel.Config `yaml:"parallel"`
	CPU      cpu.Config      `yaml:"cpu"`
	WebGPU   webgpu.Config   `yaml:"webgpu"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Device:   DeviceCPU,
		LogLevel: "info",
		Parallel: parallel.DefaultConfig(),
		CPU:      cpu.DefaultConfig(),
		WebGPU:   webgpu.DefaultConfig(),
	}
}

// Load reads and validates the file at path. Fields absent from the file
// keep their Default values.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses YAML from r over the defaults and validates the result.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch c.Device {
	case DeviceCPU, DeviceWebGPU, DeviceHost:
	default:
		return fmt.Errorf("%w: device %q (want cpu, webgpu or host)", ErrInvalid, c.Device)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Parallel.NumWorkers < 0 || c.Parallel.MinChunkSize < 0 {
		return fmt.Errorf("%w: parallel settings must not be negative", ErrInvalid)
	}
	switch c.WebGPU.PowerPreference {
	case webgpu.PowerDefault, webgpu.PowerHighPerformance, webgpu.PowerLowPower:
	default:
		return fmt.Errorf("%w: power_preference %q", ErrInvalid, c.WebGPU.PowerPreference)
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	return level, nil
}

// Tensor returns the controller settings.
func (c *Config) Tensor(logger *slog.Logger) tensor.Config {
	return tensor.Config{Logger: logger, Parallel: c.Parallel}
}

// OpenContext creates the configured compute context. It returns nil for
// the host device. release frees the context and is never nil.
func (c *Config) OpenContext(logger *slog.Logger) (ctx tensor.ComputeContext, release func(), err error) {
	switch c.Device {
	case DeviceHost:
		return nil, func() {}, nil
	case DeviceWebGPU:
		wcfg := c.WebGPU
		wcfg.Logger = logger
		gpu, err := webgpu.NewWithConfig(wcfg)
		if err != nil {
			return nil, func() {}, err
		}
		return gpu, gpu.Release, nil
	default:
		ccfg := c.CPU
		ccfg.Logger = logger
		return cpu.NewWithConfig(ccfg), func() {}, nil
	}
}
