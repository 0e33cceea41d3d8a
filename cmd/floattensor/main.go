// Package main provides the floattensor CLI.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/born-ml/floattensor/internal/backend/webgpu"
	"github.com/born-ml/floattensor/internal/config"
	"github.com/born-ml/floattensor/internal/tensor"
)

const version = "v0.1.0-dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "floattensor:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stdout)
		return nil
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "floattensor %s\n", version)
		return nil
	case "devices":
		return devices(stdout)
	case "demo":
		return demo(args[1:], stdout, stderr)
	default:
		usage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "floattensor - float32 tensors with device mirrors")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version              Show version")
	fmt.Fprintln(w, "  devices              List WebGPU adapters")
	fmt.Fprintln(w, "  demo [-config file]  Run the operation walkthrough")
}

func devices(w io.Writer) error {
	fmt.Fprintln(w, "cpu     host memory")
	if !webgpu.IsAvailable() {
		fmt.Fprintln(w, "webgpu  not available")
		return nil
	}
	adapters, err := webgpu.ListAdapters()
	if err != nil {
		return err
	}
	for _, a := range adapters {
		fmt.Fprintf(w, "webgpu  %s (%s, %s, %s)\n", a.Name, a.Vendor, a.Backend, a.Type)
	}
	return nil
}

func demo(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("config", "", "YAML configuration file")
	device := fs.String("device", "", "override the configured device (cpu, webgpu, host)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *path != "" {
		var err error
		if cfg, err = config.Load(*path); err != nil {
			return err
		}
	}
	if *device != "" {
		cfg.Device = *device
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	ctx, release, err := cfg.OpenContext(logger)
	if err != nil {
		return err
	}
	defer release()

	ctrl := tensor.NewController(cfg.Tensor(logger))
	defer func() {
		if err := ctrl.Close(); err != nil {
			logger.Error("close controller", "err", err)
		}
	}()

	w := &walkthrough{ctrl: ctrl, ctx: ctx, out: stdout}
	return w.run()
}

// walkthrough runs the copy, cosine, scalar add, tensor add and shape
// mismatch scenarios and prints each result.
type walkthrough struct {
	ctrl *tensor.Controller
	ctx  tensor.ComputeContext
	out  io.Writer
}

func (w *walkthrough) tensor(data []float32, shape tensor.Shape) (*tensor.Tensor, error) {
	t, err := w.ctrl.New(data, shape)
	if err != nil {
		return nil, err
	}
	if w.ctx != nil {
		if err := t.PromoteToDevice(w.ctx); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (w *walkthrough) print(label string, t *tensor.Tensor) error {
	data, err := t.Data()
	if err != nil {
		return err
	}
	fmt.Fprintf(w.out, "%-14s %v %v\n", label, t.Shape(), data)
	return nil
}

func (w *walkthrough) run() error {
	name := "host"
	if w.ctx != nil {
		name = w.ctx.Name()
	}
	fmt.Fprintf(w.out, "device: %s\n", name)

	steps := []func() error{w.copy, w.cos, w.addScalar, w.add, w.mismatch}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (w *walkthrough) copy() error {
	x, err := w.tensor([]float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, tensor.Shape{2, 5})
	if err != nil {
		return err
	}
	y, err := x.Copy()
	if err != nil {
		return err
	}
	equal, err := x.Equal(y)
	if err != nil {
		return err
	}
	fmt.Fprintf(w.out, "copy           equal=%t distinct=%t\n", equal, x.ID() != y.ID())
	return nil
}

func (w *walkthrough) cos() error {
	x, err := w.tensor([]float32{0.4, 0.5, 0.3, -0.1}, tensor.Shape{4})
	if err != nil {
		return err
	}
	y, err := x.Cos(tensor.ModeCopy)
	if err != nil {
		return err
	}
	if err := w.print("cos", y); err != nil {
		return err
	}
	if _, err := x.Cos(tensor.ModeInline); err != nil {
		return err
	}
	return w.print("cos inline", x)
}

func (w *walkthrough) addScalar() error {
	x, err := w.tensor([]float32{-1, 0, 0.1, 1, math.MaxFloat32, -math.MaxFloat32}, tensor.Shape{3, 2})
	if err != nil {
		return err
	}
	y, err := x.AddScalar(-100, tensor.ModeCopy)
	if err != nil {
		return err
	}
	return w.print("add scalar", y)
}

func (w *walkthrough) add() error {
	x, err := w.tensor([]float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, tensor.Shape{2, 5})
	if err != nil {
		return err
	}
	y, err := w.tensor([]float32{3, 2, 6, 9, 10, 1, 4, 8, 5, 7}, tensor.Shape{2, 5})
	if err != nil {
		return err
	}
	z, err := x.Add(y, tensor.ModeCopy)
	if err != nil {
		return err
	}
	if err := w.print("add", z); err != nil {
		return err
	}
	if _, err := x.Add(x, tensor.ModeInline); err != nil {
		return err
	}
	return w.print("add self", x)
}

func (w *walkthrough) mismatch() error {
	pairs := [][2]tensor.Shape{
		{{2, 5}, {2, 6}},
		{{4}, {2, 2}},
		{{2, 3}, {3, 2}},
	}
	for _, p := range pairs {
		a, err := w.tensor(make([]float32, p[0].NumElements()), p[0])
		if err != nil {
			return err
		}
		b, err := w.tensor(make([]float32, p[1].NumElements()), p[1])
		if err != nil {
			return err
		}
		_, err = a.Add(b, tensor.ModeCopy)
		var se *tensor.ShapeError
		if !errors.As(err, &se) {
			return fmt.Errorf("add %v + %v: expected a shape mismatch, got %v", p[0], p[1], err)
		}
		fmt.Fprintf(w.out, "mismatch       %v + %v: %s\n", p[0], p[1], se.Reason)
	}
	return nil
}
