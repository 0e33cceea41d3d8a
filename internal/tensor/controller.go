package tensor

import (
	"log/slog"
	"sync"

	"github.com/born-ml/floattensor/internal/parallel"
	"github.com/google/uuid"
)

// Config controls a Controller.
type Config struct {
	Logger   *slog.Logger    // Session logger. Nil discards.
	Parallel parallel.Config // Host kernel parallelism.
}

// DefaultConfig returns a Config with a discarding logger and
// CPU-count-based parallelism.
func DefaultConfig() Config {
	return Config{
		Logger:   slog.New(slog.DiscardHandler),
		Parallel: parallel.DefaultConfig(),
	}
}

// Controller is a tensor session: it assigns identities, keeps a registry
// of live tensors and owns the dispatcher their operations go through.
//
// A Controller is created explicitly and passed to whoever constructs
// tensors; there is no package-level instance. Close releases every device
// buffer still held by registered tensors.
type Controller struct {
	mu         sync.RWMutex
	tensors    map[uuid.UUID]*Tensor
	dispatcher *Dispatcher
	logger     *slog.Logger
	closed     bool
}

// NewController starts a session.
func NewController(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Controller{
		tensors:    make(map[uuid.UUID]*Tensor),
		dispatcher: NewDispatcher(cfg.Parallel),
		logger:     logger,
	}
	logger.Info("tensor session started",
		"parallel", cfg.Parallel.Enabled, "workers", cfg.Parallel.NumWorkers)
	return c
}

// New creates a host-resident tensor holding a copy of data.
// Fails with ErrSizeMismatch when len(data) != shape.NumElements().
func (c *Controller) New(data []float32, shape Shape) (*Tensor, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	store, err := NewStorage(data, shape)
	if err != nil {
		return nil, err
	}
	return c.register(shape.Clone(), store)
}

// Zeros creates a host-resident tensor filled with zeros.
func (c *Controller) Zeros(shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return c.New(make([]float32, shape.NumElements()), shape)
}

// Full creates a host-resident tensor with every element set to value.
func (c *Controller) Full(shape Shape, value float32) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	data := make([]float32, shape.NumElements())
	for i := range data {
		data[i] = value
	}
	return c.New(data, shape)
}

// Lookup returns the registered tensor with the given identity.
func (c *Controller) Lookup(id uuid.UUID) (*Tensor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tensors[id]
	return t, ok
}

// Len returns the number of registered tensors.
func (c *Controller) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tensors)
}

// IDs returns the identities of all registered tensors, in no particular order.
func (c *Controller) IDs() []uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(c.tensors))
	for id := range c.tensors {
		ids = append(ids, id)
	}
	return ids
}

// Forget unregisters a tensor and releases its storage.
// Reports whether the identity was registered.
func (c *Controller) Forget(id uuid.UUID) bool {
	c.mu.Lock()
	t, ok := c.tensors[id]
	delete(c.tensors, id)
	c.mu.Unlock()

	if !ok {
		return false
	}
	t.store.Release()
	c.logger.Debug("tensor released", "id", id)
	return true
}

// Close ends the session: every registered tensor is released and further
// construction or operations fail with ErrClosed. Safe to call more than once.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	tensors := c.tensors
	c.tensors = make(map[uuid.UUID]*Tensor)
	c.mu.Unlock()

	for _, t := range tensors {
		t.store.Release()
	}
	c.logger.Info("tensor session closed", "released", len(tensors))
	return nil
}

// Dispatcher returns the dispatcher used by this session's tensors.
func (c *Controller) Dispatcher() *Dispatcher {
	return c.dispatcher
}

func (c *Controller) checkOpen() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

// register wraps store in a Tensor with a fresh identity.
// On a closed controller the storage is released and ErrClosed returned.
func (c *Controller) register(shape Shape, store *Storage) (*Tensor, error) {
	t := &Tensor{
		id:    uuid.New(),
		shape: shape,
		store: store,
		ctrl:  c,
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		store.Release()
		return nil, ErrClosed
	}
	c.tensors[t.id] = t
	c.mu.Unlock()

	c.logger.Debug("tensor registered", "id", t.id, "shape", shape)
	return t, nil
}
