package collection

import (
	"context"
	"sync"

	"github.com/phobologic/docgraph/internal/derrors"
)

// Handle builds a Collection lazily, at most once, from options supplied up
// front. The zero Handle is ready to use.
type Handle struct {
	mu   sync.Mutex
	opts *Options

	once   sync.Once
	c      *Collection // written once under mu
	err    error
	closed bool
}

// NewHandle returns an uninitialized Handle.
func NewHandle() *Handle {
	return &Handle{}
}

// Init stores the options the collection will be built from. It may be
// called once.
func (h *Handle) Init(opts Options) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.opts != nil {
		return derrors.AlreadyInitialized
	}
	h.opts = &opts
	return nil
}

// Collection builds the collection on first use and returns the same result,
// including any error, on every later call.
func (h *Handle) Collection(ctx context.Context) (*Collection, error) {
	h.mu.Lock()
	opts := h.opts
	h.mu.Unlock()
	if opts == nil {
		return nil, derrors.NotInitialized
	}
	h.once.Do(func() {
		c, err := New(ctx, *opts)
		h.mu.Lock()
		h.c, h.err = c, err
		h.mu.Unlock()
	})
	return h.c, h.err
}

// Close releases the collection if it was built. It is safe to call more
// than once and concurrently with Collection.
func (h *Handle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.c != nil && !h.closed {
		h.closed = true
		h.c.Close()
	}
}

type handleKey struct{}

// WithHandle returns a context carrying h.
func WithHandle(ctx context.Context, h *Handle) context.Context {
	return context.WithValue(ctx, handleKey{}, h)
}

// HandleFromContext returns the Handle carried by ctx.
func HandleFromContext(ctx context.Context) (*Handle, bool) {
	h, ok := ctx.Value(handleKey{}).(*Handle)
	return h, ok
}
