package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrSuperseded is returned by View.Load when a newer load for the same
	// view, or the view's teardown, made its result stale.
	ErrSuperseded = errors.New("page load superseded")

	// ErrViewClosed is returned when loading through a closed view.
	ErrViewClosed = errors.New("view closed")
)

// ViewStatus is the lifecycle state of a View.
type ViewStatus int

const (
	ViewIdle ViewStatus = iota
	ViewLoading
	ViewReady
	ViewFailed
)

func (s ViewStatus) String() string {
	switch s {
	case ViewIdle:
		return "idle"
	case ViewLoading:
		return "loading"
	case ViewReady:
		return "ready"
	case ViewFailed:
		return "failed"
	default:
		return fmt.Sprintf("ViewStatus(%d)", int(s))
	}
}

// ViewState is a snapshot of a View.
type ViewState struct {
	Status     ViewStatus
	Generation uint64 // incremented by every load command and by Close
	Requested  int    // page asked for by the latest command
	Result     ResultPage
	Err        error
}

// View is the state machine behind one entity's paginated listing:
// Idle -> Loading -> Ready | Failed. Every Load starts a new generation and
// cancels the previous in-flight load; a result is only applied if its
// generation is still current, so the last request always wins.
type View struct {
	key      EntityKey
	resolver Service

	mu     sync.Mutex
	state  ViewState
	cancel context.CancelFunc
	closed bool
}

// NewView returns an idle view of key's listing.
func NewView(resolver Service, key EntityKey) *View {
	return &View{
		key:      key,
		resolver: resolver,
	}
}

// Key returns the listing this view paginates.
func (v *View) Key() EntityKey {
	return v.key
}

// State returns the current snapshot.
func (v *View) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.state
}

// begin moves the view to Loading for page and returns the new generation
// along with the context the load must run under.
func (v *View) begin(ctx context.Context, page int) (uint64, context.Context, context.CancelFunc, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return 0, nil, nil, ErrViewClosed
	}

	if v.cancel != nil {
		v.cancel()
	}

	ctx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.state = ViewState{
		Status:     ViewLoading,
		Generation: v.state.Generation + 1,
		Requested:  page,
		Result:     v.state.Result,
	}

	return v.state.Generation, ctx, cancel, nil
}

// Load resolves page and applies the outcome, unless a later Load or Close
// happened meanwhile, in which case it returns ErrSuperseded and leaves the
// state untouched. Cursors stored by a superseded load remain cached.
func (v *View) Load(ctx context.Context, page int) (ViewState, error) {
	generation, ctx, cancel, err := v.begin(ctx, page)
	if err != nil {
		return ViewState{}, err
	}
	defer cancel()

	result, err := v.resolver.ResolvePage(ctx, v.key, page)

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed || generation != v.state.Generation {
		return ViewState{}, ErrSuperseded
	}
	v.cancel = nil

	if err != nil {
		v.state.Status = ViewFailed
		v.state.Err = err
		return v.state, err
	}

	v.state.Status = ViewReady
	v.state.Result = result
	return v.state, nil
}

// Retry re-issues the latest load command.
func (v *View) Retry(ctx context.Context) (ViewState, error) {
	page := v.State().Requested
	if page == 0 {
		return ViewState{}, fmt.Errorf("%w: nothing to retry", ErrInvalidPage)
	}

	return v.Load(ctx, page)
}

func (v *View) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.closed
}

// Close tears the view down and cancels any load in flight.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}

	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}

	v.closed = true
	v.state = ViewState{Status: ViewIdle, Generation: v.state.Generation + 1}
}
