package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnknownNetwork is returned when no lister is configured for a network.
	ErrUnknownNetwork = errors.New("unknown network")

	// ErrNetworkMismatch is returned when opening a key of another network
	// than the session's current one.
	ErrNetworkMismatch = errors.New("entity belongs to another network")
)

// Session is the explicit browsing context: the selected network, the
// cursor store shared by every listing, and the view currently displayed.
// Opening another listing or switching network tears the current view down.
type Session struct {
	store   CursorStore
	listers map[string]Lister
	opts    []Option

	mu        sync.Mutex
	network   string
	resolvers map[string]Service
	current   *View
}

// NewSession starts a session on network. listers maps every supported
// network to the lister of its upstream.
func NewSession(network string, store CursorStore, listers map[string]Lister, opts ...Option) (*Session, error) {
	if _, ok := listers[network]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, network)
	}

	return &Session{
		store:     store,
		listers:   listers,
		opts:      opts,
		network:   network,
		resolvers: make(map[string]Service),
	}, nil
}

// Network returns the selected network.
func (s *Session) Network() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.network
}

// resolver returns the resolver of network, creating it on first use.
// Callers must hold s.mu.
func (s *Session) resolver(network string) (Service, error) {
	if r, ok := s.resolvers[network]; ok {
		return r, nil
	}

	lister, ok := s.listers[network]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, network)
	}

	r, err := New(s.store, lister, s.opts...)
	if err != nil {
		return nil, err
	}

	s.resolvers[network] = r
	return r, nil
}

// Open makes key's listing the current view. The current view is reused
// while it is open and for the same listing; otherwise it is closed, its
// in-flight load canceled, and a new view is returned.
func (s *Session) Open(key EntityKey) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key.Network != s.network {
		return nil, fmt.Errorf("%w: %q, session is on %q", ErrNetworkMismatch, key.Network, s.network)
	}

	if s.current != nil {
		if s.current.Key() == key && !s.current.isClosed() {
			return s.current, nil
		}

		s.current.Close()
		s.current = nil
	}

	r, err := s.resolver(key.Network)
	if err != nil {
		return nil, err
	}

	s.current = NewView(r, key)
	return s.current, nil
}

// SwitchNetwork selects another network and closes the current view.
func (s *Session) SwitchNetwork(network string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listers[network]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNetwork, network)
	}

	if s.current != nil {
		s.current.Close()
		s.current = nil
	}

	s.network = network
	return nil
}

// Forget drops every cached cursor of key.
func (s *Session) Forget(ctx context.Context, key EntityKey) error {
	s.mu.Lock()
	r, err := s.resolver(key.Network)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	return r.Forget(ctx, key)
}

// Close ends the session, canceling the current view's load.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.current.Close()
		s.current = nil
	}
}
