package provider

import (
	"slices"
	"sync"

	"auth-client/internal/auth"
)

// StateKind enumerates provider sign-in state transitions.
type StateKind string

const (
	StateSignedIn       StateKind = "signed-in"
	StateSignedOut      StateKind = "signed-out"
	StateTokenRefreshed StateKind = "token-refreshed"
)

// StateChange is delivered to OnAuthStateChanged listeners. User is nil
// for StateSignedOut.
type StateChange struct {
	Kind StateKind
	User *auth.User
}

// Notifier is the listener list shared by provider implementations.
// The zero value is ready to use.
type Notifier struct {
	mu        sync.Mutex
	next      int
	listeners map[int]func(StateChange)
}

// Subscribe adds fn and returns its removal func. Removal is idempotent.
func (n *Notifier) Subscribe(fn func(StateChange)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.listeners == nil {
		n.listeners = make(map[int]func(StateChange))
	}
	id := n.next
	n.next++
	n.listeners[id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners, id)
	}
}

// Notify calls every listener in subscription order. Listeners run outside
// the lock so they may unsubscribe themselves.
func (n *Notifier) Notify(change StateChange) {
	n.mu.Lock()
	ids := make([]int, 0, len(n.listeners))
	for id := range n.listeners {
		ids = append(ids, id)
	}
	fns := make([]func(StateChange), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, n.listeners[id])
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}
