package bootstrap

import (
	"sync"
	"time"
)

// DefaultMessageTimeout is how long a message stays visible.
const DefaultMessageTimeout = 5 * time.Second

// MessageBox holds the currently displayed message. A shown message is
// cleared after the timeout or by the next Clear/Show, whichever is first.
// render is called with every change, including the empty message on clear,
// and always sees the state it draws. It must not call back into the box
// except through Current.
type MessageBox struct {
	timeout time.Duration
	render  func(Message)

	// renderMu orders state changes with their renders.
	renderMu sync.Mutex

	mu      sync.Mutex
	current Message
	timer   *time.Timer
	gen     uint64
}

func NewMessageBox(timeout time.Duration, render func(Message)) *MessageBox {
	if timeout <= 0 {
		timeout = DefaultMessageTimeout
	}
	if render == nil {
		render = func(Message) {}
	}
	return &MessageBox{timeout: timeout, render: render}
}

// Show replaces the current message and restarts the clear timer.
func (b *MessageBox) Show(m Message) {
	b.renderMu.Lock()
	defer b.renderMu.Unlock()

	b.mu.Lock()
	b.stopLocked()
	b.current = m
	b.gen++
	gen := b.gen
	if m.Text != "" {
		b.timer = time.AfterFunc(b.timeout, func() { b.expire(gen) })
	}
	b.mu.Unlock()

	b.render(m)
}

// Clear removes the current message, e.g. before a new submission.
func (b *MessageBox) Clear() {
	b.renderMu.Lock()
	defer b.renderMu.Unlock()

	b.mu.Lock()
	if b.current == (Message{}) {
		b.mu.Unlock()
		return
	}
	b.stopLocked()
	b.current = Message{}
	b.gen++
	b.mu.Unlock()

	b.render(Message{})
}

// Current returns the visible message.
func (b *MessageBox) Current() Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

func (b *MessageBox) expire(gen uint64) {
	b.renderMu.Lock()
	defer b.renderMu.Unlock()

	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		return
	}
	b.current = Message{}
	b.timer = nil
	b.mu.Unlock()

	b.render(Message{})
}

func (b *MessageBox) stopLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
