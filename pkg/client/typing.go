package client

import (
	"sync"
	"time"
)

const DefaultTypingTimeout = time.Second

// TypingNotifier is the sender side of the presence protocol. The first
// keystroke moves idle → typing and fires onStart; every keystroke re-arms
// the inactivity timer; the timer or an explicit Stop moves typing → idle
// and fires onStop. Callbacks run outside the lock.
type TypingNotifier struct {
	timeout time.Duration
	onStart func()
	onStop  func()

	mu     sync.Mutex
	typing bool
	gen    uint64
	timer  *time.Timer
}

func NewTypingNotifier(timeout time.Duration, onStart, onStop func()) *TypingNotifier {
	if timeout <= 0 {
		timeout = DefaultTypingTimeout
	}
	return &TypingNotifier{timeout: timeout, onStart: onStart, onStop: onStop}
}

// TypingNotifier wires a notifier to this client's typing events.
func (c *Client) TypingNotifier(name string, timeout time.Duration) *TypingNotifier {
	return NewTypingNotifier(timeout,
		func() { _ = c.Typing(name) },
		func() { _ = c.StopTyping(name) },
	)
}

func (t *TypingNotifier) Keystroke() {
	t.mu.Lock()
	started := !t.typing
	t.typing = true
	t.gen++
	gen := t.gen
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.timeout, func() { t.expire(gen) })
	t.mu.Unlock()

	if started && t.onStart != nil {
		t.onStart()
	}
}

// Stop ends typing immediately, e.g. when the editor loses focus.
func (t *TypingNotifier) Stop() {
	t.mu.Lock()
	if !t.typing {
		t.mu.Unlock()
		return
	}
	t.typing = false
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()

	if t.onStop != nil {
		t.onStop()
	}
}

func (t *TypingNotifier) Typing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.typing
}

func (t *TypingNotifier) expire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || !t.typing {
		t.mu.Unlock()
		return
	}
	t.typing = false
	t.timer = nil
	t.mu.Unlock()

	if t.onStop != nil {
		t.onStop()
	}
}
