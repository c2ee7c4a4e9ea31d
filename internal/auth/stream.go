package auth

import (
	"sync"
)

// StateSubscription is one listener on the auth-state stream. The channel
// stays open until Cancel is called; events arriving while the buffer is
// full are dropped rather than blocking the emitter.
type StateSubscription struct {
	ch     chan StateChange
	cancel func()
	once   sync.Once
}

// C returns the event channel.
func (s *StateSubscription) C() <-chan StateChange {
	return s.ch
}

// Cancel detaches the subscription and closes the channel. Safe to call more
// than once.
func (s *StateSubscription) Cancel() {
	s.once.Do(s.cancel)
}

// stateBroker fans auth-state changes out to subscribers.
type stateBroker struct {
	mu   sync.Mutex
	subs map[*StateSubscription]struct{}
}

func newStateBroker() *stateBroker {
	return &stateBroker{subs: make(map[*StateSubscription]struct{})}
}

func (b *stateBroker) subscribe() *StateSubscription {
	sub := &StateSubscription{ch: make(chan StateChange, 16)}
	sub.cancel = func() {
		b.mu.Lock()
		delete(b.subs, sub)
		b.mu.Unlock()
		close(sub.ch)
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

func (b *stateBroker) publish(change StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		select {
		case sub.ch <- change:
		default:
			// Slow consumer; dropping beats blocking the auth path.
		}
	}
}
