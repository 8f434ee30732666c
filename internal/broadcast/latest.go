// Package broadcast propagates state snapshots to the console and to websocket clients.
package broadcast

// Latest is a one-slot channel holding only the most recent value. Publish never blocks.
type Latest[T any] struct {
	ch chan T
}

func NewLatest[T any]() *Latest[T] {
	return &Latest[T]{ch: make(chan T, 1)}
}

// Publish replaces any value not yet received with v.
func (l *Latest[T]) Publish(v T) {
	for {
		select {
		case l.ch <- v:
			return
		default:
		}
		select {
		case <-l.ch:
		default:
		}
	}
}

// Poll returns the pending value, if any, without blocking.
func (l *Latest[T]) Poll() (T, bool) {
	select {
	case v := <-l.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}
