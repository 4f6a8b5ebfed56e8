package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/novatasks/internal/event"
)

// busEventMsg is delivered when the tracker publishes a change.
type busEventMsg event.Event

// subscribe forwards bus events into a buffered channel. Bursts that
// overflow the buffer are dropped; one pending event is enough to reload.
func subscribe(bus *event.Bus) (<-chan event.Event, func()) {
	ch := make(chan event.Event, 32)
	unsubscribe := bus.Subscribe(func(ev event.Event) {
		select {
		case ch <- ev:
		default:
		}
	})
	return ch, unsubscribe
}

// waitForEvent returns a tea.Cmd that blocks until the next bus event.
func waitForEvent(ch <-chan event.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return busEventMsg(ev)
	}
}

// drain discards queued events so one reload covers a burst.
func drain(ch <-chan event.Event) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
