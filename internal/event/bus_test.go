package event

import "testing"

func TestPublishReachesSubscribersInOrder(t *testing.T) {
	b := NewBus(nil)

	var got []string
	b.Subscribe(func(ev Event) { got = append(got, "first:"+ev.TaskID) })
	b.Subscribe(func(ev Event) { got = append(got, "second:"+ev.TaskID) })

	b.Publish(Event{Type: TaskCreated, TaskID: "t1"})

	if len(got) != 2 || got[0] != "first:t1" || got[1] != "second:t1" {
		t.Fatalf("got %v", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := NewBus(nil)

	calls := 0
	unsub := b.Subscribe(func(Event) { calls++ })
	b.Publish(Event{Type: TaskUpdated})

	unsub()
	unsub()
	b.Publish(Event{Type: TaskUpdated})

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if b.Len() != 0 {
		t.Fatalf("Len = %d, want 0", b.Len())
	}
}

func TestUnsubscribeKeepsOthers(t *testing.T) {
	b := NewBus(nil)

	var got []int
	b.Subscribe(func(Event) { got = append(got, 1) })
	unsub := b.Subscribe(func(Event) { got = append(got, 2) })
	b.Subscribe(func(Event) { got = append(got, 3) })

	unsub()
	b.Publish(Event{Type: TasksReloaded})

	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("got %v, want [1 3]", got)
	}
}

func TestPanickingHandlerDoesNotStopDelivery(t *testing.T) {
	b := NewBus(nil)

	reached := false
	b.Subscribe(func(Event) { panic("boom") })
	b.Subscribe(func(Event) { reached = true })

	b.Publish(Event{Type: NotificationsChanged})

	if !reached {
		t.Fatal("second handler not called after panic")
	}
}

func TestSubscribeDuringPublish(t *testing.T) {
	b := NewBus(nil)

	late := 0
	b.Subscribe(func(Event) {
		b.Subscribe(func(Event) { late++ })
	})

	b.Publish(Event{Type: TaskDeleted})
	if late != 0 {
		t.Fatalf("handler added during publish ran in the same publish")
	}
	b.Publish(Event{Type: TaskDeleted})
	if late != 1 {
		t.Fatalf("late = %d, want 1", late)
	}
}
