package notifications

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/novatasks/internal/keys"
	"github.com/nhle/novatasks/internal/model"
)

func press(m Model, s string) (Model, tea.Msg) {
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	if cmd == nil {
		return m, nil
	}
	return m, cmd()
}

func newPanel() Model {
	now := func() time.Time { return time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC) }
	m := New(keys.DefaultKeyMap(), now, 100, 20)
	m.SetItems([]model.Notification{
		{ID: "n2", Message: "Task due soon", Kind: model.KindWarning, TaskID: "t1", Timestamp: now().Add(-time.Minute)},
		{ID: "n1", Message: "Synced with remote database", Kind: model.KindSuccess, Read: true, Timestamp: now().Add(-time.Hour)},
	})
	return m
}

func TestKeysEmitMessages(t *testing.T) {
	m := newPanel()

	if _, msg := press(m, "m"); msg != (MarkReadMsg{ID: "n2"}) {
		t.Errorf("m = %#v", msg)
	}
	if _, msg := press(m, "M"); msg != (MarkAllReadMsg{}) {
		t.Errorf("M = %#v", msg)
	}

	m, _ = press(m, "j")
	if _, msg := press(m, "d"); msg != (RemoveMsg{ID: "n1"}) {
		t.Errorf("d = %#v", msg)
	}
}

func TestEnterOpensLinkedTask(t *testing.T) {
	m := newPanel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if msg := cmd(); msg != (OpenTaskMsg{NotificationID: "n2", TaskID: "t1"}) {
		t.Errorf("enter = %#v", msg)
	}
}

func TestSetItemsClampsCursor(t *testing.T) {
	m := newPanel()
	m, _ = press(m, "j")
	m.SetItems(m.items[:1])
	if n, ok := m.Selected(); !ok || n.ID != "n2" {
		t.Errorf("Selected = %+v, %v", n, ok)
	}
}

func TestViewShowsUnreadCount(t *testing.T) {
	if out := newPanel().View(); !strings.Contains(out, "1 unread") {
		t.Errorf("view missing unread count:\n%s", out)
	}
}
