package notify

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/novatasks/internal/model"
)

const (
	// DefaultMaxEntries caps the log length.
	DefaultMaxEntries = 50

	// DefaultRetention is how old an entry may be when the log is loaded.
	DefaultRetention = 7 * 24 * time.Hour
)

// Log is the bounded notification history, newest first. It is safe for
// concurrent use.
type Log struct {
	mu        sync.Mutex
	items     []model.Notification
	max       int
	retention time.Duration
}

// NewLog creates an empty log. Non-positive limits fall back to the defaults.
func NewLog(maxEntries int, retention time.Duration) *Log {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Log{max: maxEntries, retention: retention}
}

// Load replaces the log contents with persisted entries, dropping entries
// older than the retention period and anything beyond the cap.
func (l *Log) Load(items []model.Notification, now time.Time) {
	kept := make([]model.Notification, 0, len(items))
	for _, n := range items {
		if now.Sub(n.Timestamp) < l.retention {
			kept = append(kept, n)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Timestamp.After(kept[j].Timestamp)
	})
	if len(kept) > l.max {
		kept = kept[:l.max]
	}

	l.mu.Lock()
	l.items = kept
	l.mu.Unlock()
}

// Append records req at now and returns the stored entry. The oldest
// entries are dropped once the cap is exceeded.
func (l *Log) Append(req model.NotificationRequest, now time.Time) model.Notification {
	kind := req.Kind
	if kind == "" {
		kind = model.KindInfo
	}
	n := model.Notification{
		ID:        uuid.New().String(),
		Message:   req.Message,
		Kind:      kind,
		TaskID:    req.TaskID,
		Timestamp: now,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = append([]model.Notification{n}, l.items...)
	if len(l.items) > l.max {
		l.items = l.items[:l.max]
	}
	return n
}

// Recent returns the entries younger than within, newest first.
func (l *Log) Recent(within time.Duration, now time.Time) []model.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []model.Notification
	for _, n := range l.items {
		if now.Sub(n.Timestamp) < within {
			out = append(out, n)
		}
	}
	return out
}

// Items returns a copy of every entry, newest first.
func (l *Log) Items() []model.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.Notification, len(l.items))
	copy(out, l.items)
	return out
}

// MarkRead flags a single entry as read. It reports whether id was found.
func (l *Log) MarkRead(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.items {
		if l.items[i].ID == id {
			l.items[i].Read = true
			return true
		}
	}
	return false
}

// MarkAllRead flags every entry as read.
func (l *Log) MarkAllRead() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.items {
		l.items[i].Read = true
	}
}

// Remove deletes an entry. It reports whether id was found.
func (l *Log) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.items {
		if l.items[i].ID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// UnreadCount returns the number of unread entries.
func (l *Log) UnreadCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	for _, n := range l.items {
		if !n.Read {
			count++
		}
	}
	return count
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}
