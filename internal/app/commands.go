package app

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/novatasks/internal/model"
	"github.com/nhle/novatasks/internal/scheduler"
	"github.com/nhle/novatasks/internal/tracker"
)

// commandSuggestions are offered as completions in the command palette.
var commandSuggestions = []string{
	"today", "week", "overdue", "recurring", "all",
	"board", "list", "calendar",
	"sort custom", "sort deadline", "sort priority", "sort created", "sort title", "sort category",
	"category ", "priority ", "search ", "clear",
	"export ", "import ", "push", "pull", "tick",
	"notifications", "categories", "settings", "read all", "clear-all", "help", "quit",
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(input string) tea.Cmd {
	name, arg, _ := strings.Cut(strings.TrimSpace(input), " ")
	arg = strings.TrimSpace(arg)
	filter, _ := m.tracker.ViewState()

	switch strings.ToLower(name) {
	case "today", "week", "overdue", "recurring", "all":
		filter.Date = tracker.DateFilter(strings.ToLower(name))
		return m.applyFilter(filter)

	case "board":
		m.mode = ModeBoard
	case "list":
		m.mode = ModeList
	case "calendar", "cal":
		m.mode = ModeCalendar

	case "sort":
		for _, mode := range tracker.SortModes {
			if strings.EqualFold(arg, string(mode)) {
				m.tracker.SetSort(mode)
				return loadTasks(m.tracker)
			}
		}
		m.setError(fmt.Errorf("unknown sort mode %q", arg))

	case "category":
		if strings.EqualFold(arg, "all") {
			arg = ""
		}
		filter.Category = arg
		return m.applyFilter(filter)

	case "priority":
		switch {
		case arg == "" || strings.EqualFold(arg, "all"):
			filter.Priority = ""
		default:
			p, ok := parsePriority(arg)
			if !ok {
				m.setError(fmt.Errorf("unknown priority %q", arg))
				return nil
			}
			filter.Priority = p
		}
		return m.applyFilter(filter)

	case "search":
		filter.Query = arg
		return m.applyFilter(filter)

	case "clear":
		return m.applyFilter(tracker.Filter{Date: tracker.DateAll})

	case "export":
		if arg == "" {
			arg = "novatasks-export.json"
		}
		return exportTasks(m.tracker, arg)

	case "import":
		if arg == "" {
			m.setError(fmt.Errorf("import needs a file path"))
			return nil
		}
		return importTasks(m.tracker, arg)

	case "push":
		if m.syncer == nil {
			m.setError(errSyncDisabled)
			return nil
		}
		return pushRemote(m.syncer)

	case "pull":
		if m.syncer == nil {
			m.setError(errSyncDisabled)
			return nil
		}
		return pullRemote(m.syncer)

	case "tick", "refresh":
		return m.runChecks()

	case "notifications":
		m.openNotifications()

	case "read":
		return markAllRead(m.tracker)

	case "clear-all":
		m.askConfirm("Delete ALL tasks? This cannot be undone.", clearAll(m.tracker))

	case "categories":
		m.openCategories()

	case "settings", "config":
		return m.openSettings()

	case "help":
		m.switchTo(ViewHelp)

	case "quit", "q":
		return m.quit()

	default:
		m.setError(fmt.Errorf("unknown command %q", name))
	}
	return nil
}

func parsePriority(s string) (model.Priority, bool) {
	for _, p := range model.Priorities {
		if strings.EqualFold(s, string(p)) {
			return p, true
		}
	}
	return "", false
}

// runChecks asks the scheduler to run the recurring and deadline jobs now.
func (m *Model) runChecks() tea.Cmd {
	m.scheduler.Trigger(scheduler.JobRecurring)
	m.scheduler.Trigger(scheduler.JobDeadlines)
	m.status = "Running checks..."
	return nil
}
