package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case TickMsg:
		return m, tea.Batch(pollStatus(m.Client), tickCmd())
	case DataTickMsg:
		return m, tea.Batch(pollData(m.Client), dataTickCmd())
	case StatusUpdateMsg:
		return m.handleStatus(msg), nil
	case DataUpdateMsg:
		if msg.Err == nil {
			m.Data = msg.Data
		}
		return m, nil
	case TriggerDoneMsg:
		return m.handleTriggerDone(msg)
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "p", "P":
		return m.fire("pass", "/api/pass", nil)
	case "b", "B":
		return m.fire("backfill", "/api/backfill", map[string]int{"monthsBack": m.MonthsBack})
	case "g", "G":
		return m.fire("digest", "/api/digest", nil)
	case "r", "R":
		return m, pollData(m.Client)
	}
	return m, nil
}

// fire starts a trigger unless one of the same kind is already pending.
func (m Model) fire(kind, path string, body any) (tea.Model, tea.Cmd) {
	if m.Pending[kind] {
		return m, nil
	}
	pending := make(map[string]bool, len(m.Pending)+1)
	for k, v := range m.Pending {
		pending[k] = v
	}
	pending[kind] = true
	m.Pending = pending
	m = m.addLocal(fmt.Sprintf("%s triggered", kind))
	return m, trigger(m.Client, kind, path, body)
}

func (m Model) handleStatus(msg StatusUpdateMsg) Model {
	if msg.Err != nil {
		m.Connected = false
		m.Err = msg.Err
		return m
	}
	m.Connected = true
	m.Err = nil
	m.Status = msg.Status
	return m
}

func (m Model) handleTriggerDone(msg TriggerDoneMsg) (tea.Model, tea.Cmd) {
	pending := make(map[string]bool, len(m.Pending))
	for k, v := range m.Pending {
		if k != msg.Kind {
			pending[k] = v
		}
	}
	m.Pending = pending

	switch {
	case msg.Err != nil:
		m = m.addLocal(fmt.Sprintf("%s failed: %v", msg.Kind, msg.Err))
	case !msg.Result.Success:
		m = m.addLocal(fmt.Sprintf("%s failed: %s", msg.Kind, msg.Result.Error))
	default:
		text := msg.Kind + " done"
		if msg.Result.Message != "" {
			text += ": " + msg.Result.Message
		}
		m = m.addLocal(text)
	}
	return m, pollData(m.Client)
}
