package tui

import (
	"fmt"
	"time"

	"stockbot/state"

	tea "github.com/charmbracelet/bubbletea"
)

const maxLocalLogs = 8

// Model is the dashboard state (thin client polling the service).
type Model struct {
	Client     *Client
	MonthsBack int

	Status    *state.StatusResponse
	Data      *DataResponse
	Connected bool
	Err       error

	// Trigger kinds awaiting a response.
	Pending map[string]bool
	// Outcomes of triggers fired from this dashboard.
	Local   []string
}

// NewModel creates a new dashboard model
func NewModel(baseURL string, monthsBack int) Model {
	return Model{
		Client:     NewClient(baseURL),
		MonthsBack: monthsBack,
		Pending:    make(map[string]bool),
	}
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		pollStatus(m.Client),
		pollData(m.Client),
		tickCmd(),
		dataTickCmd(),
	)
}

func (m Model) addLocal(msg string) Model {
	line := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), msg)
	m.Local = append(m.Local, line)
	if len(m.Local) > maxLocalLogs {
		m.Local = m.Local[len(m.Local)-maxLocalLogs:]
	}
	return m
}
