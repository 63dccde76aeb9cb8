package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	statusPollInterval = time.Second
	dataPollInterval   = 10 * time.Second
)

// pollStatus creates a command to poll run status
func pollStatus(client *Client) tea.Cmd {
	return func() tea.Msg {
		status, err := client.GetStatus()
		return StatusUpdateMsg{Status: status, Err: err}
	}
}

func pollData(client *Client) tea.Cmd {
	return func() tea.Msg {
		data, err := client.GetData()
		return DataUpdateMsg{Data: data, Err: err}
	}
}

func trigger(client *Client, kind, path string, body any) tea.Cmd {
	return func() tea.Msg {
		res, err := client.Trigger(path, body)
		return TriggerDoneMsg{Kind: kind, Result: res, Err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(statusPollInterval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

func dataTickCmd() tea.Cmd {
	return tea.Tick(dataPollInterval, func(t time.Time) tea.Msg {
		return DataTickMsg{Time: t}
	})
}
