package tui

// UI Text Constants
const (
	TextFooter = "Press 'p' pass | 'b' backfill (%d months) | 'g' digest | 'r' refresh | 'q' quit"
)
