package tui

import "time"

// tickMsg drives the dashboard loop at a fixed interval
type tickMsg time.Time
