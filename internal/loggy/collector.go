package loggy

import "sync"

// Collector keeps the most recent log lines in memory so the TUI can show
// them without reading the log file. It is safe for concurrent use:
// background operations log from their own goroutines while the UI loop
// reads the lines every frame.
type Collector struct {
	mu    sync.Mutex
	lines []string
	max   int
}

// NewCollector creates a collector retaining at most max lines.
func NewCollector(max int) *Collector {
	if max <= 0 {
		max = 200
	}
	return &Collector{max: max}
}

// Append adds a line, evicting the oldest once the limit is reached.
func (c *Collector) Append(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
	if len(c.lines) > c.max {
		c.lines = c.lines[len(c.lines)-c.max:]
	}
}

// Lines returns a copy of the collected lines, oldest first.
func (c *Collector) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}
