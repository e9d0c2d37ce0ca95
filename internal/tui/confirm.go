package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// revertSlack is the tolerance when the operator types the hour total
// of a revert target
const revertSlack = 0.05

// ConfirmKind identifies the active modal, if any. At most one modal
// is active; the wizard-cancel confirmation outranks whatever is shown.
type ConfirmKind int

const (
	ConfirmNone ConfirmKind = iota
	ConfirmRevert
	ConfirmDaily
	ConfirmGapFill
	ConfirmUnlink
	ConfirmWizardCancel
)

// DailyChoice is the operator's answer to a daily-ceiling detour
type DailyChoice int

const (
	// DailyFull logs the full requested hours despite the ceiling
	DailyFull DailyChoice = iota
	// DailyPartial logs only the hours left under the ceiling
	DailyPartial
	// DailySkip logs nothing and moves on
	DailySkip
)

// Confirm is the modal stack. Key input reaches it before any other
// routing while a modal is active; declining any modal never touches
// domain state.
type Confirm struct {
	kind ConfirmKind

	// revert
	historyID     string
	historyName   string
	expectedHours float64
	input         string
	inputErr      string

	// daily ceiling detour
	dailyIssue     string
	dailyDay       time.Time
	dailyRequested float64
	dailySuggested float64

	// gap fill
	gapIssue string
	gapDays  int

	// unlink
	meetingID    string
	meetingTitle string
}

// NewConfirm creates an empty modal stack
func NewConfirm() *Confirm {
	return &Confirm{}
}

// Active returns the current modal kind
func (c *Confirm) Active() ConfirmKind {
	return c.kind
}

// open installs a modal subject to the priority rule: an active modal
// blocks newly eligible ones, except the wizard-cancel confirmation
// which replaces whatever is shown.
func (c *Confirm) open(kind ConfirmKind) bool {
	if c.kind != ConfirmNone && kind != ConfirmWizardCancel {
		return false
	}
	c.reset()
	c.kind = kind
	return true
}

func (c *Confirm) reset() {
	*c = Confirm{}
}

// OpenRevert asks for the typed hour total before a revert
func (c *Confirm) OpenRevert(historyID, historyName string, expectedHours float64) bool {
	if !c.open(ConfirmRevert) {
		return false
	}
	c.historyID = historyID
	c.historyName = historyName
	c.expectedHours = expectedHours
	return true
}

// OpenDaily asks full/partial/skip when a worklog would cross the
// daily ceiling. Suggested is the room left under the ceiling, never
// negative.
func (c *Confirm) OpenDaily(issueKey string, day time.Time, requested, existing, limit float64) bool {
	if !c.open(ConfirmDaily) {
		return false
	}
	c.dailyIssue = issueKey
	c.dailyDay = day
	c.dailyRequested = requested
	c.dailySuggested = math.Max(limit-existing, 0)
	return true
}

// OpenGapFill asks whether to fill under-logged days on an issue
func (c *Confirm) OpenGapFill(issueKey string, gapDays int) bool {
	if !c.open(ConfirmGapFill) {
		return false
	}
	c.gapIssue = issueKey
	c.gapDays = gapDays
	return true
}

// OpenUnlink asks before clearing a meeting's issue link
func (c *Confirm) OpenUnlink(meetingID, meetingTitle string) bool {
	if !c.open(ConfirmUnlink) {
		return false
	}
	c.meetingID = meetingID
	c.meetingTitle = meetingTitle
	return true
}

// OpenWizardCancel asks before rolling a wizard run back. Replaces
// any active modal.
func (c *Confirm) OpenWizardCancel() bool {
	return c.open(ConfirmWizardCancel)
}

// HandleKey routes a key press to the active modal. Returns true when
// the key was consumed.
func (c *Confirm) HandleKey(m *Model, msg tea.KeyMsg) bool {
	if c.kind == ConfirmNone {
		return false
	}

	switch c.kind {
	case ConfirmRevert:
		c.handleRevertKey(m, msg)
	case ConfirmDaily:
		c.handleDailyKey(m, msg)
	case ConfirmGapFill:
		c.handleGapFillKey(m, msg)
	case ConfirmUnlink:
		c.handleUnlinkKey(m, msg)
	case ConfirmWizardCancel:
		c.handleWizardCancelKey(m, msg)
	}
	return true
}

func (c *Confirm) handleRevertKey(m *Model, msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEsc:
		c.reset()
	case tea.KeyBackspace:
		if len(c.input) > 0 {
			c.input = c.input[:len(c.input)-1]
		}
	case tea.KeyEnter:
		typed, err := strconv.ParseFloat(strings.TrimSpace(c.input), 64)
		if err != nil {
			c.inputErr = "enter the hour total as a number"
			return
		}
		if math.Abs(typed-c.expectedHours) > revertSlack {
			c.inputErr = fmt.Sprintf("that is not the total of %s (%.2fh)", c.historyName, c.expectedHours)
			c.input = ""
			return
		}
		historyID := c.historyID
		c.reset()
		m.requestRevert(historyID)
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if (r >= '0' && r <= '9') || r == '.' {
				c.input += string(r)
			}
		}
		c.inputErr = ""
	}
}

func (c *Confirm) handleDailyKey(m *Model, msg tea.KeyMsg) {
	switch msg.String() {
	case "f":
		c.resolveDaily(m, DailyFull)
	case "p":
		c.resolveDaily(m, DailyPartial)
	case "s", "esc":
		c.resolveDaily(m, DailySkip)
	}
}

func (c *Confirm) resolveDaily(m *Model, choice DailyChoice) {
	hours := c.dailyRequested
	if choice == DailyPartial {
		hours = c.dailySuggested
	}
	c.reset()
	m.wizard.resolveDailyDetour(m, choice, hours)
}

func (c *Confirm) handleGapFillKey(m *Model, msg tea.KeyMsg) {
	switch msg.String() {
	case "y", "enter":
		c.reset()
		m.wizard.acceptGapFill(m)
	case "n", "esc":
		c.reset()
		m.wizard.declineGapFill(m)
	}
}

func (c *Confirm) handleUnlinkKey(m *Model, msg tea.KeyMsg) {
	switch msg.String() {
	case "y", "enter":
		meetingID := c.meetingID
		c.reset()
		m.unlinkMeeting(meetingID)
	case "n", "esc":
		c.reset()
	}
}

func (c *Confirm) handleWizardCancelKey(m *Model, msg tea.KeyMsg) {
	switch msg.String() {
	case "y", "enter":
		c.reset()
		m.wizard.confirmCancel(m)
	case "n", "esc":
		c.reset()
	}
}
