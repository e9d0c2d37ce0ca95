package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeRunes(m *Model, s string) {
	for _, r := range s {
		m.confirm.HandleKey(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestRevertConfirmAcceptsTotalWithinSlack(t *testing.T) {
	m, _ := newTestModel(t)
	require.True(t, m.confirm.OpenRevert("h1", "apricot-dawn", 12.5))

	typeRunes(m, "12.52")
	m.confirm.HandleKey(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ConfirmNone, m.confirm.Active())
	assert.True(t, m.ops.Live(CategoryRevert))
}

func TestRevertConfirmRejectsWrongTotal(t *testing.T) {
	m, _ := newTestModel(t)
	require.True(t, m.confirm.OpenRevert("h1", "apricot-dawn", 12.5))

	typeRunes(m, "11")
	m.confirm.HandleKey(m, tea.KeyMsg{Type: tea.KeyEnter})

	// Stays open, nothing reverted
	assert.Equal(t, ConfirmRevert, m.confirm.Active())
	assert.NotEmpty(t, m.confirm.inputErr)
	assert.False(t, m.ops.Live(CategoryRevert))

	// A corrected total still goes through
	typeRunes(m, "12.5")
	m.confirm.HandleKey(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ConfirmNone, m.confirm.Active())
	assert.True(t, m.ops.Live(CategoryRevert))
}

func TestRevertConfirmIgnoresNonNumericRunes(t *testing.T) {
	m, _ := newTestModel(t)
	require.True(t, m.confirm.OpenRevert("h1", "apricot-dawn", 4))

	typeRunes(m, "abc4xyz")
	assert.Equal(t, "4", m.confirm.input)
}

func TestRevertConfirmEscAborts(t *testing.T) {
	m, _ := newTestModel(t)
	require.True(t, m.confirm.OpenRevert("h1", "apricot-dawn", 4))

	m.confirm.HandleKey(m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, ConfirmNone, m.confirm.Active())
	assert.False(t, m.ops.Live(CategoryRevert))
}

func TestDailySuggestedHours(t *testing.T) {
	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		requested float64
		existing  float64
		limit     float64
		suggested float64
	}{
		{"room left under the limit", 5, 6, 8, 2},
		{"day already full", 3, 8, 8, 0},
		{"day over the limit", 1, 9.5, 8, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t)
			require.True(t, m.confirm.OpenDaily("PROJ-1", day, tt.requested, tt.existing, tt.limit))
			assert.InDelta(t, tt.suggested, m.confirm.dailySuggested, 1e-9)
		})
	}
}

func TestDailySkipClosesWithoutWizard(t *testing.T) {
	m, _ := newTestModel(t)
	require.True(t, m.confirm.OpenDaily("PROJ-1", time.Now(), 5, 6, 8))

	m.confirm.HandleKey(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})

	assert.Equal(t, ConfirmNone, m.confirm.Active())
}

func TestModalPriority(t *testing.T) {
	m, _ := newTestModel(t)
	require.True(t, m.confirm.OpenRevert("h1", "apricot-dawn", 4))

	// An active modal blocks newly eligible ones
	assert.False(t, m.confirm.OpenDaily("PROJ-1", time.Now(), 5, 6, 8))
	assert.False(t, m.confirm.OpenUnlink("mtg1", "standup"))
	assert.Equal(t, ConfirmRevert, m.confirm.Active())

	// Except the wizard-cancel confirmation, which replaces it
	assert.True(t, m.confirm.OpenWizardCancel())
	assert.Equal(t, ConfirmWizardCancel, m.confirm.Active())
}
