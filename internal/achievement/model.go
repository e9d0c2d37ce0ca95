// Package achievement provides the achievement set and unlock storage
package achievement

import "time"

// Achievement identifies one achievement in the closed set
type Achievement string

const (
	// WizardApprentice unlocks on the first completed wizard run
	WizardApprentice Achievement = "wizard_apprentice"
	// CuriousExplorer unlocks on opening the about panel
	CuriousExplorer Achievement = "curious_explorer"
	// SecretFriend unlocks through the hidden key sequence
	SecretFriend Achievement = "secret_friend"
	// TheUndoer unlocks on the first revert
	TheUndoer Achievement = "the_undoer"
	// TimelineFixer unlocks when a push contains work logged more
	// than 60 days in the past
	TimelineFixer Achievement = "timeline_fixer"
	// RepeatPusher unlocks after pushing three or more times for
	// the same day
	RepeatPusher Achievement = "repeat_pusher"
	// AutoLinkMaster unlocks when ten or more meetings are all
	// auto-linked
	AutoLinkMaster Achievement = "auto_link_master"
	// DeclinedButLogged unlocks when a push logs time for a
	// declined meeting
	DeclinedButLogged Achievement = "declined_but_logged"
)

// All returns every achievement in display order
func All() []Achievement {
	return []Achievement{
		WizardApprentice,
		CuriousExplorer,
		SecretFriend,
		TheUndoer,
		TimelineFixer,
		RepeatPusher,
		AutoLinkMaster,
		DeclinedButLogged,
	}
}

// Valid reports whether a is part of the closed set
func (a Achievement) Valid() bool {
	for _, known := range All() {
		if a == known {
			return true
		}
	}
	return false
}

// Meta describes an achievement for display
type Meta struct {
	ID          Achievement
	Name        string
	Description string
	Icon        string
	Secret      bool
}

// Meta returns the display metadata for an achievement
func (a Achievement) Meta() Meta {
	switch a {
	case WizardApprentice:
		return Meta{a, "Apprentice", "Complete your first wizard run", "🧙", false}
	case CuriousExplorer:
		return Meta{a, "Curious Explorer", "Discover the about panel", "🔍", false}
	case SecretFriend:
		return Meta{a, "Secret Achievement", "???", "🔒", true}
	case TheUndoer:
		return Meta{a, "The Undoer", "Revert worklogs for the first time", "🔙", false}
	case TimelineFixer:
		return Meta{a, "Timeline Fixer", "Log work for a day more than 60 days in the past", "⏰", false}
	case RepeatPusher:
		return Meta{a, "Repeat Pusher", "Push worklogs three or more times for the same day", "📚", false}
	case AutoLinkMaster:
		return Meta{a, "Auto-Link Master", "Have ten or more meetings all automatically linked", "🤖", false}
	case DeclinedButLogged:
		return Meta{a, "Still Committed", "Log time for a meeting you declined", "🙅", false}
	default:
		return Meta{a, string(a), "", "", false}
	}
}

// Unlock records when an achievement was earned
type Unlock struct {
	Achievement Achievement
	UnlockedAt  time.Time
}
