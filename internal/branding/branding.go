// Package branding provides embedded flavor text for the dashboard.
// All lookups degrade silently so a missing category never breaks a
// caller.
package branding

import (
	_ "embed"
	"encoding/json"
	"math/rand"
	"strings"
)

//go:embed branding.json
var brandingJSON []byte

// SecretSequence describes a hidden key sequence and what it unlocks
type SecretSequence struct {
	Keys        string `json:"keys"`
	Achievement string `json:"achievement"`
}

// Branding holds the flavor text categories and secrets
type Branding struct {
	Mascot     string                    `json:"mascot"`
	Categories map[string][]string       `json:"categories"`
	Sequences  map[string]SecretSequence `json:"sequences"`
}

// Load parses the embedded branding file. On any parse failure an
// empty Branding is returned so callers never have to special-case it.
func Load() *Branding {
	var b Branding
	if err := json.Unmarshal(brandingJSON, &b); err != nil {
		return &Branding{Categories: map[string][]string{}, Sequences: map[string]SecretSequence{}}
	}
	if b.Categories == nil {
		b.Categories = map[string][]string{}
	}
	if b.Sequences == nil {
		b.Sequences = map[string]SecretSequence{}
	}
	return &b
}

// Text returns a random snippet from a category, "" when the category
// is empty or unknown
func (b *Branding) Text(category string) string {
	msgs := b.Categories[category]
	if len(msgs) == 0 {
		return ""
	}
	return msgs[rand.Intn(len(msgs))]
}

// All returns every snippet in a category
func (b *Branding) All(category string) []string {
	return b.Categories[category]
}

// MatchSequence returns the achievement of the secret sequence the
// typed buffer ends with, "" when none matches. Suffix matching keeps
// short sequences reachable inside a buffer sized for the longest one.
func (b *Branding) MatchSequence(buf string) (string, bool) {
	for _, seq := range b.Sequences {
		if seq.Keys != "" && strings.HasSuffix(buf, seq.Keys) {
			return seq.Achievement, true
		}
	}
	return "", false
}

// MaxSequenceLen returns the length of the longest secret sequence
func (b *Branding) MaxSequenceLen() int {
	max := 0
	for _, seq := range b.Sequences {
		if len(seq.Keys) > max {
			max = len(seq.Keys)
		}
	}
	return max
}
