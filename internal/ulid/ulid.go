// Package ulid generates prefixed ULIDs for the worklog application.
// ULIDs sort lexicographically by creation time, which keeps database
// indexes on id columns in insertion order.
package ulid

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Prefixes for the different record kinds.
const (
	PrefixMeeting = "mtg"
	PrefixWorklog = "wl"
	PrefixHistory = "hist"
	PrefixSession = "sess"
	PrefixSetting = "set"

	prefixSeparator = "-"
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// Generate creates a new ULID string with the current timestamp.
func Generate() string {
	entropyLock.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	entropyLock.Unlock()
	return id.String()
}

// GenerateWithPrefix creates a new ULID string prefixed with kind context,
// e.g. "wl-01AN4Z07BY79KA1307SR9X4MV3".
func GenerateWithPrefix(prefix string) string {
	return prefix + prefixSeparator + Generate()
}

// Validate reports whether id is a valid, optionally prefixed ULID.
func Validate(id string) bool {
	raw := id
	if i := strings.Index(id, prefixSeparator); i >= 0 {
		raw = id[i+1:]
	}
	_, err := ulid.Parse(raw)
	return err == nil
}

// Time extracts the timestamp component of an optionally prefixed ULID.
// Returns the zero time if id does not parse.
func Time(id string) time.Time {
	raw := id
	if i := strings.Index(id, prefixSeparator); i >= 0 {
		raw = id[i+1:]
	}
	parsed, err := ulid.Parse(raw)
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(parsed.Time())
}

// Domain-specific ID helpers.

// MeetingID generates a new ULID with the meeting prefix
func MeetingID() string { return GenerateWithPrefix(PrefixMeeting) }

// WorklogID generates a new ULID with the worklog prefix
func WorklogID() string { return GenerateWithPrefix(PrefixWorklog) }

// HistoryID generates a new ULID with the history prefix
func HistoryID() string { return GenerateWithPrefix(PrefixHistory) }

// SessionID generates a new ULID with the session prefix
func SessionID() string { return GenerateWithPrefix(PrefixSession) }

// SettingID generates a new ULID with the setting prefix
func SettingID() string { return GenerateWithPrefix(PrefixSetting) }
