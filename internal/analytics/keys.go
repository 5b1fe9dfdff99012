package analytics

import (
	"strings"
	"unicode"

	"github.com/sadopc/tempo/internal/store"
)

const (
	// UncategorizedTopic labels entries whose task has no topic.
	UncategorizedTopic = "Uncategorized"
	untitledTask       = "Untitled"
	maxKeyRunes        = 64
)

// SanitizeKey makes a user-supplied label safe to use as a bucket key: it drops
// non-printable runes, turns path separators into dashes, trims, and caps the
// length. An empty result becomes fallback.
func SanitizeKey(s, fallback string) string {
	var b strings.Builder
	n := 0
	for _, r := range s {
		if n == maxKeyRunes {
			break
		}
		switch {
		case r == '/' || r == '\\':
			r = '-'
		case !unicode.IsPrint(r):
			continue
		}
		b.WriteRune(r)
		n++
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return fallback
	}
	return out
}

// TopicKey is the sanitized topic label of an entry.
func TopicKey(e store.TimeEntry) string {
	return SanitizeKey(e.TaskTopic, UncategorizedTopic)
}

// GroupKey is the "topic/title" label used by range grouping.
func GroupKey(e store.TimeEntry) string {
	return TopicKey(e) + "/" + SanitizeKey(e.TaskTitle, untitledTask)
}
