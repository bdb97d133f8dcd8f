package tracker

import (
	"strings"

	"go.uber.org/zap"
)

// Signal is a parsed readiness declaration from a chat message.
type Signal struct {
	User    string
	Dynasty string
}

// Classify inspects free-form message text for a readiness declaration:
// a configured dynasty id together with the token "READY", in any order
// ("ADHNN ready", "ready for adhnn now", ...). The author's display name is
// matched against the tracked users by case-insensitive substring. Both
// matches are first-wins in configuration order; an unmatched author on a
// matched dynasty is logged and dropped.
func (t *Tracker) Classify(text, author string) (Signal, bool) {
	content := strings.ToUpper(text)

	for _, dynasty := range t.dynasties {
		if !strings.Contains(content, dynasty) || !strings.Contains(content, "READY") {
			continue
		}

		upperAuthor := strings.ToUpper(author)
		for _, user := range t.users {
			if strings.Contains(upperAuthor, strings.ToUpper(user)) {
				t.log.Info("ready message detected",
					zap.String("author", author),
					zap.String("user", user),
					zap.String("dynasty", dynasty),
				)
				return Signal{User: user, Dynasty: dynasty}, true
			}
		}

		t.log.Warn("author not tracked",
			zap.String("author", author),
			zap.String("dynasty", dynasty),
		)
		return Signal{}, false
	}

	return Signal{}, false
}
