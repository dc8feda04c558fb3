package services

import (
	"errors"
	"regexp"
	"strings"

	"github.com/grammarheroes/backend/internal/platform/apierr"
)

var displayNameRE = regexp.MustCompile(`^[A-Za-z0-9_]{3,16}$`)

// Substring blocklist for player-visible names. Deliberately small; the
// client runs the full filter, this is the server-side backstop.
var blockedNameParts = []string{
	"admin",
	"moderator",
	"fuck",
	"shit",
	"bitch",
	"cunt",
	"nigg",
	"fag",
}

// ValidateDisplayName enforces the name policy: 3-16 word characters, no
// blocklisted substrings.
func ValidateDisplayName(name string) error {
	if !displayNameRE.MatchString(name) {
		return apierr.Validation(errors.New("display name must be 3-16 letters, digits or underscores"))
	}
	lower := strings.ToLower(name)
	for _, part := range blockedNameParts {
		if strings.Contains(lower, part) {
			return apierr.Validation(errors.New("display name is not allowed"))
		}
	}
	return nil
}
