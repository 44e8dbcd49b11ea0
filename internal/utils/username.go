package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

var disallowedChars = regexp.MustCompile(`[^a-z0-9_]`)

// reservedUsernames are path segments the frontend routes on; a profile with
// one of these handles would shadow an application page.
var reservedUsernames = map[string]struct{}{
	"dashboard": {},
	"login":     {},
	"register":  {},
	"admin":     {},
}

const (
	usernameMinLen = 3
	usernameMaxLen = 50
)

// ValidateUsername checks length, character set, and reserved-word rules for a
// user-chosen handle.
func ValidateUsername(username string) error {
	if len(username) < usernameMinLen || len(username) > usernameMaxLen {
		return fmt.Errorf("username must be between %d and %d characters", usernameMinLen, usernameMaxLen)
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("username may only contain letters, numbers, and underscores")
	}
	if _, reserved := reservedUsernames[strings.ToLower(username)]; reserved {
		return fmt.Errorf("username %q is reserved", username)
	}
	return nil
}

// DeriveUsernameBase turns a login identifier (email or handle) into a
// username candidate: lowercased, local part only, disallowed characters
// stripped.
func DeriveUsernameBase(identifier string) string {
	base := strings.ToLower(identifier)
	if at := strings.Index(base, "@"); at >= 0 {
		base = base[:at]
	}
	base = disallowedChars.ReplaceAllString(base, "")
	if base == "" {
		base = "user"
	}
	if len(base) > usernameMaxLen-5 {
		base = base[:usernameMaxLen-5]
	}
	return base
}

// SuffixedUsername appends a random 4-digit suffix to a base candidate.
func SuffixedUsername(base string) (string, error) {
	n, err := RandomIntInRange(1000, 9999)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", base, n), nil
}

// TimestampUsername is the last-resort candidate after repeated collisions:
// base plus the trailing digits of the current unix time in milliseconds.
func TimestampUsername(base string) string {
	millis := fmt.Sprintf("%d", time.Now().UnixMilli())
	return base + millis[len(millis)-4:]
}
