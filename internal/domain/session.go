package domain

import (
	"fmt"
	"strings"
)

// Session is the AM or PM half of a daily route.
type Session string

const (
	SessionAM Session = "AM"
	SessionPM Session = "PM"
)

// Sessions lists both halves in display order.
var Sessions = []Session{SessionAM, SessionPM}

// ParseSession accepts "am"/"pm" in any case, surrounded by optional whitespace.
func ParseSession(s string) (Session, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AM":
		return SessionAM, nil
	case "PM":
		return SessionPM, nil
	default:
		return "", fmt.Errorf("parse session: unknown session %q", s)
	}
}

// Other returns the opposite session.
func (s Session) Other() Session {
	if s == SessionAM {
		return SessionPM
	}
	return SessionAM
}
