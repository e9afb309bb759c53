package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // nothing is emitted live; the ring still records heartbeats
	LevelPhase        // driver + per-file boundaries
	LevelDetail       // per-case events
	LevelDebug        // node-level decisions
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

// widest scope each level lets through; zero means none
var levelScopes = [...]Scope{
	LevelPhase:  ScopePass,
	LevelDetail: ScopeCase,
	LevelDebug:  ScopeNode,
}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a flag value to a Level.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LevelOff, nil
	}
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// ShouldEmit reports whether events of scope pass this level.
func (l Level) ShouldEmit(scope Scope) bool {
	if int(l) >= len(levelScopes) {
		return false
	}
	return scope > 0 && scope <= levelScopes[l]
}

// admit is the filter every sink applies: scope gating plus heartbeats,
// which pass any enabled level.
func admit(l Level, ev *Event) bool {
	if l == LevelOff {
		return false
	}
	return ev.Kind == KindHeartbeat || l.ShouldEmit(ev.Scope)
}
