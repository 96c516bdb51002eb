// Package session holds the in-memory conversation sessions keyed by the raw
// sender identifier. Sessions live for the process lifetime only and are
// evicted once idle longer than the configured TTL.
package session

import "time"

// State is a conversation state.
type State string

const (
	StateAwaitingLanguage             State = "AWAITING_LANGUAGE"
	StateMainMenu                     State = "MAIN_MENU"
	StateAwaitingMaintenanceType      State = "AWAITING_MAINTENANCE_TYPE"
	StateAwaitingPriority             State = "AWAITING_PRIORITY"
	StateAwaitingDescription          State = "AWAITING_DESCRIPTION"
	StateAwaitingComplaintCategory    State = "AWAITING_COMPLAINT_CATEGORY"
	StateAwaitingComplaintDescription State = "AWAITING_COMPLAINT_DESCRIPTION"
	StateCompleted                    State = "COMPLETED"
)

// States lists every valid state.
var States = []State{
	StateAwaitingLanguage,
	StateMainMenu,
	StateAwaitingMaintenanceType,
	StateAwaitingPriority,
	StateAwaitingDescription,
	StateAwaitingComplaintCategory,
	StateAwaitingComplaintDescription,
	StateCompleted,
}

// Valid reports whether s is one of the fixed states.
func (s State) Valid() bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}

// Language is the tenant's chosen reply language.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
)

// Flow identifies which request flow a draft belongs to.
type Flow string

const (
	FlowNone        Flow = ""
	FlowMaintenance Flow = "maintenance"
	FlowComplaint   Flow = "complaint"
)

// Draft is the data collected while a request flow is in progress.
// Category and Priority hold the option tokens as selected; they are
// normalized by the intake service.
type Draft struct {
	Flow     Flow
	Category string
	Priority string
}

// Empty reports whether nothing has been collected.
func (d Draft) Empty() bool {
	return d == Draft{}
}

// Session is the conversation state of one sender.
type Session struct {
	SenderKey    string
	Language     Language
	State        State
	Draft        Draft
	LastActivity time.Time
	// Created is true only while the reducer of the upsert that created the
	// session runs, and in the snapshot that upsert returns.
	Created bool
}

// Reset returns the session to the given state and clears the draft.
func (s *Session) Reset(to State) {
	s.State = to
	s.Draft = Draft{}
}

func newSession(key string, now time.Time) Session {
	return Session{
		SenderKey:    key,
		State:        StateAwaitingLanguage,
		LastActivity: now,
		Created:      true,
	}
}
