// Package session holds per-user conversation state across turns: the
// in-memory primary store and an optional Redis-backed external store, both
// satisfying the same Store contract so a caller never branches on backend.
package session

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested session does not exist.
var ErrNotFound = errors.New("session: not found")

// ErrConcurrentTurn is returned when append_turn's optimistic-concurrency
// check finds the stored counter has moved since the caller's last read.
var ErrConcurrentTurn = errors.New("session: concurrent turn")

// Status is a Session's lifecycle state.
type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// Turn is one completed exchange within a session.
type Turn struct {
	TurnID          string
	UserMessage     string
	Reply           string
	Timestamp       time.Time
	Experts         []string
	ExpertTimings   map[string]time.Duration
	Confidence      float64
	ModeratorRecord ModeratorRecord
}

// ModeratorRecord is the summary of a moderator pass retained in history.
type ModeratorRecord struct {
	DebateRounds    int
	ConsensusPoints []string
}

// Session is one user's ongoing multi-turn conversation.
type Session struct {
	ID                string
	Owner             string
	IssueCode         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Status            Status
	ConversationCount int
	History           []Turn
	Metadata          Metadata

	// version is the document schema version used by the external backend;
	// a session read from the in-memory backend is always the current
	// version since it is never serialized.
	version int
}

// Metadata is the session's accumulated bag of bookkeeping fields.
type Metadata struct {
	SelectedExperts     []string
	AccumulatedDuration time.Duration
	Extra               map[string]string
}

// Store is the session persistence contract. Every operation returns a
// typed result; none panic. append_turn is atomic: either the counter and
// history both advance, or neither does. expectedCount is the caller's
// pre-turn read of ConversationCount; a backend rejects the append with
// ErrConcurrentTurn if the stored counter has since moved.
type Store interface {
	Create(owner, issueCode string) (Session, error)
	Get(id string) (Session, error)
	AppendTurn(id string, expectedCount int, turn Turn) (Session, error)
	End(id string) error
	Delete(id string) error
	SweepExpired(now time.Time, idleTimeout time.Duration) (int, error)
}
