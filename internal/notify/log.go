package notify

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/botdash/botdash/internal/cache"
)

const (
	// Key is the cache key the log is stored under.
	Key = "notifications"

	// MaxLog is the maximum number of events retained.
	MaxLog = 100
)

// Event types.
const (
	TypeInfo    = "info"
	TypeSuccess = "success"
	TypeWarning = "warning"
	TypeError   = "error"
)

// Event roles.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// ErrRejected is returned by Input.Validate for a malformed event.
var ErrRejected = errors.New("notification rejected")

// Event is one stored notification. Events are immutable once appended.
type Event struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Input is an event as submitted by a client. It has no CreatedAt: the
// timestamp is always assigned by the server.
type Input struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Role    string `json:"role"`
}

// Validate checks that in names a known type and role and carries a message.
// Append does not call Validate; it is for the request boundary.
func (in Input) Validate() error {
	switch in.Type {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError:
	default:
		return fmt.Errorf("%w: type %q unknown: want info|success|warning|error", ErrRejected, in.Type)
	}
	switch in.Role {
	case RoleUser, RoleBot:
	default:
		return fmt.Errorf("%w: role %q unknown: want user|bot", ErrRejected, in.Role)
	}
	if strings.TrimSpace(in.Message) == "" {
		return fmt.Errorf("%w: message is required", ErrRejected)
	}
	return nil
}

// Log is a size-bounded, append-only event log held in a cache store.
// It is safe for concurrent use.
type Log struct {
	store *cache.Store[[]Event]
	now   func() time.Time // injectable for deterministic tests
}

// New creates a Log backed by st.
func New(st *cache.Store[[]Event]) *Log {
	return &Log{store: st, now: time.Now}
}

// List returns the live events, oldest first. It never returns nil.
func (l *Log) List() []Event {
	events, _ := l.store.Get(Key)
	return clone(events)
}

// Peek is List without counting as a cache lookup.
func (l *Log) Peek() []Event {
	events, _ := l.store.Peek(Key)
	return clone(events)
}

// Len returns the number of live events. It does not count as a cache
// lookup.
func (l *Log) Len() int {
	events, _ := l.store.Peek(Key)
	return len(events)
}

// Append stamps in with the current server time, adds it to the end of the
// log and returns the stored event. When the log already holds MaxLog
// events the oldest one is discarded first.
//
// The timestamp is taken under the store lock, so list order and CreatedAt
// order agree.
func (l *Log) Append(in Input) Event {
	var ev Event
	l.store.Update(Key, func(cur []Event, _ bool) []Event {
		ev = Event{
			Type:      in.Type,
			Message:   in.Message,
			Role:      in.Role,
			CreatedAt: l.now().UTC(),
		}
		if len(cur) >= MaxLog {
			cur = cur[len(cur)-MaxLog+1:]
		}
		// next never shares a backing array with cur.
		next := make([]Event, 0, len(cur)+1)
		next = append(next, cur...)
		return append(next, ev)
	})
	return ev
}

func clone(events []Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)
	return out
}
