package notify

import (
	"context"
	"sync"

	"docbind/internal/common"
)

// Level is the kind of a user-visible notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelDanger
)

var levelNames = [...]string{
	LevelInfo:    "info",
	LevelSuccess: "success",
	LevelWarning: "warning",
	LevelDanger:  "danger",
}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return common.UnknownStr
	}

	return levelNames[l]
}

// Notification is one message for the user.
type Notification struct {
	Level   Level
	Message string
	// Err is the failure behind a warning or danger notification, if any.
	Err error
}

// Notifier delivers notifications. Implementations must be safe for
// concurrent use and must not block for long.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n Notification)

// Notify calls f.
func (f Func) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Discard drops every notification.
var Discard Notifier = Func(func(context.Context, Notification) {})

// Multi fans a notification out to several notifiers in order.
func Multi(notifiers ...Notifier) Notifier {
	return Func(func(ctx context.Context, n Notification) {
		for _, nt := range notifiers {
			if nt != nil {
				nt.Notify(ctx, n)
			}
		}
	})
}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

// Notify implements Notifier.
func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent = append(r.sent, n)
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Notification{}, r.sent...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sent) == 0 {
		return Notification{}, false
	}

	return r.sent[len(r.sent)-1], true
}

// Count returns how many notifications of level were recorded.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, s := range r.sent {
		if s.Level == level {
			n++
		}
	}

	return n
}
