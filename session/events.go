package session

import (
	"time"

	"github.com/jrsteele09/visitor-session/users"
)

// EventKind names a transition outcome delivered to observers.
type EventKind string

const (
	EventLoginSucceeded      EventKind = "login_succeeded"
	EventLoginFailed         EventKind = "login_failed"
	EventLoggedOut           EventKind = "logged_out"
	EventProfileUpdated      EventKind = "profile_updated"
	EventProfileUpdateFailed EventKind = "profile_update_failed"
	EventProfileRefreshed    EventKind = "profile_refreshed"
	EventSessionEnded        EventKind = "session_ended"
)

// EventKinds lists every kind in a stable order.
var EventKinds = []EventKind{
	EventLoginSucceeded,
	EventLoginFailed,
	EventLoggedOut,
	EventProfileUpdated,
	EventProfileUpdateFailed,
	EventProfileRefreshed,
	EventSessionEnded,
}

// EndReason says why a session ended.
type EndReason string

const (
	// ReasonLogout follows an explicit Logout, after the redirect delay
	ReasonLogout EndReason = "logout"
	// ReasonInvalid follows a failed startup revalidation
	ReasonInvalid EndReason = "invalid"
)

// Event is a transition outcome. Message carries user-facing text for failures,
// Reason is set only on EventSessionEnded.
type Event struct {
	Kind    EventKind
	Message string
	User    *users.User
	Reason  EndReason
	At      time.Time
}

// Observer receives events synchronously, outside the store lock. Observers may call
// back into the Store.
type Observer interface {
	OnSessionEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnSessionEvent(e Event) {
	f(e)
}

type subscription struct {
	id       int
	observer Observer
}

// Subscribe registers o and returns a function that removes it. Observers are called
// in subscription order.
func (s *Store) Subscribe(o Observer) (unsubscribe func()) {
	s.observerLock.Lock()
	defer s.observerLock.Unlock()

	s.nextObserverID++
	id := s.nextObserverID
	s.observers = append(s.observers, subscription{id: id, observer: o})

	return func() {
		s.observerLock.Lock()
		defer s.observerLock.Unlock()
		for i, sub := range s.observers {
			if sub.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) emit(e Event) {
	if e.At.IsZero() {
		e.At = s.nowTime()
	}

	s.observerLock.Lock()
	subs := append([]subscription(nil), s.observers...)
	s.observerLock.Unlock()

	for _, sub := range subs {
		sub.observer.OnSessionEvent(e)
	}
}
