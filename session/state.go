package session

import (
	"github.com/jrsteele09/visitor-session/users"
)

// Session is a read-only snapshot of the authentication state. Empty token strings
// mean the token is absent.
type Session struct {
	User            *users.User
	AccessToken     string
	RefreshToken    string
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

func (s Session) clone() Session {
	s.User = s.User.Clone()
	return s
}

type actionType int

const (
	actionStartLogin actionType = iota
	actionLoginSuccess
	actionLoginFailure
	actionLogout
	actionProfileUpdated
	actionClearError
	actionProfileRefreshed
)

var actionNames = map[actionType]string{
	actionStartLogin:       "START_LOGIN",
	actionLoginSuccess:     "LOGIN_SUCCESS",
	actionLoginFailure:     "LOGIN_FAILURE",
	actionLogout:           "LOGOUT",
	actionProfileUpdated:   "PROFILE_UPDATED",
	actionClearError:       "CLEAR_ERROR",
	actionProfileRefreshed: "PROFILE_REFRESHED",
}

func (a actionType) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "UNKNOWN"
}

type action struct {
	typ          actionType
	user         *users.User
	accessToken  string
	refreshToken string
	message      string
}

// reduce is the only place Session values change. It never aliases a.user.
func reduce(s Session, a action) Session {
	switch a.typ {
	case actionStartLogin:
		s.IsLoading = true
		s.Error = ""

	case actionLoginSuccess:
		s.User = a.user.Clone()
		s.AccessToken = a.accessToken
		s.RefreshToken = a.refreshToken
		s.IsLoading = false
		s.Error = ""

	case actionLoginFailure:
		s = Session{Error: a.message}

	case actionLogout:
		s = Session{}

	case actionProfileUpdated:
		// a profile update that lands after logout has nothing to attach to
		if s.IsAuthenticated && a.user != nil {
			s.User = a.user.Clone()
		}

	case actionClearError:
		s.Error = ""
		s.IsLoading = false

	case actionProfileRefreshed:
		if s.IsAuthenticated && a.user != nil {
			s.User = a.user.Clone()
			s.Error = ""
		}
	}

	s.IsAuthenticated = s.User != nil && s.AccessToken != ""
	if !s.IsAuthenticated {
		s.User = nil
		s.AccessToken = ""
		s.RefreshToken = ""
	}
	return s
}
