package mockapi

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/visitor-session/authclient"
	apperrors "github.com/jrsteele09/visitor-session/internal/errors"
	"github.com/jrsteele09/visitor-session/users"
)

const (
	contentTypeJSON = "application/json"
	maxRequestBytes = 64 << 10
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.WriteHeader(http.StatusNoContent)
	}
}

// LoginHandler handles POST /api/auth/login
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
			writeFailure(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeFailure(w, http.StatusBadRequest, "Email and password are required")
			return
		}

		data, err := s.backend.Login(req.Email, req.Password)
		switch {
		case err == nil:
		case apperrors.Is(err, apperrors.ErrInvalidCredentials):
			s.metrics.logins.WithLabelValues("rejected").Inc()
			writeFailure(w, http.StatusUnauthorized, "Invalid credentials")
			return
		case apperrors.Is(err, apperrors.ErrUserInactive):
			s.metrics.logins.WithLabelValues("rejected").Inc()
			writeFailure(w, http.StatusForbidden, "Account is disabled")
			return
		default:
			s.metrics.logins.WithLabelValues("error").Inc()
			s.logger.Err(err).Str("email", req.Email).Msg("login failed")
			writeFailure(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		s.metrics.logins.WithLabelValues("success").Inc()
		writeJSON(w, http.StatusOK, authclient.LoginResponse{Success: true, Data: data})
	}
}

// ProfileHandler handles GET /api/auth/profile
func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFromContext(r.Context())
		writeJSON(w, http.StatusOK, authclient.ProfileResponse{Success: true, Data: &authclient.ProfileData{User: user}})
	}
}

// UpdateProfileHandler handles PUT /api/auth/profile
func (s *Server) UpdateProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch users.ProfilePatch
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&patch); err != nil {
			writeFailure(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if patch.IsEmpty() {
			writeFailure(w, http.StatusBadRequest, "No profile fields to update")
			return
		}

		updated, err := s.backend.UpdateProfile(userFromContext(r.Context()).ID, patch)
		if err != nil {
			s.logger.Err(err).Msg("profile update failed")
			writeFailure(w, http.StatusInternalServerError, "Failed to update profile")
			return
		}
		s.metrics.profileUpdates.Inc()
		writeJSON(w, http.StatusOK, authclient.ProfileResponse{Success: true, Data: &authclient.ProfileData{User: updated}})
	}
}

// LogoutHandler handles POST /api/auth/logout
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.backend.Logout(claimsFromContext(r.Context()))
		s.metrics.logouts.Inc()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
