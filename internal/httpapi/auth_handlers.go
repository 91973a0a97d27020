package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"seedvault.org/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token       string             `json:"token"`
	ExpiresAt   time.Time          `json:"expires_at"`
	Username    string             `json:"username"`
	Role        auth.Role          `json:"role"`
	Permissions auth.PermissionSet `json:"permissions"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "username and password are required")
		return
	}

	result, err := a.authn.Login(username, req.Password)
	if err != nil {
		// The audit trail records which check failed; the response
		// stays generic so usernames cannot be probed.
		reason := "error"
		switch {
		case errors.Is(err, auth.ErrUnknownUser):
			reason = "unknown_user"
		case errors.Is(err, auth.ErrWrongSecret):
			reason = "wrong_password"
		}
		a.audit(r.Context(), "auth.login.denied", map[string]any{
			"username": username,
			"reason":   reason,
		})
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := a.tokens.Generate(result.Username, result.Role)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	a.audit(r.Context(), "auth.login.success", map[string]any{
		"username":   result.Username,
		"role":       string(result.Role),
		"expires_at": expiresAt.Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, loginResponse{
		Token:       token,
		ExpiresAt:   expiresAt,
		Username:    result.Username,
		Role:        result.Role,
		Permissions: result.Permissions,
	})
}
