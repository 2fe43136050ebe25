package httpapi

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/taskflow/internal/common"
	"github.com/dmitrijs2005/taskflow/internal/server/auth"
)

type sendOTPRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type verifyOTPRequest struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

// identifier picks the first non-empty of identifier, email and username.
func (req loginRequest) identifier() string {
	for _, v := range []string{req.Identifier, req.Email, req.Username} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func (h *Handler) sendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if _, err := readValidated(r, sendOTPSchema, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.users.SendOTP(r.Context(), req.Email, req.Password, req.Name); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent to email"})
}

func (h *Handler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if _, err := readValidated(r, verifyOTPSchema, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, sess, err := h.users.VerifyOTP(r.Context(), req.Email, req.OTP, req.Password, req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	auth.SetSessionCookie(w, sess.Cookie, sess.TTL, h.cookieSecure)
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if _, err := readValidated(r, loginSchema, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	id := req.identifier()
	if id == "" {
		h.writeError(w, r, common.NewValidationError("identifier", "identifier is required"))
		return
	}

	user, sess, err := h.users.Login(r.Context(), id, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	auth.SetSessionCookie(w, sess.Cookie, sess.TTL, h.cookieSecure)
	writeJSON(w, http.StatusOK, user)
}

// logout always succeeds. A missing or stale cookie is simply cleared.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, ok := auth.SessionCookie(r); ok {
		if err := h.users.Logout(r.Context(), cookie); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	auth.ClearSessionCookie(w, h.cookieSecure)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		h.writeError(w, r, common.ErrorUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
