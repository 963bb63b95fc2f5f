package handler

import "net/http"

// AuthHandler serves the four /auth/* routes. Signup, login, refresh, and
// logout belong to the external auth service; these handlers exist so the
// route table is complete, but delegate nothing, because there is nothing
// in this repo to delegate to.
type AuthHandler struct{}

func NewAuthHandler() *AuthHandler { return &AuthHandler{} }

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request)  { h.notImplemented(w) }
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request)   { h.notImplemented(w) }
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) { h.notImplemented(w) }
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request)  { h.notImplemented(w) }

func (h *AuthHandler) notImplemented(w http.ResponseWriter) {
	respondJSON(w, http.StatusNotImplemented, map[string]string{
		"detail": "signup/login/refresh/logout are served by the external AuthN provider, not this core",
	})
}
