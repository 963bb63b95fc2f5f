package handler

import "net/http"

// ProviderHandler serves the provider/establishment/work-hour CRUD routes.
// CRUD over these rows belongs to the external admin service; the core only
// ever reads through WorkScheduleStore and ProviderExistence. These
// handlers complete the route table the same way AuthHandler's stubs do.
type ProviderHandler struct{}

func NewProviderHandler() *ProviderHandler { return &ProviderHandler{} }

func (h *ProviderHandler) List(w http.ResponseWriter, r *http.Request)            { h.notImplemented(w) }
func (h *ProviderHandler) Create(w http.ResponseWriter, r *http.Request)          { h.notImplemented(w) }
func (h *ProviderHandler) Get(w http.ResponseWriter, r *http.Request)             { h.notImplemented(w) }
func (h *ProviderHandler) Update(w http.ResponseWriter, r *http.Request)          { h.notImplemented(w) }
func (h *ProviderHandler) ListWorkHours(w http.ResponseWriter, r *http.Request)   { h.notImplemented(w) }
func (h *ProviderHandler) CreateWorkHour(w http.ResponseWriter, r *http.Request)  { h.notImplemented(w) }
func (h *ProviderHandler) UpdateWorkHour(w http.ResponseWriter, r *http.Request)  { h.notImplemented(w) }

func (h *ProviderHandler) notImplemented(w http.ResponseWriter) {
	respondJSON(w, http.StatusNotImplemented, map[string]string{
		"detail": "provider/work-hour CRUD is served by the external AdminStore, not this core",
	})
}
