package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/clientpulse/clientpulse/internal/adapter/http/response"
	"github.com/clientpulse/clientpulse/internal/usecase"
)

// AdminHandler serves the operator review API: registry edits, unmatched
// item review, and audit log reads
type AdminHandler struct {
	registry *usecase.RegistryUseCase
}

func NewAdminHandler(registry *usecase.RegistryUseCase) *AdminHandler {
	return &AdminHandler{registry: registry}
}

// ListClients handles GET /api/v1/clients
func (h *AdminHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.registry.ListClients(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "clients retrieved", clients)
}

// CreateClient handles POST /api/v1/clients
func (h *AdminHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req usecase.CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	client, err := h.registry.CreateClient(r.Context(), req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusCreated, "client created", client)
}

// UpdateClient handles PATCH /api/v1/clients/{id}
func (h *AdminHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req usecase.UpdateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	client, err := h.registry.UpdateClient(r.Context(), id, req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "client updated", client)
}

// ListUnmatched handles GET /api/v1/unmatched
func (h *AdminHandler) ListUnmatched(w http.ResponseWriter, r *http.Request) {
	items, err := h.registry.ListUnresolved(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "unmatched items retrieved", items)
}

// ResolveUnmatched handles POST /api/v1/unmatched/{id}/resolve
func (h *AdminHandler) ResolveUnmatched(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.registry.ResolveUnmatched(r.Context(), id); err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "unmatched item resolved", nil)
}

// ListAudit handles GET /api/v1/audit
func (h *AdminHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	records, err := h.registry.ListAudit(r.Context(), limit, offset)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "audit records retrieved", records)
}
