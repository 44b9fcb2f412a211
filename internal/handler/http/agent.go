package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/agent"
	"github.com/kreditkeliling/kupon-backend-go/internal/handler/http/response"
)

type AgentHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	UpdateCommissionSettings(w http.ResponseWriter, r *http.Request)
}

type agentHandlerImpl struct {
	agentService agent.AgentService
}

func NewAgentHandler(agentService agent.AgentService) AgentHandler {
	return &agentHandlerImpl{agentService: agentService}
}

// List handles GET /agents
func (h *agentHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	agents, err := h.agentService.List(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, agents)
}

// Get handles GET /agents/{id}
func (h *agentHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.agentService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, a)
}

// UpdateCommissionSettings handles PUT /agents/{id}/commission-settings
func (h *agentHandlerImpl) UpdateCommissionSettings(w http.ResponseWriter, r *http.Request) {
	var req agent.UpdateCommissionSettingsRequest
	if !decodeJSON(w, r, &req, "UpdateCommissionSettings") {
		return
	}
	req.ID = chi.URLParam(r, "id")

	a, err := h.agentService.UpdateCommissionSettings(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Commission settings updated", a)
}
