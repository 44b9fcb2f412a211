package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/commission"
	"github.com/kreditkeliling/kupon-backend-go/internal/handler/http/response"
)

type CommissionHandler interface {
	// Tier table
	ListTiers(w http.ResponseWriter, r *http.Request)
	CreateTier(w http.ResponseWriter, r *http.Request)
	UpdateTier(w http.ResponseWriter, r *http.Request)
	DeleteTier(w http.ResponseWriter, r *http.Request)
	CheckTiers(w http.ResponseWriter, r *http.Request)

	// Ledger, scoped to /agents/{id}
	ListUnpaid(w http.ResponseWriter, r *http.Request)
	ListPaid(w http.ResponseWriter, r *http.Request)
	Summary(w http.ResponseWriter, r *http.Request)
	PayOne(w http.ResponseWriter, r *http.Request)
	PayAll(w http.ResponseWriter, r *http.Request)
	DeletePayment(w http.ResponseWriter, r *http.Request)
}

type commissionHandlerImpl struct {
	tierService   commission.TierService
	ledgerService commission.LedgerService
}

func NewCommissionHandler(tierService commission.TierService, ledgerService commission.LedgerService) CommissionHandler {
	return &commissionHandlerImpl{
		tierService:   tierService,
		ledgerService: ledgerService,
	}
}

// ListTiers handles GET /commission-tiers
func (h *commissionHandlerImpl) ListTiers(w http.ResponseWriter, r *http.Request) {
	table, err := h.tierService.List(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, table)
}

// CreateTier handles POST /commission-tiers
func (h *commissionHandlerImpl) CreateTier(w http.ResponseWriter, r *http.Request) {
	var req commission.CreateTierRequest
	if !decodeJSON(w, r, &req, "CreateTier") {
		return
	}

	table, err := h.tierService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Commission tier created", table)
}

// UpdateTier handles PUT /commission-tiers/{id}
func (h *commissionHandlerImpl) UpdateTier(w http.ResponseWriter, r *http.Request) {
	var req commission.UpdateTierRequest
	if !decodeJSON(w, r, &req, "UpdateTier") {
		return
	}
	req.ID = chi.URLParam(r, "id")

	table, err := h.tierService.Update(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Commission tier updated", table)
}

// DeleteTier handles DELETE /commission-tiers/{id}
func (h *commissionHandlerImpl) DeleteTier(w http.ResponseWriter, r *http.Request) {
	table, err := h.tierService.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Commission tier deleted", table)
}

// CheckTiers handles GET /commission-tiers/check
func (h *commissionHandlerImpl) CheckTiers(w http.ResponseWriter, r *http.Request) {
	issues, err := h.tierService.Check(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, map[string]interface{}{
		"valid":  len(issues) == 0,
		"issues": issues,
	})
}

// ListUnpaid handles GET /agents/{id}/commissions/unpaid
func (h *commissionHandlerImpl) ListUnpaid(w http.ResponseWriter, r *http.Request) {
	lines, err := h.ledgerService.ListUnpaid(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, lines)
}

// ListPaid handles GET /agents/{id}/commissions/paid
func (h *commissionHandlerImpl) ListPaid(w http.ResponseWriter, r *http.Request) {
	payments, err := h.ledgerService.ListPaid(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, payments)
}

// Summary handles GET /agents/{id}/commissions/summary
func (h *commissionHandlerImpl) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ledgerService.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, summary)
}

// PayOne handles POST /agents/{id}/commissions/payments
func (h *commissionHandlerImpl) PayOne(w http.ResponseWriter, r *http.Request) {
	var req commission.PayCommissionRequest
	if !decodeJSON(w, r, &req, "PayOne") {
		return
	}
	req.SalesAgentID = chi.URLParam(r, "id")

	payment, err := h.ledgerService.PayOne(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Commission paid", payment)
}

// PayAll handles POST /agents/{id}/commissions/payments/bulk
func (h *commissionHandlerImpl) PayAll(w http.ResponseWriter, r *http.Request) {
	var req commission.PayAllCommissionRequest
	if !decodeJSON(w, r, &req, "PayAll") {
		return
	}
	req.SalesAgentID = chi.URLParam(r, "id")

	payments, err := h.ledgerService.PayAll(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Commissions paid", payments)
}

// DeletePayment handles DELETE /agents/{id}/commissions/payments/{paymentID}
func (h *commissionHandlerImpl) DeletePayment(w http.ResponseWriter, r *http.Request) {
	err := h.ledgerService.DeletePayment(r.Context(), chi.URLParam(r, "paymentID"), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Deleted(w, "Commission payment deleted")
}
