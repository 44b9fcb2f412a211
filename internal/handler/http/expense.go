package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/expense"
	"github.com/kreditkeliling/kupon-backend-go/internal/handler/http/response"
)

type ExpenseHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type expenseHandlerImpl struct {
	expenseService expense.ExpenseService
}

func NewExpenseHandler(expenseService expense.ExpenseService) ExpenseHandler {
	return &expenseHandlerImpl{expenseService: expenseService}
}

// List handles GET /expenses
func (h *expenseHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	year, ok := getYearQueryParam(w, r, "year")
	if !ok {
		return
	}

	result, err := h.expenseService.ListByYear(r.Context(), year)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// Create handles POST /expenses
func (h *expenseHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req expense.CreateExpenseRequest
	if !decodeJSON(w, r, &req, "CreateExpense") {
		return
	}

	result, err := h.expenseService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Operational expense recorded", result)
}

// Delete handles DELETE /expenses/{id}
func (h *expenseHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.expenseService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}
	response.Deleted(w, "Operational expense deleted")
}
