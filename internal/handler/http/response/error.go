package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kreditkeliling/kupon-backend-go/internal/domain/agent"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/commission"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/contract"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/expense"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/performance"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Not found
	case errors.Is(err, agent.ErrAgentNotFound):
		NotFound(w, "Sales agent not found")
	case errors.Is(err, contract.ErrContractNotFound):
		NotFound(w, "Contract not found")
	case errors.Is(err, commission.ErrTierNotFound):
		NotFound(w, "Commission tier not found")
	case errors.Is(err, commission.ErrCommissionPaymentNotFound):
		NotFound(w, "Commission payment not found")
	case errors.Is(err, expense.ErrExpenseNotFound):
		NotFound(w, "Operational expense not found")
	case errors.Is(err, performance.ErrTargetNotFound):
		NotFound(w, "Yearly target not found")

	// Commission ledger
	case errors.Is(err, commission.ErrCommissionAlreadyPaid):
		ConflictWithCode(w, "COMMISSION_ALREADY_PAID", err.Error())
	case errors.Is(err, commission.ErrContractNotOwnedByAgent):
		Forbidden(w, err.Error())

	// Report parameters
	case errors.Is(err, performance.ErrInvalidOwnership):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, performance.ErrInvalidPeriod):
		BadRequest(w, err.Error(), nil)

	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
