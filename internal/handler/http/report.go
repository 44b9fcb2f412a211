package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/performance"
	"github.com/kreditkeliling/kupon-backend-go/internal/handler/http/response"
)

type ReportHandler interface {
	GetAgentPerformance(w http.ResponseWriter, r *http.Request)
	GetMonthlyRollup(w http.ResponseWriter, r *http.Request)
	GetYearlySummary(w http.ResponseWriter, r *http.Request)
	GetYearlyTarget(w http.ResponseWriter, r *http.Request)
	SetYearlyTarget(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	performanceService performance.PerformanceService
}

func NewReportHandler(performanceService performance.PerformanceService) ReportHandler {
	return &reportHandlerImpl{
		performanceService: performanceService,
	}
}

// GetAgentPerformance handles GET /reports/performance
func (h *reportHandlerImpl) GetAgentPerformance(w http.ResponseWriter, r *http.Request) {
	ownership, err := performance.ParseOwnership(r.URL.Query().Get("ownership"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.performanceService.GetAgentPerformance(r.Context(), ownership)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// GetMonthlyRollup handles GET /reports/monthly
func (h *reportHandlerImpl) GetMonthlyRollup(w http.ResponseWriter, r *http.Request) {
	ownership, err := performance.ParseOwnership(r.URL.Query().Get("ownership"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}

	result, err := h.performanceService.RollupMonthly(r.Context(), month, ownership)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// GetYearlySummary handles GET /reports/yearly
func (h *reportHandlerImpl) GetYearlySummary(w http.ResponseWriter, r *http.Request) {
	year, ok := getYearQueryParam(w, r, "year")
	if !ok {
		return
	}

	result, err := h.performanceService.RollupYearly(r.Context(), year)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// GetYearlyTarget handles GET /reports/yearly/target
func (h *reportHandlerImpl) GetYearlyTarget(w http.ResponseWriter, r *http.Request) {
	year, ok := getYearQueryParam(w, r, "year")
	if !ok {
		return
	}

	result, err := h.performanceService.YearlyTarget(r.Context(), year)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// SetYearlyTarget handles PUT /reports/yearly/{year}/target
func (h *reportHandlerImpl) SetYearlyTarget(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		response.BadRequest(w, "invalid year parameter", nil)
		return
	}

	var req performance.SetYearlyTargetRequest
	if !decodeJSON(w, r, &req, "SetYearlyTarget") {
		return
	}
	req.Year = year

	result, err := h.performanceService.SetYearlyTarget(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Yearly target updated", result)
}
