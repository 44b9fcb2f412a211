package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/agent"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/commission"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/expense"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/performance"
	"github.com/kreditkeliling/kupon-backend-go/internal/handler/http/middleware"
	"github.com/kreditkeliling/kupon-backend-go/internal/handler/http/response"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/authz"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/jwt"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/sse"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAgentID = "6f1c2f0e-8a55-4b8e-9f67-2b1d5c0d9a11"

type fakeTierService struct{}

func (fakeTierService) List(ctx context.Context) (commission.TierTableResponse, error) {
	return commission.TierTableResponse{Tiers: []commission.TierResponse{}, Issues: []commission.TierIssue{}}, nil
}
func (fakeTierService) Create(ctx context.Context, req commission.CreateTierRequest) (commission.TierTableResponse, error) {
	if err := req.Validate(); err != nil {
		return commission.TierTableResponse{}, err
	}
	return commission.TierTableResponse{Tiers: []commission.TierResponse{{ID: "t1", MinAmount: req.MinAmount, Percentage: req.Percentage}}}, nil
}
func (fakeTierService) Update(ctx context.Context, req commission.UpdateTierRequest) (commission.TierTableResponse, error) {
	return commission.TierTableResponse{}, commission.ErrTierNotFound
}
func (fakeTierService) Delete(ctx context.Context, id string) (commission.TierTableResponse, error) {
	return commission.TierTableResponse{}, commission.ErrTierNotFound
}
func (fakeTierService) Check(ctx context.Context) ([]commission.TierIssue, error) {
	return []commission.TierIssue{{Kind: commission.TierIssueGap, Message: "gap"}}, nil
}

type fakeLedgerService struct {
	paid map[string]bool
}

func (f *fakeLedgerService) ListUnpaid(ctx context.Context, salesAgentID string) ([]commission.UnpaidCommissionLine, error) {
	if salesAgentID != testAgentID {
		return nil, agent.ErrAgentNotFound
	}
	return []commission.UnpaidCommissionLine{{
		ContractID:  "c1",
		ContractRef: "K-001",
		StartDate:   "2024-03-01",
		Revenue:     decimal.NewFromInt(2000000),
		Percentage:  decimal.NewFromInt(5),
		Commission:  decimal.NewFromInt(100000),
	}}, nil
}
func (f *fakeLedgerService) ListPaid(ctx context.Context, salesAgentID string) ([]commission.PaymentResponse, error) {
	return []commission.PaymentResponse{}, nil
}
func (f *fakeLedgerService) Summary(ctx context.Context, salesAgentID string) (commission.AgentCommissionSummary, error) {
	return commission.AgentCommissionSummary{SalesAgentID: salesAgentID}, nil
}
func (f *fakeLedgerService) PayOne(ctx context.Context, req commission.PayCommissionRequest) (commission.PaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return commission.PaymentResponse{}, err
	}
	if f.paid[req.ContractID] {
		return commission.PaymentResponse{}, commission.ErrCommissionAlreadyPaid
	}
	f.paid[req.ContractID] = true
	return commission.PaymentResponse{ID: "p1", SalesAgentID: req.SalesAgentID, ContractID: req.ContractID, Amount: req.Amount, PaymentDate: req.PaymentDate}, nil
}
func (f *fakeLedgerService) PayAll(ctx context.Context, req commission.PayAllCommissionRequest) ([]commission.PaymentResponse, error) {
	return nil, fmt.Errorf("contract x: %w", commission.ErrContractNotOwnedByAgent)
}
func (f *fakeLedgerService) DeletePayment(ctx context.Context, id string, salesAgentID string) error {
	return commission.ErrCommissionPaymentNotFound
}

type fakeAgentService struct{}

func (fakeAgentService) List(ctx context.Context) ([]agent.AgentResponse, error) {
	return []agent.AgentResponse{{ID: testAgentID, AgentCode: "S01", Name: "Budi"}}, nil
}
func (fakeAgentService) Get(ctx context.Context, id string) (agent.AgentResponse, error) {
	return agent.AgentResponse{}, agent.ErrAgentNotFound
}
func (fakeAgentService) UpdateCommissionSettings(ctx context.Context, req agent.UpdateCommissionSettingsRequest) (agent.AgentResponse, error) {
	if err := req.Validate(); err != nil {
		return agent.AgentResponse{}, err
	}
	return agent.AgentResponse{ID: req.ID}, nil
}

type fakePerformanceService struct {
	lastOwnership performance.Ownership
}

func (f *fakePerformanceService) GetAgentPerformance(ctx context.Context, own performance.Ownership) (performance.PerformanceOverview, error) {
	f.lastOwnership = own
	return performance.PerformanceOverview{Ownership: own}, nil
}
func (f *fakePerformanceService) RollupMonthly(ctx context.Context, month string, own performance.Ownership) (performance.MonthlyRollup, error) {
	if _, ok := validator.ParseMonth(month); !ok {
		return performance.MonthlyRollup{}, performance.ErrInvalidPeriod
	}
	return performance.MonthlyRollup{Month: month, Ownership: own}, nil
}
func (f *fakePerformanceService) RollupYearly(ctx context.Context, year int) (performance.YearlyFinancialSummary, error) {
	return performance.YearlyFinancialSummary{Year: year}, nil
}
func (f *fakePerformanceService) YearlyTarget(ctx context.Context, year int) (performance.YearlyTarget, error) {
	return performance.YearlyTarget{Year: year}, nil
}
func (f *fakePerformanceService) SetYearlyTarget(ctx context.Context, req performance.SetYearlyTargetRequest) (performance.YearlyTarget, error) {
	if err := req.Validate(); err != nil {
		return performance.YearlyTarget{}, err
	}
	return performance.YearlyTarget{Year: req.Year, TargetAmount: req.TargetAmount}, nil
}

type fakeExpenseService struct{}

func (fakeExpenseService) ListByYear(ctx context.Context, year int) (expense.ListExpenseResponse, error) {
	return expense.ListExpenseResponse{Year: year, Expenses: []expense.ExpenseResponse{}}, nil
}
func (fakeExpenseService) Create(ctx context.Context, req expense.CreateExpenseRequest) (expense.ExpenseResponse, error) {
	if err := req.Validate(); err != nil {
		return expense.ExpenseResponse{}, err
	}
	return expense.ExpenseResponse{ID: "e1", Amount: req.Amount}, nil
}
func (fakeExpenseService) Delete(ctx context.Context, id string) error {
	return expense.ErrExpenseNotFound
}

type testServer struct {
	router      *chi.Mux
	jwt         jwt.Service
	hub         *sse.Hub
	performance *fakePerformanceService
}

func newTestServer(t *testing.T, rateLimit string) *testServer {
	t.Helper()

	jwtService := jwt.NewJWTService("test-secret", "1h")
	authorizer, err := authz.NewAuthorizer("", authz.ModeEnforce)
	require.NoError(t, err)

	cfg := RouterConfig{AppEnv: "test", Version: "test", AllowedOrigins: []string{"*"}}
	if rateLimit != "" {
		cfg.RateLimit, err = middleware.RateLimit(rateLimit)
		require.NoError(t, err)
	}

	hub := sse.NewHub()
	perf := &fakePerformanceService{}
	router := NewRouter(cfg, jwtService, authorizer, Handlers{
		Commission: NewCommissionHandler(fakeTierService{}, &fakeLedgerService{paid: map[string]bool{}}),
		Agent:      NewAgentHandler(fakeAgentService{}),
		Report:     NewReportHandler(perf),
		Expense:    NewExpenseHandler(fakeExpenseService{}),
		Event:      NewEventHandler(hub, jwtService, authorizer),
	})

	return &testServer{router: router, jwt: jwtService, hub: hub, performance: perf}
}

func (s *testServer) token(t *testing.T, role string) string {
	t.Helper()
	token, _, err := s.jwt.GenerateAccessToken("user-1", role)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, role, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(t, role))
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestRouter_RequiresToken(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodGet, "/api/v1/reports/performance", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_RoleMatrix(t *testing.T) {
	s := newTestServer(t, "")
	unpaid := "/api/v1/agents/" + testAgentID + "/commissions/unpaid"

	tests := []struct {
		name   string
		method string
		path   string
		role   string
		body   string
		want   int
	}{
		{"staff reads reports", http.MethodGet, "/api/v1/reports/performance", "staff", "", http.StatusOK},
		{"staff cannot read ledger", http.MethodGet, unpaid, "staff", "", http.StatusForbidden},
		{"finance reads ledger", http.MethodGet, unpaid, "finance", "", http.StatusOK},
		{"finance cannot edit tiers", http.MethodPost, "/api/v1/commission-tiers", "finance", `{"min_amount":"0","percentage":"5"}`, http.StatusForbidden},
		{"admin edits tiers", http.MethodPost, "/api/v1/commission-tiers", "admin", `{"min_amount":"0","percentage":"5"}`, http.StatusCreated},
		{"finance cannot set target", http.MethodPut, "/api/v1/reports/yearly/2024/target", "finance", `{"target_amount":"100"}`, http.StatusForbidden},
		{"unknown role", http.MethodGet, "/api/v1/agents", "guest", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.role, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestCommissionHandler_ListUnpaid(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodGet, "/api/v1/agents/"+testAgentID+"/commissions/unpaid", "finance", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var lines []commission.UnpaidCommissionLine
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &lines))
	require.Len(t, lines, 1)
	assert.Equal(t, "K-001", lines[0].ContractRef)
	assert.True(t, decimal.NewFromInt(100000).Equal(lines[0].Commission))

	rec = s.do(t, http.MethodGet, "/api/v1/agents/"+"6f1c2f0e-0000-4b8e-9f67-2b1d5c0d9a11"+"/commissions/unpaid", "finance", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCommissionHandler_PayOneTwiceConflicts(t *testing.T) {
	s := newTestServer(t, "")
	path := "/api/v1/agents/" + testAgentID + "/commissions/payments"
	body := `{"contract_id":"0b6c8f5e-3d2a-4f1b-8c7d-9e0f1a2b3c4d","amount":"100000","payment_date":"2024-04-01"}`

	rec := s.do(t, http.MethodPost, path, "finance", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, path, "finance", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "COMMISSION_ALREADY_PAID", env.Error.Code)
}

func TestCommissionHandler_ErrorMapping(t *testing.T) {
	s := newTestServer(t, "")
	base := "/api/v1/agents/" + testAgentID + "/commissions/payments"

	rec := s.do(t, http.MethodPost, base, "finance", `{"contract_id":"nope","amount":"0","payment_date":"01-04-2024"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Len(t, env.Error.Details, 3)

	rec = s.do(t, http.MethodPost, base, "finance", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/bulk", "finance", `{"items":[]}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, base+"/whatever", "finance", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTierHandler_Check(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodGet, "/api/v1/commission-tiers/check", "finance", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Valid  bool                   `json:"valid"`
		Issues []commission.TierIssue `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &result))
	assert.False(t, result.Valid)
	assert.Len(t, result.Issues, 1)

	rec = s.do(t, http.MethodPut, "/api/v1/commission-tiers/missing", "admin", `{"min_amount":"0","percentage":"5"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportHandler_Parameters(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodGet, "/api/v1/reports/performance?ownership=customer_assignment", "staff", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, performance.OwnershipCustomerAssignment, s.performance.lastOwnership)

	rec = s.do(t, http.MethodGet, "/api/v1/reports/performance?ownership=branch", "staff", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/reports/monthly?month=2024-13", "staff", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/reports/monthly?month=2024-03", "staff", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/reports/yearly?year=abc", "staff", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/reports/yearly/target?year=2024", "staff", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/v1/reports/yearly/1899/target", "admin", `{"target_amount":"100"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/v1/reports/yearly/2024/target", "admin", `{"target_amount":"100"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAgentAndExpenseHandlers(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodGet, "/api/v1/agents/"+testAgentID, "staff", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/v1/agents/"+testAgentID+"/commission-settings", "admin", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/v1/agents/"+testAgentID+"/commission-settings", "admin", `{"use_tiered_commission":true}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/expenses?year=2024", "finance", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/expenses", "finance", `{"expense_date":"2024-02-01","amount":"50000","category":"rent"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/expenses/"+testAgentID, "finance", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	s := newTestServer(t, "2-M")

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodGet, "/api/v1/agents", "staff", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := s.do(t, http.MethodGet, "/api/v1/agents", "staff", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestEventHandler_StreamRejects(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodGet, "/api/v1/events", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	access := s.token(t, "admin")
	rec = s.do(t, http.MethodGet, "/api/v1/events?token="+access, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	sseToken, _, err := s.jwt.GenerateSSEToken("user-1", "admin")
	require.NoError(t, err)
	rec = s.do(t, http.MethodGet, "/api/v1/events?token="+sseToken+"&topic=payroll", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	staffToken, _, err := s.jwt.GenerateSSEToken("user-2", "staff")
	require.NoError(t, err)
	rec = s.do(t, http.MethodGet, "/api/v1/events?token="+staffToken+"&topic="+sse.AgentTopic(testAgentID), "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEventHandler_StreamDeliversEvents(t *testing.T) {
	s := newTestServer(t, "")
	server := httptest.NewServer(s.router)
	defer server.Close()

	rec := s.do(t, http.MethodPost, "/api/v1/events/token", "finance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tok sseTokenResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &tok))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	topic := sse.AgentTopic(testAgentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/events?token="+tok.Token+"&topic="+topic, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var name, data string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			case line == "":
				return name, data
			}
		}
	}

	name, _ := readEvent()
	require.Equal(t, "connected", name)

	s.hub.Publish(topic, sse.Event{Event: sse.EventCommissionChanged, Data: map[string]string{"sales_agent_id": testAgentID}})

	name, data := readEvent()
	assert.Equal(t, sse.EventCommissionChanged, name)
	assert.Contains(t, data, testAgentID)
}

func TestHandleError_Unhandled(t *testing.T) {
	rec := httptest.NewRecorder()
	response.HandleError(rec, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
