package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	testDB      *database.DB
	testDBErr   error
	testDBSetup sync.Once
)

// newTestDatabase connects to TEST_DATABASE_URL and applies db/schema.sql.
// Tests are skipped when the variable is not set.
func newTestDatabase(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	testDBSetup.Do(func() {
		ctx := context.Background()
		testDB, testDBErr = database.NewPostgreSQLDB(ctx, dsn)
		if testDBErr != nil {
			return
		}

		schema, err := os.ReadFile("../../../../db/schema.sql")
		if err != nil {
			testDBErr = fmt.Errorf("failed to read schema: %w", err)
			return
		}
		if _, err := testDB.Exec(ctx, string(schema)); err != nil {
			testDBErr = fmt.Errorf("failed to apply schema: %w", err)
		}
	})
	require.NoError(t, testDBErr)

	truncateAllTables(t)
	return testDB
}

func truncateAllTables(t *testing.T) {
	ctx := context.Background()
	tx, err := testDB.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	tables := []string{
		"commission_payments",
		"payment_logs",
		"installment_coupons",
		"contracts",
		"customers",
		"sales_agents",
		"commission_tiers",
		"operational_expenses",
		"yearly_targets",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "truncate %s", table)
	}

	require.NoError(t, tx.Commit(ctx))
}

func createTestAgent(t *testing.T, ctx context.Context, code string, pct int64, tiered bool) string {
	var id string
	err := testDB.QueryRow(ctx, `
		INSERT INTO sales_agents (agent_code, name, commission_percentage, use_tiered_commission)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, code, "Agent "+code, decimal.NewFromInt(pct), tiered).Scan(&id)
	require.NoError(t, err)
	return id
}

func createTestCustomer(t *testing.T, ctx context.Context, assignedSalesID *string) string {
	var id string
	err := testDB.QueryRow(ctx, `
		INSERT INTO customers (name, assigned_sales_id)
		VALUES ('Customer', $1)
		RETURNING id
	`, assignedSalesID).Scan(&id)
	require.NoError(t, err)
	return id
}

func createTestContract(t *testing.T, ctx context.Context, ref, salesAgentID, customerID string, revenue, cost int64, startDate string) string {
	var id string
	err := testDB.QueryRow(ctx, `
		INSERT INTO contracts (contract_ref, sales_agent_id, customer_id, total_loan_amount, omset, tenor_days, start_date)
		VALUES ($1, $2, $3, $4, $5, 100, $6::date)
		RETURNING id
	`, ref, salesAgentID, customerID, decimal.NewFromInt(revenue), decimal.NewFromInt(cost), startDate).Scan(&id)
	require.NoError(t, err)
	return id
}
