package contract

import (
	"time"

	"github.com/shopspring/decimal"
)

// Owner carries the two ownership joins a record can be attributed by: the
// sales agent recorded on the contract, and the sales agent assigned to the
// contract's customer.
type Owner struct {
	SalesAgentID    string
	AssignedSalesID *string
}

type ContractStatus string

const (
	ContractStatusActive    ContractStatus = "active"
	ContractStatusCompleted ContractStatus = "completed"
	ContractStatusCancelled ContractStatus = "cancelled"
)

// Contract is a credit contract. The persisted column total_loan_amount is the
// revenue (omset) figure, while the column named omset holds the cost basis
// (modal); Revenue and CostBasis carry them under unambiguous names.
type Contract struct {
	ID                      string
	ContractRef             string
	SalesAgentID            string
	CustomerID              string
	Revenue                 decimal.Decimal
	CostBasis               decimal.Decimal
	TenorDays               int
	CurrentInstallmentIndex int
	StartDate               time.Time
	Status                  ContractStatus
	CreatedAt               time.Time

	// Joined fields
	Owner Owner
}

type CouponStatus string

const (
	CouponStatusUnpaid CouponStatus = "unpaid"
	CouponStatusPaid   CouponStatus = "paid"
)

// InstallmentCoupon is one scheduled daily installment.
type InstallmentCoupon struct {
	ID               string
	ContractID       string
	InstallmentIndex int
	DueDate          time.Time
	Amount           decimal.Decimal
	Status           CouponStatus

	// Joined fields
	Owner             Owner
	ContractStartDate time.Time
}

// PaymentLog is an append-only record of an actual collection.
type PaymentLog struct {
	ID               string
	ContractID       string
	PaymentDate      time.Time
	InstallmentIndex int
	AmountPaid       decimal.Decimal
	CollectorID      *string

	// Joined fields
	Owner Owner
}
