package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	LoanStatusActive LoanStatus = "active"
	LoanStatusPaid   LoanStatus = "paid"
)

// Loan is an installment loan with flat add-on interest
type Loan struct {
	LoanID           string          `json:"loan_id"`
	Principal        int64           `json:"amount"`
	DurationMonths   int             `json:"duration_months"`
	InterestRate     decimal.Decimal `json:"interest_rate"`
	MonthlyPayment   int64           `json:"monthly_payment"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	StartDate        time.Time       `json:"start_date"`
	Status           LoanStatus      `json:"status"`
	PaymentsMade     int             `json:"payments_made"`
	EndDate          *time.Time      `json:"end_date,omitempty"`
}

type FixedDepositStatus string

const (
	FixedDepositStatusActive FixedDepositStatus = "active"
	FixedDepositStatusClosed FixedDepositStatus = "closed"
)

// FixedDeposit is a term deposit paying prorated interest at maturity
type FixedDeposit struct {
	FDID           string             `json:"fd_id"`
	Principal      int64              `json:"principal"`
	DurationMonths int                `json:"duration_months"`
	InterestRate   decimal.Decimal    `json:"interest_rate"`
	MaturityAmount int64              `json:"maturity_amount"`
	StartDate      time.Time          `json:"start_date"`
	MaturityDate   time.Time          `json:"maturity_date"`
	Status         FixedDepositStatus `json:"status"`
	ClosedDate     *time.Time         `json:"closed_date,omitempty"`
}

// Matured reports whether the deposit may be closed at now.
func (fd FixedDeposit) Matured(now time.Time) bool {
	return !now.Before(fd.MaturityDate)
}

// DaysRemaining returns whole days until maturity, zero once matured.
func (fd FixedDeposit) DaysRemaining(now time.Time) int {
	if fd.Matured(now) {
		return 0
	}
	return int(fd.MaturityDate.Sub(now).Hours() / 24)
}
