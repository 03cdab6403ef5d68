package models

import (
	"time"
)

// TxType tags a ledger transaction. Values are the labels shown to customers.
type TxType string

const (
	TxDeposit                TxType = "Deposit"
	TxWithdrawal             TxType = "Withdrawal"
	TxTransferOut            TxType = "Transfer Out"
	TxTransferIn             TxType = "Transfer In"
	TxLoanDisbursement       TxType = "Loan Disbursement"
	TxLoanPayment            TxType = "Loan Payment"
	TxFixedDepositCreation   TxType = "Fixed Deposit Creation"
	TxFixedDepositMaturity   TxType = "Fixed Deposit Maturity"
	TxAccountCreationDeposit TxType = "Account Creation Deposit"
)

// TxTypes lists every transaction type in display order
var TxTypes = []TxType{
	TxDeposit,
	TxWithdrawal,
	TxTransferOut,
	TxTransferIn,
	TxLoanDisbursement,
	TxLoanPayment,
	TxFixedDepositCreation,
	TxFixedDepositMaturity,
	TxAccountCreationDeposit,
}

// Credit reports whether the type adds to the account balance.
func (t TxType) Credit() bool {
	switch t {
	case TxDeposit, TxTransferIn, TxLoanDisbursement, TxFixedDepositMaturity, TxAccountCreationDeposit:
		return true
	}
	return false
}

// Valid reports whether t is one of the known types.
func (t TxType) Valid() bool {
	for _, known := range TxTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Transaction is an immutable entry in an account's history.
// Amount is always a positive magnitude; the sign follows from Type.
type Transaction struct {
	TransactionID string    `json:"transaction_id"`
	Username      string    `json:"username"`
	Type          TxType    `json:"type"`
	Amount        int64     `json:"amount"`
	Timestamp     time.Time `json:"timestamp"`
	BalanceAfter  int64     `json:"balance_after"`
	Description   string    `json:"description,omitempty"`
	Seq           int       `json:"seq"` // position in the account history, from 1
}

// SignedAmount returns Amount with the sign implied by Type.
func (t Transaction) SignedAmount() int64 {
	if t.Type.Credit() {
		return t.Amount
	}
	return -t.Amount
}
