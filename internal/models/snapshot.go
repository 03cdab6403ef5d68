package models

// Snapshot is the full persisted ledger state. Nested maps are keyed
// username -> record ID -> record.
type Snapshot struct {
	Accounts       map[string]Account                 `json:"accounts"`
	Transactions   map[string]map[string]Transaction  `json:"transactions"`
	Loans          map[string]map[string]Loan         `json:"loans"`
	FixedDeposits  map[string]map[string]FixedDeposit `json:"fixed_deposits"`
	FailedAttempts map[string]FailedAttempt           `json:"failed_attempts"`
}

// NewSnapshot returns a snapshot with every map allocated.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Accounts:       make(map[string]Account),
		Transactions:   make(map[string]map[string]Transaction),
		Loans:          make(map[string]map[string]Loan),
		FixedDeposits:  make(map[string]map[string]FixedDeposit),
		FailedAttempts: make(map[string]FailedAttempt),
	}
}

// Normalize allocates any map left nil by a decoder.
func (s *Snapshot) Normalize() {
	if s.Accounts == nil {
		s.Accounts = make(map[string]Account)
	}
	if s.Transactions == nil {
		s.Transactions = make(map[string]map[string]Transaction)
	}
	if s.Loans == nil {
		s.Loans = make(map[string]map[string]Loan)
	}
	if s.FixedDeposits == nil {
		s.FixedDeposits = make(map[string]map[string]FixedDeposit)
	}
	if s.FailedAttempts == nil {
		s.FailedAttempts = make(map[string]FailedAttempt)
	}
}
