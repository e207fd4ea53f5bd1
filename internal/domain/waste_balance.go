package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// balanceThreshold is the smallest tonnage delta worth recording. Deltas
// below it are float noise from re-parsing identical cells.
const balanceThreshold = 1e-6

// TransactionType marks the direction of a balance movement.
type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// BalanceTransaction is one ledger entry against a waste balance, tied to
// the waste record version and submission that caused it. Opening and
// closing amounts snapshot the balance around the movement so the ledger
// replays without recomputation.
type BalanceTransaction struct {
	ID                     uuid.UUID       `json:"id"`
	Type                   TransactionType `json:"type"`
	Amount                 float64         `json:"amount"`
	OpeningAmount          float64         `json:"openingAmount"`
	ClosingAmount          float64         `json:"closingAmount"`
	OpeningAvailableAmount float64         `json:"openingAvailableAmount"`
	ClosingAvailableAmount float64         `json:"closingAvailableAmount"`
	WasteRecordKey         string          `json:"wasteRecordKey"`
	VersionID              uuid.UUID       `json:"versionId"`
	SummaryLogID           uuid.UUID       `json:"summaryLogId"`
	CreatedAt              time.Time       `json:"createdAt"`
}

// BalanceContribution is the tonnage one waste record currently adds to a
// balance, together with the record version it was read from.
type BalanceContribution struct {
	Amount    float64
	VersionID uuid.UUID
}

// WasteBalance holds an accreditation's running tonnage totals. Amount is
// everything ever credited net of debits; AvailableAmount is what remains
// after notes have been issued against it.
type WasteBalance struct {
	ID              uuid.UUID            `json:"id"`
	AccreditationID uuid.UUID            `json:"accreditationId"`
	Amount          float64              `json:"amount"`
	AvailableAmount float64              `json:"availableAmount"`
	CreditedAmounts map[string]float64   `json:"creditedAmounts"`
	Transactions    []BalanceTransaction `json:"transactions"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// NewWasteBalance creates an empty balance for an accreditation.
func NewWasteBalance(accreditationID uuid.UUID) *WasteBalance {
	return &WasteBalance{
		ID:              uuid.New(),
		AccreditationID: accreditationID,
		CreditedAmounts: map[string]float64{},
		UpdatedAt:       time.Now(),
	}
}

// Apply reconciles the balance against the tonnage each waste record
// currently contributes, keyed by WasteRecordKey. For every key whose
// contribution differs from what was previously credited, a credit or debit
// transaction is recorded and the running totals move by the delta.
// Contributions identical to the credited amount leave no trace, which is
// what makes re-running a sync idempotent.
func (b *WasteBalance) Apply(contributions map[string]BalanceContribution, summaryLogID uuid.UUID) []BalanceTransaction {
	if b.CreditedAmounts == nil {
		b.CreditedAmounts = map[string]float64{}
	}

	var applied []BalanceTransaction
	for key, contribution := range contributions {
		delta := contribution.Amount - b.CreditedAmounts[key]
		if math.Abs(delta) <= balanceThreshold {
			continue
		}

		txType := TransactionCredit
		if delta < 0 {
			txType = TransactionDebit
		}
		tx := BalanceTransaction{
			ID:                     uuid.New(),
			Type:                   txType,
			Amount:                 math.Abs(delta),
			OpeningAmount:          b.Amount,
			ClosingAmount:          b.Amount + delta,
			OpeningAvailableAmount: b.AvailableAmount,
			ClosingAvailableAmount: b.AvailableAmount + delta,
			WasteRecordKey:         key,
			VersionID:              contribution.VersionID,
			SummaryLogID:           summaryLogID,
			CreatedAt:              time.Now(),
		}

		b.CreditedAmounts[key] = contribution.Amount
		b.Amount = tx.ClosingAmount
		b.AvailableAmount = tx.ClosingAvailableAmount
		b.Transactions = append(b.Transactions, tx)
		applied = append(applied, tx)
	}

	if len(applied) > 0 {
		b.UpdatedAt = time.Now()
	}
	return applied
}
