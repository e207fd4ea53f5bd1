package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wastetrack/epr/internal/domain"
)

type wasteBalanceRepository struct {
	pool *pgxpool.Pool
}

// NewWasteBalanceRepository creates a Postgres-backed waste balance store.
func NewWasteBalanceRepository(pool *pgxpool.Pool) WasteBalanceRepository {
	return &wasteBalanceRepository{pool: pool}
}

func (r *wasteBalanceRepository) FindByAccreditation(ctx context.Context, accreditationID uuid.UUID) (*domain.WasteBalance, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, accreditation_id, amount, available_amount, credited_amounts, transactions, updated_at
		FROM waste_balances WHERE accreditation_id = $1`, accreditationID)

	var (
		balance          domain.WasteBalance
		creditedJSON     []byte
		transactionsJSON []byte
	)
	err := row.Scan(&balance.ID, &balance.AccreditationID, &balance.Amount,
		&balance.AvailableAmount, &creditedJSON, &transactionsJSON, &balance.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find waste balance: %w", err)
	}

	if err := json.Unmarshal(creditedJSON, &balance.CreditedAmounts); err != nil {
		return nil, fmt.Errorf("unmarshal credited amounts: %w", err)
	}
	if len(transactionsJSON) > 0 {
		if err := json.Unmarshal(transactionsJSON, &balance.Transactions); err != nil {
			return nil, fmt.Errorf("unmarshal balance transactions: %w", err)
		}
	}
	return &balance, nil
}

func (r *wasteBalanceRepository) Save(ctx context.Context, balance *domain.WasteBalance) error {
	credited, err := json.Marshal(balance.CreditedAmounts)
	if err != nil {
		return fmt.Errorf("marshal credited amounts: %w", err)
	}
	transactions, err := json.Marshal(balance.Transactions)
	if err != nil {
		return fmt.Errorf("marshal balance transactions: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO waste_balances (id, accreditation_id, amount, available_amount, credited_amounts, transactions, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (accreditation_id)
		DO UPDATE SET amount = EXCLUDED.amount,
		              available_amount = EXCLUDED.available_amount,
		              credited_amounts = EXCLUDED.credited_amounts,
		              transactions = EXCLUDED.transactions,
		              updated_at = EXCLUDED.updated_at`,
		balance.ID, balance.AccreditationID, balance.Amount, balance.AvailableAmount,
		credited, transactions, balance.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save waste balance: %w", err)
	}
	return nil
}
