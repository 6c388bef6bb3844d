package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rxdesk/m/domain"
)

// ErrDrugNotFound is returned by GetDrug when no stock record has the name.
var ErrDrugNotFound = errors.New("drug not found")

func (s *Store) ListDrugs(ctx context.Context) ([]domain.Drug, error) {
	drugs := []domain.Drug{}
	if err := s.db.SelectContext(ctx, &drugs, `SELECT id, name, quantity, updated_at FROM drugs ORDER BY name`); err != nil {
		return nil, unavailable("list drugs", err)
	}
	return drugs, nil
}

func (s *Store) GetDrug(ctx context.Context, name string) (domain.Drug, error) {
	var drug domain.Drug
	err := s.db.GetContext(ctx, &drug, `SELECT id, name, quantity, updated_at FROM drugs WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return drug, fmt.Errorf("%w: %q", ErrDrugNotFound, name)
	}
	if err != nil {
		return drug, unavailable("get drug", err)
	}
	return drug, nil
}

// UpsertDrug sets the absolute stock level for name, creating the record if
// needed.
func (s *Store) UpsertDrug(ctx context.Context, name string, quantity int64) (domain.Drug, error) {
	if quantity < 0 {
		return domain.Drug{}, fmt.Errorf("quantity must not be negative, got %d", quantity)
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO drugs (name, quantity) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET quantity = excluded.quantity, updated_at = CURRENT_TIMESTAMP`, name, quantity)
	if err != nil {
		return domain.Drug{}, fmt.Errorf("%w: upsert drug: %w", ErrWrite, err)
	}
	return s.GetDrug(ctx, name)
}
