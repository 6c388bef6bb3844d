package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"rxdesk/m/domain"
)

// Tx is a store transaction handed to InTx callbacks.
type Tx struct {
	tx *sqlx.Tx
}

// InTx runs fn in a single transaction. It commits when fn returns nil and
// rolls back on error or panic; fn's error is returned unchanged.
func (s *Store) InTx(ctx context.Context, fn func(*Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return unavailable("begin", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&Tx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrWrite, err)
	}
	return nil
}

// Stock returns the quantity on hand for name. found is false when no record
// exists.
func (t *Tx) Stock(ctx context.Context, name string) (quantity int64, found bool, err error) {
	err = t.tx.GetContext(ctx, &quantity, `SELECT quantity FROM drugs WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, unavailable("read stock", err)
	}
	return quantity, true, nil
}

// Decrement removes quantity from name's stock only if enough is on hand.
// applied reports whether the row was updated.
func (t *Tx) Decrement(ctx context.Context, name string, quantity int64) (applied bool, err error) {
	res, err := t.tx.ExecContext(ctx, `UPDATE drugs SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP
		WHERE name = ? AND quantity >= ?`, quantity, name, quantity)
	if err != nil {
		return false, fmt.Errorf("%w: decrement %q: %w", ErrWrite, name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: decrement %q: %w", ErrWrite, name, err)
	}
	return n == 1, nil
}

// RecordSale appends a sale row and fills in its ID.
func (t *Tx) RecordSale(ctx context.Context, sale *domain.Sale) error {
	res, err := t.tx.ExecContext(ctx, `INSERT INTO sales (prescription_id, drug_name, quantity) VALUES (?, ?, ?)`,
		sale.PrescriptionID, sale.DrugName, sale.Quantity)
	if err != nil {
		return fmt.Errorf("%w: record sale for %q: %w", ErrWrite, sale.DrugName, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		sale.ID = id
	}
	return nil
}
