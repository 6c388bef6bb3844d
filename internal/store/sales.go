package store

import (
	"context"
	"strings"

	"rxdesk/m/domain"
)

// SaleFilter narrows ListSales. Dates are YYYY-MM-DD and inclusive.
type SaleFilter struct {
	StartDate      string
	EndDate        string
	PrescriptionID string
}

type DailySummary struct {
	Units         int64 `db:"units" json:"units"`
	Sales         int64 `db:"sales" json:"sales"`
	Prescriptions int64 `db:"prescriptions" json:"prescriptions"`
}

func (s *Store) ListSales(ctx context.Context, f SaleFilter) ([]domain.Sale, error) {
	var (
		args    []any
		clauses []string
	)
	if f.StartDate != "" {
		args = append(args, f.StartDate)
		clauses = append(clauses, "DATE(created_at) >= ?")
	}
	if f.EndDate != "" {
		args = append(args, f.EndDate)
		clauses = append(clauses, "DATE(created_at) <= ?")
	}
	if f.PrescriptionID != "" {
		args = append(args, f.PrescriptionID)
		clauses = append(clauses, "prescription_id = ?")
	}

	query := `SELECT id, prescription_id, drug_name, quantity, created_at FROM sales`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	sales := []domain.Sale{}
	if err := s.db.SelectContext(ctx, &sales, query, args...); err != nil {
		return nil, unavailable("list sales", err)
	}
	return sales, nil
}

func (s *Store) DailySummary(ctx context.Context) (DailySummary, error) {
	var sum DailySummary
	err := s.db.GetContext(ctx, &sum, `SELECT COALESCE(SUM(quantity), 0) AS units, COUNT(*) AS sales, COUNT(DISTINCT prescription_id) AS prescriptions
		FROM sales WHERE DATE(created_at) = DATE('now')`)
	if err != nil {
		return sum, unavailable("daily summary", err)
	}
	return sum, nil
}
