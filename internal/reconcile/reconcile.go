// Package reconcile decides whether stock covers a whole prescription and,
// when it does, takes the stock and records the sale atomically.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"rxdesk/m/domain"
	"rxdesk/m/internal/store"
)

// Decision is the result of Decide. PrescriptionID is set only when the
// prescription was fulfilled and identifies its sale rows.
type Decision struct {
	Outcome        domain.Outcome
	PrescriptionID string
}

// errShortStock rolls back the transaction when any drug falls short.
var errShortStock = errors.New("stock does not cover prescription")

type Reconciler struct {
	store *store.Store
	log   zerolog.Logger
	newID func() string
}

func New(s *store.Store, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		store: s,
		log:   log.With().Str("component", "reconcile").Logger(),
		newID: func() string { return uuid.NewString() },
	}
}

// Decide returns FULFILLED after decrementing stock and recording one sale per
// item, or INSUFFICIENT with the store untouched. Store failures are returned
// as errors wrapping store.ErrUnavailable or store.ErrWrite.
func (r *Reconciler) Decide(ctx context.Context, req domain.PrescriptionRequest) (Decision, error) {
	insufficient := Decision{Outcome: domain.OutcomeInsufficient}

	lines, err := price(req)
	if err != nil {
		r.log.Info().Err(err).Msg("prescription rejected before stock check")
		return insufficient, nil
	}
	demand := aggregate(lines)
	prescriptionID := r.newID()

	err = r.store.InTx(ctx, func(tx *store.Tx) error {
		for _, d := range demand {
			onHand, found, err := tx.Stock(ctx, d.name)
			if err != nil {
				return err
			}
			if !found || onHand < d.quantity {
				r.log.Info().Str("drug", d.name).Bool("found", found).
					Int64("on_hand", onHand).Int64("required", d.quantity).
					Msg("insufficient stock")
				return errShortStock
			}
		}
		for _, d := range demand {
			applied, err := tx.Decrement(ctx, d.name, d.quantity)
			if err != nil {
				return err
			}
			if !applied {
				return errShortStock
			}
		}
		for _, l := range lines {
			sale := domain.Sale{PrescriptionID: prescriptionID, DrugName: l.name, Quantity: l.quantity}
			if err := tx.RecordSale(ctx, &sale); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errShortStock) {
		return insufficient, nil
	}
	if err != nil {
		r.log.Error().Err(err).Str("prescription_id", prescriptionID).Msg("fulfilment aborted")
		return Decision{}, fmt.Errorf("reconcile prescription: %w", err)
	}

	r.log.Info().Str("prescription_id", prescriptionID).Int("lines", len(lines)).Msg("prescription fulfilled")
	return Decision{Outcome: domain.OutcomeFulfilled, PrescriptionID: prescriptionID}, nil
}
