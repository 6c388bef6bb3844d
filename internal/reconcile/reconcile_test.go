package reconcile

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rxdesk/m/domain"
	"rxdesk/m/internal/database"
	"rxdesk/m/internal/migrations"
	"rxdesk/m/internal/store"
)

func newTestStore(t *testing.T, stock map[string]int64) *store.Store {
	t.Helper()
	db, err := database.Connect(database.FileDSN(filepath.Join(t.TempDir(), "rx.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(context.Background(), db))

	s := store.New(db)
	for name, qty := range stock {
		_, err := s.UpsertDrug(context.Background(), name, qty)
		require.NoError(t, err)
	}
	return s
}

func newTestReconciler(s *store.Store) *Reconciler {
	return New(s, zerolog.New(io.Discard))
}

func rx(items ...domain.PrescriptionItem) domain.PrescriptionRequest {
	return domain.PrescriptionRequest{Medicines: items}
}

func med(name, freq, dur string) domain.PrescriptionItem {
	return domain.PrescriptionItem{
		Name:      name,
		Dosage:    domain.NewAmount("500mg"),
		Frequency: domain.NewAmount(freq),
		Duration:  domain.NewAmount(dur),
	}
}

func quantity(t *testing.T, s *store.Store, name string) int64 {
	t.Helper()
	d, err := s.GetDrug(context.Background(), name)
	require.NoError(t, err)
	return d.Quantity
}

func salesCount(t *testing.T, s *store.Store) int {
	t.Helper()
	sales, err := s.ListSales(context.Background(), store.SaleFilter{})
	require.NoError(t, err)
	return len(sales)
}

func TestDecideFulfillsExactStock(t *testing.T) {
	s := newTestStore(t, map[string]int64{"Paracetamol": 10})
	r := newTestReconciler(s)
	r.newID = func() string { return "rx-1" }

	d, err := r.Decide(context.Background(), rx(med("Paracetamol", "2", "5")))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFulfilled, d.Outcome)
	assert.Equal(t, "rx-1", d.PrescriptionID)
	assert.EqualValues(t, 0, quantity(t, s, "Paracetamol"))

	sales, err := s.ListSales(context.Background(), store.SaleFilter{PrescriptionID: "rx-1"})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "Paracetamol", sales[0].DrugName)
	assert.EqualValues(t, 10, sales[0].Quantity)
}

func TestDecideInsufficientStockLeavesStoreUntouched(t *testing.T) {
	s := newTestStore(t, map[string]int64{"Paracetamol": 5})
	r := newTestReconciler(s)

	d, err := r.Decide(context.Background(), rx(med("Paracetamol", "2", "5")))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeInsufficient, d.Outcome)
	assert.Empty(t, d.PrescriptionID)
	assert.EqualValues(t, 5, quantity(t, s, "Paracetamol"))
	assert.Zero(t, salesCount(t, s))
}

func TestDecideRejectsIncompleteItems(t *testing.T) {
	s := newTestStore(t, map[string]int64{"Paracetamol": 100})
	r := newTestReconciler(s)

	cases := map[string]domain.PrescriptionRequest{
		"missing duration":  rx(domain.PrescriptionItem{Name: "Paracetamol", Frequency: domain.NewAmount("2")}),
		"missing frequency": rx(domain.PrescriptionItem{Name: "Paracetamol", Duration: domain.NewAmount("5")}),
		"blank name":        rx(med(" ", "2", "5")),
		"unreadable":        rx(med("Paracetamol", "as needed", "5")),
		"empty":             rx(),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			d, err := r.Decide(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, domain.OutcomeInsufficient, d.Outcome)
		})
	}
	assert.EqualValues(t, 100, quantity(t, s, "Paracetamol"))
	assert.Zero(t, salesCount(t, s))
}

func TestDecideIsAllOrNothing(t *testing.T) {
	s := newTestStore(t, map[string]int64{"Paracetamol": 20, "Amoxicillin": 3})
	r := newTestReconciler(s)

	d, err := r.Decide(context.Background(), rx(
		med("Paracetamol", "2", "5"),
		med("Amoxicillin", "3", "7"),
	))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeInsufficient, d.Outcome)
	assert.EqualValues(t, 20, quantity(t, s, "Paracetamol"))
	assert.EqualValues(t, 3, quantity(t, s, "Amoxicillin"))
	assert.Zero(t, salesCount(t, s))
}

func TestDecideUnknownDrug(t *testing.T) {
	s := newTestStore(t, map[string]int64{"Paracetamol": 20})
	r := newTestReconciler(s)

	d, err := r.Decide(context.Background(), rx(med("Paracetamol", "1", "1"), med("paracetamol", "1", "1")))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeInsufficient, d.Outcome)
	assert.EqualValues(t, 20, quantity(t, s, "Paracetamol"))
}

func TestDecideSumsDuplicateLines(t *testing.T) {
	s := newTestStore(t, map[string]int64{"Paracetamol": 15})
	r := newTestReconciler(s)

	d, err := r.Decide(context.Background(), rx(med("Paracetamol", "2", "5"), med("Paracetamol", "1", "6")))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeInsufficient, d.Outcome)
	assert.EqualValues(t, 15, quantity(t, s, "Paracetamol"))

	d, err = r.Decide(context.Background(), rx(med("Paracetamol", "2", "5"), med("Paracetamol", "1", "5")))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFulfilled, d.Outcome)
	assert.EqualValues(t, 0, quantity(t, s, "Paracetamol"))
	assert.Equal(t, 2, salesCount(t, s))
}

func TestDecideCoercesStrings(t *testing.T) {
	s := newTestStore(t, map[string]int64{"Amoxicillin": 30})
	r := newTestReconciler(s)

	d, err := r.Decide(context.Background(), rx(med("Amoxicillin", "1-0-1", "2 weeks")))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFulfilled, d.Outcome)
	assert.EqualValues(t, 2, quantity(t, s, "Amoxicillin"))
}

func TestDecideKeepsScheduleSumWithTrailingNote(t *testing.T) {
	s := newTestStore(t, map[string]int64{"Amoxicillin": 10})
	r := newTestReconciler(s)

	d, err := r.Decide(context.Background(), rx(med("Amoxicillin", "1-0-1 after food", "5 days")))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFulfilled, d.Outcome)
	assert.EqualValues(t, 0, quantity(t, s, "Amoxicillin"))

	sales, err := s.ListSales(context.Background(), store.SaleFilter{PrescriptionID: d.PrescriptionID})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.EqualValues(t, 10, sales[0].Quantity)
}

func TestDecideRejectsDurationRange(t *testing.T) {
	s := newTestStore(t, map[string]int64{"Amoxicillin": 100})
	r := newTestReconciler(s)

	for _, dur := range []string{"5-7 days", "1-2 weeks"} {
		d, err := r.Decide(context.Background(), rx(med("Amoxicillin", "2", dur)))
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeInsufficient, d.Outcome, dur)
	}
	assert.EqualValues(t, 100, quantity(t, s, "Amoxicillin"))
	assert.Zero(t, salesCount(t, s))
}

func TestDecideRepeatRereadsStock(t *testing.T) {
	s := newTestStore(t, map[string]int64{"Paracetamol": 15})
	r := newTestReconciler(s)
	req := rx(med("Paracetamol", "2", "5"))

	d, err := r.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFulfilled, d.Outcome)

	d, err = r.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeInsufficient, d.Outcome)
	assert.EqualValues(t, 5, quantity(t, s, "Paracetamol"))
}

func TestDecideConcurrentRequestsNeverOversell(t *testing.T) {
	s := newTestStore(t, map[string]int64{"Paracetamol": 10})
	r := newTestReconciler(s)
	req := rx(med("Paracetamol", "2", "3"))

	const workers = 4
	outcomes := make(chan domain.Outcome, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := r.Decide(context.Background(), req)
			assert.NoError(t, err)
			outcomes <- d.Outcome
		}()
	}
	wg.Wait()
	close(outcomes)

	fulfilled := 0
	for o := range outcomes {
		if o == domain.OutcomeFulfilled {
			fulfilled++
		}
	}
	assert.Equal(t, 1, fulfilled)
	assert.EqualValues(t, 4, quantity(t, s, "Paracetamol"))
	assert.Equal(t, 1, salesCount(t, s))
}

func TestDecideFailedWriteRollsBack(t *testing.T) {
	s := newTestStore(t, map[string]int64{"Paracetamol": 10, "Ibuprofen": 10})
	_, err := s.Execute(context.Background(), `CREATE TRIGGER reject_ibuprofen BEFORE INSERT ON sales
		WHEN NEW.drug_name = 'Ibuprofen' BEGIN SELECT RAISE(ABORT, 'sale rejected'); END`)
	require.NoError(t, err)
	r := newTestReconciler(s)

	d, err := r.Decide(context.Background(), rx(med("Paracetamol", "2", "5"), med("Ibuprofen", "1", "2")))
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrWrite)
	assert.Empty(t, d.Outcome)
	assert.EqualValues(t, 10, quantity(t, s, "Paracetamol"))
	assert.EqualValues(t, 10, quantity(t, s, "Ibuprofen"))
	assert.Zero(t, salesCount(t, s))
}
