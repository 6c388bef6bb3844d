package api

import (
	"net/http"
	"time"

	"rxdesk/m/internal/store"
)

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.SaleFilter{
		StartDate:      q.Get("start_date"),
		EndDate:        q.Get("end_date"),
		PrescriptionID: q.Get("prescription_id"),
	}
	for _, d := range []string{filter.StartDate, filter.EndDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			respondError(w, http.StatusBadRequest, "dates must be YYYY-MM-DD")
			return
		}
	}

	sales, err := h.store.ListSales(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("list sales")
		respondError(w, http.StatusServiceUnavailable, "unable to fetch sales")
		return
	}
	respondJSON(w, http.StatusOK, sales)
}

func (h *Handler) dailySales(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.DailySummary(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("daily sales summary")
		respondError(w, http.StatusServiceUnavailable, "unable to fetch daily sales")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
