package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"rxdesk/m/internal/store"
)

// Drug Handlers

func (h *Handler) listDrugs(w http.ResponseWriter, r *http.Request) {
	drugs, err := h.store.ListDrugs(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list drugs")
		respondError(w, http.StatusServiceUnavailable, "unable to fetch drugs")
		return
	}
	respondJSON(w, http.StatusOK, drugs)
}

func (h *Handler) getDrug(w http.ResponseWriter, r *http.Request) {
	drug, err := h.store.GetDrug(r.Context(), strings.TrimSpace(chi.URLParam(r, "name")))
	if errors.Is(err, store.ErrDrugNotFound) {
		respondError(w, http.StatusNotFound, "drug not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "unable to fetch drug")
		return
	}
	respondJSON(w, http.StatusOK, drug)
}

type upsertDrugRequest struct {
	Name     string `json:"name" validate:"required"`
	Quantity *int64 `json:"quantity" validate:"required,min=0"`
}

func (h *Handler) upsertDrug(w http.ResponseWriter, r *http.Request) {
	var req upsertDrugRequest
	if !h.bind(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(w, http.StatusBadRequest, "name must not be blank")
		return
	}
	drug, err := h.store.UpsertDrug(r.Context(), name, *req.Quantity)
	if err != nil {
		h.log.Error().Err(err).Str("drug", name).Msg("upsert drug")
		respondError(w, http.StatusServiceUnavailable, "unable to save drug")
		return
	}
	respondJSON(w, http.StatusOK, drug)
}

// Store boundary handlers. The router restricts them to owners.

func (h *Handler) listTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.store.ListTables(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string][]string{"tables": tables})
}

func (h *Handler) describeTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	cols, err := h.store.DescribeTable(r.Context(), name)
	if errors.Is(err, store.ErrUnknownTable) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"table": name, "columns": cols})
}

// queryRequest is a read statement. Writes are only possible from the CLI.
type queryRequest struct {
	Statement string        `json:"statement" validate:"required"`
	Args      []interface{} `json:"args"`
}

func (h *Handler) executeQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !h.bind(w, r, &req) {
		return
	}
	res, err := h.store.Query(r.Context(), req.Statement, req.Args...)
	if errors.Is(err, store.ErrReadOnly) {
		respondError(w, http.StatusForbidden, err.Error())
		return
	}
	if err != nil {
		h.log.Warn().Err(err).Msg("inventory query failed")
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}
