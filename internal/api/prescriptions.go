package api

import (
	"errors"
	"io"
	"net/http"

	"rxdesk/m/domain"
	"rxdesk/m/internal/extraction"
	"rxdesk/m/internal/pipeline"
)

type prescriptionResponse struct {
	Outcome        domain.Outcome `json:"outcome,omitempty"`
	Message        string         `json:"message"`
	PrescriptionID string         `json:"prescription_id,omitempty"`
	Error          string         `json:"error,omitempty"`
	Raw            string         `json:"raw,omitempty"`
}

func (h *Handler) submitPrescription(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "image exceeds upload limit")
			return
		}
		respondError(w, http.StatusBadRequest, "expected multipart form with an image field")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unable to read image")
		return
	}
	img, err := extraction.NewImage(data)
	if err != nil {
		respondError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}

	result, err := h.pipeline.Run(r.Context(), img)
	h.respondPipeline(w, r, result, err)
}

func (h *Handler) submitParsedPrescription(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unable to read body")
		return
	}
	req, err := extraction.Parse(string(body))
	if err != nil {
		var perr *extraction.ParseError
		errors.As(err, &perr)
		respondJSON(w, http.StatusBadRequest, prescriptionResponse{
			Message: pipeline.Render(pipeline.Result{}, err),
			Error:   err.Error(),
			Raw:     perr.Raw,
		})
		return
	}
	result, err := h.pipeline.RunParsed(r.Context(), req)
	h.respondPipeline(w, r, result, err)
}

// respondPipeline maps a pipeline run onto a status code. Business outcomes
// are 200; only operational failures are errors.
func (h *Handler) respondPipeline(w http.ResponseWriter, r *http.Request, result pipeline.Result, err error) {
	if err == nil {
		respondJSON(w, http.StatusOK, prescriptionResponse{
			Outcome:        result.Outcome,
			Message:        result.Message,
			PrescriptionID: result.PrescriptionID,
		})
		return
	}

	resp := prescriptionResponse{Message: pipeline.Render(result, err), Error: err.Error()}
	var perr *extraction.ParseError
	switch {
	case errors.As(err, &perr):
		resp.Raw = perr.Raw
		respondJSON(w, http.StatusUnprocessableEntity, resp)
	case pipeline.IsStoreError(err):
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("inventory store failure")
		respondJSON(w, http.StatusServiceUnavailable, resp)
	default:
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("pipeline failure")
		respondJSON(w, http.StatusInternalServerError, resp)
	}
}
