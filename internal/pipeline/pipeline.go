// Package pipeline runs extraction and the stock decision as one synchronous
// chain and renders the single message shown to staff.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"rxdesk/m/domain"
	"rxdesk/m/internal/extraction"
	"rxdesk/m/internal/metrics"
	"rxdesk/m/internal/reconcile"
	"rxdesk/m/internal/store"
)

// Decider is the stock decision stage.
type Decider interface {
	Decide(ctx context.Context, req domain.PrescriptionRequest) (reconcile.Decision, error)
}

type Result struct {
	Outcome        domain.Outcome `json:"outcome"`
	Message        string         `json:"message"`
	PrescriptionID string         `json:"prescription_id,omitempty"`
}

type Pipeline struct {
	extractor extraction.Extractor
	decider   Decider
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

func New(e extraction.Extractor, d Decider, m *metrics.Metrics, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		extractor: e,
		decider:   d,
		metrics:   m,
		log:       log.With().Str("component", "pipeline").Logger(),
	}
}

// Run extracts the prescription from img and decides it. A reply that does
// not parse stops the run with *extraction.ParseError before any stock is
// read.
func (p *Pipeline) Run(ctx context.Context, img extraction.Image) (Result, error) {
	if p.extractor == nil {
		p.metrics.CountPrescription(metrics.LabelError)
		return Result{}, errors.New("no vision provider configured")
	}
	start := time.Now()
	raw, err := p.extractor.Extract(ctx, img)
	p.metrics.ObserveExtraction(time.Since(start))
	if err != nil {
		p.metrics.CountPrescription(metrics.LabelError)
		return Result{}, fmt.Errorf("extract prescription: %w", err)
	}
	p.log.Debug().Str("raw", raw).Msg("vision reply")

	req, err := extraction.Parse(raw)
	if err != nil {
		p.metrics.CountPrescription(metrics.LabelParseError)
		p.log.Warn().Err(err).Msg("vision reply is not valid prescription JSON")
		return Result{}, err
	}
	return p.RunParsed(ctx, req)
}

// RunParsed decides an already structured prescription.
func (p *Pipeline) RunParsed(ctx context.Context, req domain.PrescriptionRequest) (Result, error) {
	decision, err := p.decider.Decide(ctx, req)
	if err != nil {
		if IsStoreError(err) {
			p.metrics.CountPrescription(metrics.LabelStoreError)
		} else {
			p.metrics.CountPrescription(metrics.LabelError)
		}
		return Result{}, err
	}

	if decision.Outcome == domain.OutcomeFulfilled {
		p.metrics.CountPrescription(metrics.LabelFulfilled)
	} else {
		p.metrics.CountPrescription(metrics.LabelInsufficient)
	}
	return Result{
		Outcome:        decision.Outcome,
		Message:        decision.Outcome.Message(),
		PrescriptionID: decision.PrescriptionID,
	}, nil
}

// Render produces the one outbound text for a run.
func Render(res Result, err error) string {
	if err == nil {
		return res.Outcome.Message()
	}
	var perr *extraction.ParseError
	switch {
	case errors.As(err, &perr):
		return fmt.Sprintf("[Vision JSON Parse Error] %v\n\n%s", perr.Err, perr.Raw)
	case IsStoreError(err):
		return fmt.Sprintf("[Inventory Store Error] %v", err)
	default:
		return fmt.Sprintf("[Pipeline Error] %v", err)
	}
}

// IsStoreError reports whether err came from the inventory store.
func IsStoreError(err error) bool {
	return errors.Is(err, store.ErrUnavailable) || errors.Is(err, store.ErrWrite)
}
