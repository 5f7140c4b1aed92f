package intake

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/intaked/internal/extract"
	"github.com/fyrsmithlabs/intaked/internal/memory"
)

var tracer = otel.Tracer("intaked.intake")

// ErrEmptyDocument indicates the pipeline was given no text to work on.
var ErrEmptyDocument = errors.New("empty document text")

// Extractor field names, used as failure keys in Outcome.Failures.
const (
	FieldIdentity    = "identity"
	FieldCategory    = "category"
	FieldOrigin      = "origin"
	FieldSummary     = "summary"
	FieldCorrections = "corrections"
)

// IdentitySource extracts patient and provider identity fields.
type IdentitySource interface {
	Extract(ctx context.Context, sourceText string) (extract.Identity, error)
}

// FieldSource extracts a single free-text field.
type FieldSource interface {
	Extract(ctx context.Context, sourceText string) (string, error)
}

// CorrectionSource looks up remembered operator corrections.
type CorrectionSource interface {
	Query(ctx context.Context, documentText string) (memory.Overrides, error)
}

// Outcome is the result of one pipeline run. Failures maps extractor
// field names to the error that emptied them; a populated map does not
// make the run an error, only the affected fields stay blank.
type Outcome struct {
	Record   Record
	Failures map[string]error
}

// Pipeline runs the extractors concurrently and assembles the record.
// A nil corrections source disables correction lookup entirely.
type Pipeline struct {
	identity    IdentitySource
	category    FieldSource
	origin      FieldSource
	summary     FieldSource
	corrections CorrectionSource
	rules       Rules
	logger      *zap.Logger
}

// NewPipeline wires a pipeline. identity, category, origin and summary
// are required; corrections may be nil.
func NewPipeline(
	identity IdentitySource,
	category, origin, summary FieldSource,
	corrections CorrectionSource,
	rules Rules,
	logger *zap.Logger,
) (*Pipeline, error) {
	if identity == nil || category == nil || origin == nil || summary == nil {
		return nil, errors.New("all four extractors are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		identity:    identity,
		category:    category,
		origin:      origin,
		summary:     summary,
		corrections: corrections,
		rules:       rules,
		logger:      logger,
	}, nil
}

// Process runs the full pipeline on one document. All four extractors
// run to completion before any field is read; one extractor failing
// never aborts the others. The returned error covers only input
// validation, never extractor or correction failures.
func (p *Pipeline) Process(ctx context.Context, sourceText string) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "Pipeline.Process")
	defer span.End()

	if sourceText == "" {
		return Outcome{}, ErrEmptyDocument
	}

	var (
		identity                  extract.Identity
		category, origin, summary string
		identityErr, categoryErr  error
		originErr, summaryErr     error
	)

	// Each goroutine writes only its own variables, so the barrier at
	// Wait is the only synchronization needed. Failures are collected,
	// not returned, to keep one slow-path error from cancelling the
	// other extractors.
	var g errgroup.Group
	g.Go(func() error {
		identity, identityErr = p.identity.Extract(ctx, sourceText)
		return nil
	})
	g.Go(func() error {
		category, categoryErr = p.category.Extract(ctx, sourceText)
		return nil
	})
	g.Go(func() error {
		origin, originErr = p.origin.Extract(ctx, sourceText)
		return nil
	})
	g.Go(func() error {
		summary, summaryErr = p.summary.Extract(ctx, sourceText)
		return nil
	})
	_ = g.Wait()

	failures := make(map[string]error)
	record := Record{SourceText: sourceText}

	if identityErr != nil {
		failures[FieldIdentity] = identityErr
		p.logger.Warn("identity extraction failed", zap.Error(identityErr))
	} else {
		record.DateOfBirth = identity.DateOfBirth
		record.PatientName = identity.PatientName
		record.ProviderName = identity.ProviderName
	}
	if categoryErr != nil {
		failures[FieldCategory] = categoryErr
		p.logger.Warn("category extraction failed", zap.Error(categoryErr))
	} else {
		record.Category = category
	}
	if originErr != nil {
		failures[FieldOrigin] = originErr
		p.logger.Warn("origin extraction failed", zap.Error(originErr))
	} else {
		record.Subcategory = origin
	}
	if summaryErr != nil {
		failures[FieldSummary] = summaryErr
		p.logger.Warn("summary extraction failed", zap.Error(summaryErr))
	} else {
		record.Comment = summary
	}

	p.rules.Apply(&record)

	if p.corrections != nil {
		overrides, err := p.corrections.Query(ctx, sourceText)
		if err != nil {
			// Fail open: a broken memory never blocks intake.
			failures[FieldCorrections] = err
			p.logger.Warn("correction lookup failed, continuing without", zap.Error(err))
		} else if len(overrides) > 0 {
			applyOverrides(&record, overrides)
			p.logger.Info("applied remembered correction",
				zap.Int("override_fields", len(overrides)))
		}
	}

	if record.RequiresReview() {
		p.logger.Info("record requires manual review",
			zap.Bool("has_patient", record.PatientName != ""),
			zap.Bool("has_category", record.Category != ""),
			zap.Bool("has_provider", record.ProviderName != ""),
		)
	}

	return Outcome{Record: record, Failures: failures}, nil
}

// applyOverrides copies non-empty corrected values onto the record.
// Unknown field names are ignored so old corrections survive schema
// drift.
func applyOverrides(r *Record, overrides memory.Overrides) {
	for field, value := range overrides {
		if value == "" {
			continue
		}
		switch field {
		case "date_of_birth":
			r.DateOfBirth = value
		case "patient_name":
			r.PatientName = value
		case "provider_name":
			r.ProviderName = value
		case "category":
			r.Category = value
		case "subcategory":
			r.Subcategory = value
		case "comment":
			r.Comment = value
		}
	}
}

// FailureSummary renders Failures for logs and API responses.
func (o Outcome) FailureSummary() map[string]string {
	if len(o.Failures) == 0 {
		return nil
	}
	out := make(map[string]string, len(o.Failures))
	for field, err := range o.Failures {
		out[field] = fmt.Sprintf("%v", err)
	}
	return out
}
