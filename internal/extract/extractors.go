package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Identity is the field bundle returned by the identity extractor.
// DateOfBirth is canonical mm/dd/yyyy, or empty when the backend's
// answer parsed under no known format.
type Identity struct {
	DateOfBirth  string `json:"date_of_birth"`
	PatientName  string `json:"patient_name"`
	ProviderName string `json:"provider_name"`
}

// Backend is the chat completion surface the extractors call. *Client
// satisfies it; tests substitute fakes.
type Backend interface {
	Complete(ctx context.Context, system, user string, jsonMode bool) (string, error)
}

// IdentityExtractor extracts patient name, date of birth and the
// addressed-to provider. The addressed-to-over-signer preference is a
// semantic constraint carried in the system instruction, not a parsing
// rule here.
type IdentityExtractor struct {
	backend Backend
}

// NewIdentityExtractor creates an identity extractor.
func NewIdentityExtractor(backend Backend) *IdentityExtractor {
	return &IdentityExtractor{backend: backend}
}

// Extract returns the identity bundle for the document text.
func (e *IdentityExtractor) Extract(ctx context.Context, sourceText string) (Identity, error) {
	out, err := e.backend.Complete(ctx, identityPrompt, sourceText, true)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: identity: %v", ErrExtraction, err)
	}

	var bundle struct {
		PatientName  string `json:"patient_name"`
		DateOfBirth  string `json:"date_of_birth"`
		ProviderName string `json:"provider_name"`
	}
	if err := json.Unmarshal([]byte(out), &bundle); err != nil {
		return Identity{}, fmt.Errorf("%w: identity bundle malformed: %v", ErrExtraction, err)
	}

	id := Identity{
		PatientName:  strings.TrimSpace(bundle.PatientName),
		ProviderName: strings.TrimSpace(bundle.ProviderName),
	}
	// An unparseable date leaves the field undefined rather than failing
	// the bundle.
	if dob, err := CanonicalDOB(bundle.DateOfBirth); err == nil {
		id.DateOfBirth = dob
	}
	return id, nil
}

// CategoryExtractor classifies the document into one label of the
// closed CategoryLabels set.
type CategoryExtractor struct {
	backend Backend
	prompt  string
}

// NewCategoryExtractor creates a category extractor.
func NewCategoryExtractor(backend Backend) *CategoryExtractor {
	return &CategoryExtractor{backend: backend, prompt: categoryPrompt()}
}

// Extract returns the document-type label. The label is passed through
// as the backend produced it, membership unchecked.
func (e *CategoryExtractor) Extract(ctx context.Context, sourceText string) (string, error) {
	out, err := e.backend.Complete(ctx, e.prompt, sourceText, false)
	if err != nil {
		return "", fmt.Errorf("%w: category: %v", ErrExtraction, err)
	}
	return strings.TrimSpace(out), nil
}

// OriginExtractor extracts the free-text sender label used as the
// document subcategory.
type OriginExtractor struct {
	backend Backend
}

// NewOriginExtractor creates an origin extractor.
func NewOriginExtractor(backend Backend) *OriginExtractor {
	return &OriginExtractor{backend: backend}
}

// Extract returns the sender/subcategory label.
func (e *OriginExtractor) Extract(ctx context.Context, sourceText string) (string, error) {
	out, err := e.backend.Complete(ctx, originPrompt, sourceText, false)
	if err != nil {
		return "", fmt.Errorf("%w: origin: %v", ErrExtraction, err)
	}
	return strings.TrimSpace(out), nil
}

// SummaryExtractor produces the short clinical narrative filed as the
// document comment. Length and format are not validated here.
type SummaryExtractor struct {
	backend Backend
}

// NewSummaryExtractor creates a summary extractor.
func NewSummaryExtractor(backend Backend) *SummaryExtractor {
	return &SummaryExtractor{backend: backend}
}

// Extract returns the narrative summary.
func (e *SummaryExtractor) Extract(ctx context.Context, sourceText string) (string, error) {
	out, err := e.backend.Complete(ctx, summaryPrompt, sourceText, false)
	if err != nil {
		return "", fmt.Errorf("%w: summary: %v", ErrExtraction, err)
	}
	return strings.TrimSpace(out), nil
}
