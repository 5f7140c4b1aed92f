package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/intaked/internal/intake"
	"github.com/fyrsmithlabs/intaked/internal/match"
	"github.com/fyrsmithlabs/intaked/internal/memory"
)

type stubProcessor struct {
	outcome intake.Outcome
	err     error
	gotText string
}

func (s *stubProcessor) Process(ctx context.Context, sourceText string) (intake.Outcome, error) {
	s.gotText = sourceText
	if s.err != nil {
		return intake.Outcome{}, s.err
	}
	out := s.outcome
	out.Record.SourceText = sourceText
	return out, nil
}

type stubCorrections struct {
	err  error
	got  string
	over memory.Overrides
}

func (s *stubCorrections) Add(ctx context.Context, documentText string, overrides memory.Overrides) error {
	s.got = documentText
	s.over = overrides
	return s.err
}

type stubConverter struct {
	text string
	err  error
}

func (s *stubConverter) Convert(ctx context.Context, source string) (string, error) {
	return s.text, s.err
}

func newTestServer(t *testing.T, p *stubProcessor, c *stubCorrections, conv *stubConverter) *Server {
	t.Helper()
	var corrections Corrections
	if c != nil {
		corrections = c
	}
	var converter Converter
	if conv != nil {
		converter = conv
	}
	s, err := NewServer(p, corrections, converter, zap.NewNop(), Config{})
	require.NoError(t, err)
	return s
}

func doJSON(s *Server, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestNewServer(t *testing.T) {
	t.Run("requires processor", func(t *testing.T) {
		_, err := NewServer(nil, nil, nil, zap.NewNop(), Config{})
		assert.Error(t, err)
	})

	t.Run("requires logger", func(t *testing.T) {
		_, err := NewServer(&stubProcessor{}, nil, nil, nil, Config{})
		assert.Error(t, err)
	})

	t.Run("applies defaults", func(t *testing.T) {
		s, err := NewServer(&stubProcessor{}, nil, nil, zap.NewNop(), Config{})
		require.NoError(t, err)
		assert.Equal(t, 8080, s.config.Port)
		assert.Equal(t, match.DefaultThresholds(), s.config.Thresholds)
		assert.Equal(t, match.OptionThreshold, s.config.OptionThreshold)
	})
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, &stubProcessor{}, nil, nil)
	rec := doJSON(s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleProcess(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		p := &stubProcessor{outcome: intake.Outcome{
			Record: intake.Record{
				PatientName:  "Jane Doe",
				ProviderName: "Maria Gomez",
				Category:     "Labs",
			},
		}}
		s := newTestServer(t, p, nil, nil)

		rec := doJSON(s, http.MethodPost, "/api/v1/process", ProcessRequest{Text: "fax body"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "fax body", p.gotText)

		var resp ProcessResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Jane Doe", resp.Record.PatientName)
		assert.False(t, resp.RequiresReview)
		assert.Empty(t, resp.Failures)
	})

	t.Run("partial failure surfaces in response", func(t *testing.T) {
		p := &stubProcessor{outcome: intake.Outcome{
			Record:   intake.Record{Category: "Labs"},
			Failures: map[string]error{intake.FieldIdentity: errors.New("upstream timeout")},
		}}
		s := newTestServer(t, p, nil, nil)

		rec := doJSON(s, http.MethodPost, "/api/v1/process", ProcessRequest{Text: "fax body"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ProcessResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.RequiresReview)
		assert.Equal(t, "upstream timeout", resp.Failures[intake.FieldIdentity])
	})

	t.Run("missing text", func(t *testing.T) {
		s := newTestServer(t, &stubProcessor{}, nil, nil)
		rec := doJSON(s, http.MethodPost, "/api/v1/process", ProcessRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleProcessURL(t *testing.T) {
	t.Run("converts then processes", func(t *testing.T) {
		p := &stubProcessor{}
		s := newTestServer(t, p, nil, &stubConverter{text: "converted text"})

		rec := doJSON(s, http.MethodPost, "/api/v1/process-url", ProcessURLRequest{Source: "https://faxes/doc.pdf"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "converted text", p.gotText)
	})

	t.Run("conversion failure", func(t *testing.T) {
		s := newTestServer(t, &stubProcessor{}, nil, &stubConverter{err: errors.New("sidecar down")})
		rec := doJSON(s, http.MethodPost, "/api/v1/process-url", ProcessURLRequest{Source: "doc.pdf"})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("converter not configured", func(t *testing.T) {
		s := newTestServer(t, &stubProcessor{}, nil, nil)
		rec := doJSON(s, http.MethodPost, "/api/v1/process-url", ProcessURLRequest{Source: "doc.pdf"})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHandleAddCorrection(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c := &stubCorrections{}
		s := newTestServer(t, &stubProcessor{}, c, nil)

		rec := doJSON(s, http.MethodPost, "/api/v1/corrections", CorrectionRequest{
			SourceText: "fax body",
			Overrides:  map[string]string{"category": "Imaging"},
		})
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "fax body", c.got)
		assert.Equal(t, "Imaging", c.over["category"])
	})

	t.Run("memory unavailable", func(t *testing.T) {
		c := &stubCorrections{err: memory.ErrUnavailable}
		s := newTestServer(t, &stubProcessor{}, c, nil)

		rec := doJSON(s, http.MethodPost, "/api/v1/corrections", CorrectionRequest{
			SourceText: "fax body",
			Overrides:  map[string]string{"category": "Imaging"},
		})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("memory not configured", func(t *testing.T) {
		s := newTestServer(t, &stubProcessor{}, nil, nil)
		rec := doJSON(s, http.MethodPost, "/api/v1/corrections", CorrectionRequest{
			SourceText: "fax body",
			Overrides:  map[string]string{"category": "Imaging"},
		})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("missing overrides", func(t *testing.T) {
		s := newTestServer(t, &stubProcessor{}, &stubCorrections{}, nil)
		rec := doJSON(s, http.MethodPost, "/api/v1/corrections", CorrectionRequest{SourceText: "fax body"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleResolveIdentity(t *testing.T) {
	s := newTestServer(t, &stubProcessor{}, nil, nil)

	rec := doJSON(s, http.MethodPost, "/api/v1/resolve/identity", ResolveIdentityRequest{
		Target: "Doe, Jane",
		Candidates: []match.Candidate{
			{Display: "Jane Doe", ID: 42},
			{Display: "John Roe", ID: 7},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result match.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Matched)
	require.NotNil(t, result.Candidate)
	assert.Equal(t, int64(42), result.Candidate.ID)
}

func TestHandleResolveOption(t *testing.T) {
	s := newTestServer(t, &stubProcessor{}, nil, nil)

	rec := doJSON(s, http.MethodPost, "/api/v1/resolve/option", ResolveOptionRequest{
		Target:  "Labs",
		Options: []string{"Imaging", "Labs and Pathology", "Forms"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result match.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Matched)
	require.NotNil(t, result.Candidate)
	assert.Equal(t, "Labs and Pathology", result.Candidate.Display)
}
