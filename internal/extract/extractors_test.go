package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend returns canned content per system prompt fragment.
type fakeBackend struct {
	content string
	err     error
	// lastSystem records the instruction of the most recent call.
	lastSystem string
	lastJSON   bool
}

func (f *fakeBackend) Complete(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	f.lastSystem = system
	f.lastJSON = jsonMode
	return f.content, f.err
}

func TestIdentityExtractor(t *testing.T) {
	t.Run("valid bundle with date conversion", func(t *testing.T) {
		backend := &fakeBackend{content: `{"patient_name":"Doe, John","date_of_birth":"1990-03-25","provider_name":"Asim Ali"}`}
		got, err := NewIdentityExtractor(backend).Extract(context.Background(), "fax text")
		require.NoError(t, err)
		assert.Equal(t, "Doe, John", got.PatientName)
		assert.Equal(t, "03/25/1990", got.DateOfBirth)
		assert.Equal(t, "Asim Ali", got.ProviderName)
		assert.True(t, backend.lastJSON, "identity extraction must request JSON mode")
	})

	t.Run("unparseable date leaves field empty", func(t *testing.T) {
		backend := &fakeBackend{content: `{"patient_name":"Doe, John","date_of_birth":"unknown","provider_name":"Asim Ali"}`}
		got, err := NewIdentityExtractor(backend).Extract(context.Background(), "fax text")
		require.NoError(t, err)
		assert.Empty(t, got.DateOfBirth)
		assert.Equal(t, "Doe, John", got.PatientName)
	})

	t.Run("malformed bundle fails extraction", func(t *testing.T) {
		backend := &fakeBackend{content: `not json at all`}
		_, err := NewIdentityExtractor(backend).Extract(context.Background(), "fax text")
		require.ErrorIs(t, err, ErrExtraction)
	})

	t.Run("backend error wraps ErrExtraction", func(t *testing.T) {
		backend := &fakeBackend{err: errors.New("boom")}
		_, err := NewIdentityExtractor(backend).Extract(context.Background(), "fax text")
		require.ErrorIs(t, err, ErrExtraction)
	})
}

func TestCategoryExtractor(t *testing.T) {
	backend := &fakeBackend{content: "  Prior Authorization\n"}
	got, err := NewCategoryExtractor(backend).Extract(context.Background(), "fax text")
	require.NoError(t, err)
	assert.Equal(t, "Prior Authorization", got)
	assert.Contains(t, backend.lastSystem, "Prior Authorization")
	assert.False(t, backend.lastJSON)
}

func TestCategoryExtractorPassesUnknownLabelThrough(t *testing.T) {
	// Membership in the closed label set is not validated here; a stray
	// label surfaces later as a not-found condition downstream.
	backend := &fakeBackend{content: "Veterinary Records"}
	got, err := NewCategoryExtractor(backend).Extract(context.Background(), "fax text")
	require.NoError(t, err)
	assert.Equal(t, "Veterinary Records", got)
}

func TestOriginAndSummaryExtractors(t *testing.T) {
	origin := &fakeBackend{content: "Quest Diagnostics"}
	got, err := NewOriginExtractor(origin).Extract(context.Background(), "fax text")
	require.NoError(t, err)
	assert.Equal(t, "Quest Diagnostics", got)

	summary := &fakeBackend{content: "- CBC within normal limits\n- Follow up in 3 months"}
	note, err := NewSummaryExtractor(summary).Extract(context.Background(), "fax text")
	require.NoError(t, err)
	assert.Contains(t, note, "CBC within normal limits")
}

func TestClientComplete(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "test-model", req["model"])

			fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"Labs"}}]}`)
		}))
		defer server.Close()

		client, err := NewClient(Config{BaseURL: server.URL, APIKey: "test-key", Model: "test-model"})
		require.NoError(t, err)

		got, err := client.Complete(context.Background(), "classify", "doc", false)
		require.NoError(t, err)
		assert.Equal(t, "Labs", got)
	})

	t.Run("retries on server error", func(t *testing.T) {
		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
		}))
		defer server.Close()

		client, err := NewClient(Config{BaseURL: server.URL, Model: "test-model", MaxRetries: 2})
		require.NoError(t, err)

		got, err := client.Complete(context.Background(), "sys", "user", false)
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, 2, calls)
	})

	t.Run("client error is not retried", func(t *testing.T) {
		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":{"message":"bad request","type":"invalid_request_error"}}`)
		}))
		defer server.Close()

		client, err := NewClient(Config{BaseURL: server.URL, Model: "test-model", MaxRetries: 3})
		require.NoError(t, err)

		_, err = client.Complete(context.Background(), "sys", "user", false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad request")
		assert.Equal(t, 1, calls)
	})

	t.Run("no choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"choices":[]}`)
		}))
		defer server.Close()

		client, err := NewClient(Config{BaseURL: server.URL, Model: "test-model"})
		require.NoError(t, err)

		_, err = client.Complete(context.Background(), "sys", "user", false)
		require.Error(t, err)
	})
}
