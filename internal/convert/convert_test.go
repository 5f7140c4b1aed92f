package convert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClientConvert(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/convert", r.URL.Path)

		var req convertRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		switch req.Source {
		case "https://faxes.example.com/doc-1.pdf":
			_ = json.NewEncoder(w).Encode(convertResponse{
				Text:   "REFERRAL FAX\nPatient: Jane Doe",
				Images: []any{"page-1.png", "page-2.png"},
			})
		case "corrupt.pdf":
			_ = json.NewEncoder(w).Encode(convertResponse{Error: "unreadable document"})
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, zap.NewNop())
	ctx := context.Background()

	t.Run("success ignores image artifacts", func(t *testing.T) {
		text, err := client.Convert(ctx, "https://faxes.example.com/doc-1.pdf")
		require.NoError(t, err)
		assert.Equal(t, "REFERRAL FAX\nPatient: Jane Doe", text)
	})

	t.Run("sidecar error", func(t *testing.T) {
		_, err := client.Convert(ctx, "corrupt.pdf")
		assert.ErrorIs(t, err, ErrConversion)
		assert.Contains(t, err.Error(), "unreadable document")
	})

	t.Run("http error", func(t *testing.T) {
		_, err := client.Convert(ctx, "other.pdf")
		assert.ErrorIs(t, err, ErrConversion)
	})

	t.Run("empty source", func(t *testing.T) {
		_, err := client.Convert(ctx, "")
		assert.ErrorIs(t, err, ErrConversion)
	})
}
