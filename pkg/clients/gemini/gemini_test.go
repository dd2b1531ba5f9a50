package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
)

func candidate(parts ...map[string]any) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{{
			"content":      map[string]any{"role": "model", "parts": parts},
			"finishReason": "STOP",
		}},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), Config{APIKey: "test-key", Endpoint: srv.URL + "/"}, nil)
	require.NoError(t, err)
	return client
}

func TestInterpretVoice(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent"), r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			_ = json.NewEncoder(w).Encode(candidate(map[string]any{"text": "two milk and a bread"}))
			return
		}
		_ = json.NewEncoder(w).Encode(candidate(map[string]any{
			"text": `{"items":[{"product_name":"Milk","quantity":2},{"product_name":"Bread","quantity":0},{"product_name":" ","quantity":3}]}`,
		}))
	})

	cmd, err := client.InterpretVoice(context.Background(), models.Media{MimeType: "audio/webm", Data: []byte("voice")})
	require.NoError(t, err)

	assert.Equal(t, "two milk and a bread", cmd.Transcript)
	assert.Equal(t, []models.VoiceItem{{ProductName: "Milk", Quantity: 2}, {ProductName: "Bread", Quantity: 1}}, cmd.Items)
	assert.Equal(t, int32(2), calls.Load())
}

func TestInterpretVoiceSilentRecording(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(candidate(map[string]any{"text": "  "}))
	})

	cmd, err := client.InterpretVoice(context.Background(), models.Media{MimeType: "audio/webm", Data: []byte("hiss")})
	require.NoError(t, err)
	assert.Equal(t, UnintelligibleTranscript, cmd.Transcript)
	assert.Empty(t, cmd.Items)
}

func TestRenderReceipt(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, defaultImageModel)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(candidate(
			map[string]any{"text": "Here is your receipt"},
			map[string]any{"inlineData": map[string]any{"mimeType": "image/png", "data": "iVBORw0KGgo="}},
		))
	})

	uri, err := client.RenderReceipt(context.Background(), models.ReceiptDraft{StoreName: "Corner Shop", CurrencySymbol: "$"})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", uri)
}

func TestRenderReceiptWithoutImage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(candidate(map[string]any{"text": "I cannot draw"}))
	})

	_, err := client.RenderReceipt(context.Background(), models.ReceiptDraft{})
	require.ErrorIs(t, err, ErrNoImage)
}

func TestFormatReceipt(t *testing.T) {
	text := FormatReceipt(models.ReceiptDraft{
		StoreName:          "Corner Shop",
		Date:               "03/09/2024",
		CurrencySymbol:     "$",
		Items:              []models.LineItem{{Name: "Apple", UnitPrice: 1, Quantity: 2}, {Name: "Free-Range Eggs (12ct) Large", UnitPrice: 5, Quantity: 1}},
		Subtotal:           7,
		DiscountPercentage: 10,
		DiscountAmount:     0.7,
		TaxPercentage:      5,
		TaxAmount:          0.315,
		GrandTotal:         6.615,
	})

	assert.Contains(t, text, "Corner Shop")
	assert.Contains(t, text, "Apple                  2   $1.00     $2.00")
	assert.Contains(t, text, "Free-Range Eggs (...")
	assert.Contains(t, text, "Discount (10.00%):")
	assert.Contains(t, text, "-$0.70")
	assert.Contains(t, text, "+$0.32")
	assert.Contains(t, text, "$6.62")
}

func TestModelName(t *testing.T) {
	assert.Equal(t, "models/gemini-2.0-flash", modelName("gemini-2.0-flash"))
	assert.Equal(t, "models/x", modelName("models/x"))
}
