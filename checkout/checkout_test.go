package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"styledecor/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSession(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/checkout/sessions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(Session{
			ID:  "cs_test_123",
			URL: "https://pay.example.com/cs_test_123",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_secret", 5*time.Second)
	session, err := client.CreateSession(context.Background(), SessionParams{
		BookingID:     "b1",
		ServiceName:   "Wedding Decoration",
		CustomerEmail: "a@x.com",
		Amount:        250,
		Currency:      "usd",
		SuccessURL:    "https://site/success",
		CancelURL:     "https://site/cancel",
	})
	require.NoError(t, err)

	assert.Equal(t, "cs_test_123", session.ID)
	assert.Equal(t, "https://pay.example.com/cs_test_123", session.URL)
	assert.Equal(t, "Bearer sk_test_secret", gotAuth)

	meta, ok := gotBody["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "b1", meta["bookingId"])
	assert.Equal(t, "Wedding Decoration", meta["serviceName"])
}

func TestGetSessionPaid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/checkout/sessions/cs_1", r.URL.Path)
		json.NewEncoder(w).Encode(Session{
			ID:            "cs_1",
			TransactionID: "txn_42",
			AmountTotal:   99.5,
			Currency:      "usd",
			PaymentStatus: "paid",
			Metadata:      map[string]string{"bookingId": "b1"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk", 5*time.Second)
	session, err := client.GetSession(context.Background(), "cs_1")
	require.NoError(t, err)

	assert.Equal(t, "paid", session.PaymentStatus)
	assert.Equal(t, "txn_42", session.TransactionID)
	assert.Equal(t, "b1", session.Metadata["bookingId"])
}

func TestGetSessionNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk", 5*time.Second)
	_, err := client.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetSessionServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk", 5*time.Second)
	_, err := client.GetSession(context.Background(), "cs_1")
	assert.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)
}

func TestGetSessionUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(srv.URL, "sk", time.Second)
	_, err := client.GetSession(context.Background(), "cs_1")
	assert.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)
}
