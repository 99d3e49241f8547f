package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"menupos/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) *Client {
	logger := zerolog.Nop()
	return New(serverURL, 5*time.Second, &logger)
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "+79001234567", body["mobile"])

		_, _ = w.Write([]byte(`{"token": "tok-123", "user": {"id": 9, "mobile": "+79001234567"}}`))
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).Login(context.Background(), "+79001234567", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", resp.Token)
	require.NotNil(t, resp.User)
	assert.Equal(t, int64(9), resp.User.ID)
}

func TestLoginRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message": "wrong password"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Login(context.Background(), "+79001234567", "bad")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "wrong password")
}

func TestCreateOrderAtForwardsPayloadVerbatim(t *testing.T) {
	// Field order and unknown fields must survive the round trip.
	payload := `{"zeta": 1, "alpha": {"nested": true}, "customerPhone": "+7900"}`

	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		buf, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		received = string(buf)
		_, _ = w.Write([]byte(`{"id": 55}`))
	}))
	defer server.Close()

	created, err := newTestClient(server.URL).CreateOrderAt(context.Background(), server.URL, json.RawMessage(payload), "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(55), created.ID)
	assert.Equal(t, payload, received)
}

func TestCreateOrderAtEmptyEndpointUsesDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 1}`))
	}))
	defer server.Close()

	created, err := newTestClient(server.URL).CreateOrderAt(context.Background(), "", json.RawMessage(`{}`), "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
}

func TestFetchProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/filter/public", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Chaikhana", body["restaurantName"])

		_, _ = w.Write([]byte(`[{"id": 1, "name": "Plov", "price": 250}]`))
	}))
	defer server.Close()

	products, err := newTestClient(server.URL).FetchProducts(context.Background(), "Chaikhana", 0, "tok")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Plov", products[0].Name)
}

func TestUpdateOrderStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/42/status", r.URL.Path)
		assert.Equal(t, http.MethodPatch, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, models.OrderStatusDelivered, body["status"])
	}))
	defer server.Close()

	err := newTestClient(server.URL).UpdateOrderStatus(context.Background(), 42, models.OrderStatusDelivered, "tok")
	require.NoError(t, err)
}

func TestIsUnauthorized(t *testing.T) {
	assert.False(t, IsUnauthorized(nil))
	assert.False(t, IsUnauthorized(errors.New("connection refused")))

	assert.True(t, IsUnauthorized(&APIError{StatusCode: http.StatusUnauthorized}))
	assert.True(t, IsUnauthorized(&APIError{StatusCode: http.StatusForbidden}))
	assert.False(t, IsUnauthorized(&APIError{StatusCode: http.StatusInternalServerError}))

	// Reasons that survive only as strings keep the same classification.
	assert.True(t, IsUnauthorized(errors.New("1755000000000: 401 unauthorized")))
}

func TestAPIErrorMessageFallsBackToStatusText(t *testing.T) {
	err := &APIError{StatusCode: http.StatusUnauthorized}
	assert.Equal(t, "401 unauthorized", err.Error())

	err = &APIError{StatusCode: http.StatusUnauthorized, Message: "token expired"}
	assert.Equal(t, "401 token expired", err.Error())
}
