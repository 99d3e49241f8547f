package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"menupos/internal/cache"
	"menupos/internal/config"
	"menupos/internal/export"
	"menupos/internal/models"
	"menupos/internal/netcheck"
	"menupos/internal/receipt"
	"menupos/internal/remote"
	"menupos/internal/service"
	"menupos/internal/session"
	"menupos/internal/store"
	"menupos/internal/worker"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	srv      *Server
	queue    *store.FileQueue
	monitor  *netcheck.Monitor
	sessions *session.FileStore
}

// newTestEnv wires the full bridge stack against a fake upstream service.
func newTestEnv(t *testing.T, upstream http.HandlerFunc, bridgeCfg config.BridgeConfig) (*testEnv, *httptest.Server) {
	t.Helper()
	logger := zerolog.Nop()

	remoteServer := httptest.NewServer(upstream)
	t.Cleanup(remoteServer.Close)

	queue, err := store.NewFileQueue(filepath.Join(t.TempDir(), "orders.json"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = queue.Close() })

	client := remote.New(remoteServer.URL, 5*time.Second, &logger)
	monitor := netcheck.New(config.ProbeConfig{URL: remoteServer.URL, TimeoutSeconds: 1, IntervalSeconds: 30}, &logger)
	reconciler := worker.NewReconciler(queue, client, 5*time.Second, &logger)
	sessions := session.NewFileStore(filepath.Join(t.TempDir(), "preferences.json"), &logger)

	orders := service.NewOrderService(queue, client, monitor, 5*time.Second, &logger)
	menu := service.NewMenuService(client, cache.NewMemoryMenuCache(), time.Hour, &logger)

	renderer, err := receipt.NewRenderer()
	require.NoError(t, err)
	exporter := export.NewExporter(t.TempDir(), &logger)

	srv := NewServer(bridgeCfg, orders, menu, reconciler, monitor, sessions, renderer, exporter, &logger)

	return &testEnv{srv: srv, queue: queue, monitor: monitor, sessions: sessions}, remoteServer
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.srv.server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func validOrder() *models.Order {
	return &models.Order{
		CustomerPhone: "+79001234567",
		ServiceType:   models.ServiceDineIn,
		TableNumber:   "5",
		PaymentMethod: models.PaymentCash,
		TotalAmount:   500,
		FinalAmount:   500,
		Items:         []models.OrderItem{{ProductID: 1, Quantity: 2, Price: 250}},
	}
}

func TestHandleOnline(t *testing.T) {
	env, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {}, config.BridgeConfig{})

	rec := env.do(t, http.MethodGet, "/api/v1/online", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]bool](t, rec)
	assert.True(t, body["online"])
}

func TestSubmitOrderOfflinePath(t *testing.T) {
	env, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 42}`))
	}, config.BridgeConfig{})

	// Monitor believes offline, so the gate must queue without touching
	// the network.
	rec := env.do(t, http.MethodPost, "/api/v1/orders", map[string]any{
		"order": validOrder(),
		"token": "tok",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeBody[models.SubmitResult](t, rec)
	assert.True(t, result.Success)
	assert.True(t, result.Offline)
	assert.NotZero(t, result.OrderID)

	rec = env.do(t, http.MethodGet, "/api/v1/orders/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	list := decodeBody[struct {
		Orders []models.QueuedOrder `json:"orders"`
	}](t, rec)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, result.OrderID, list.Orders[0].ID)
}

func TestSubmitOrderLivePath(t *testing.T) {
	env, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 42}`))
	}, config.BridgeConfig{})
	env.monitor.SetOnline(true)

	rec := env.do(t, http.MethodPost, "/api/v1/orders", map[string]any{
		"order": validOrder(),
		"token": "tok",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeBody[models.SubmitResult](t, rec)
	assert.True(t, result.Success)
	assert.False(t, result.Offline)
	assert.Equal(t, int64(42), result.OrderID)
}

func TestSubmitOrderUsesStoredSessionToken(t *testing.T) {
	var gotAuth string
	env, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"id": 1}`))
	}, config.BridgeConfig{})
	env.monitor.SetOnline(true)

	require.NoError(t, env.sessions.Save(context.Background(), &models.Session{Token: "session-tok"}))

	rec := env.do(t, http.MethodPost, "/api/v1/orders", map[string]any{"order": validOrder()})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bearer session-tok", gotAuth)
}

func TestSubmitOrderInvalid(t *testing.T) {
	env, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {}, config.BridgeConfig{})

	order := validOrder()
	order.Items = nil

	rec := env.do(t, http.MethodPost, "/api/v1/orders", map[string]any{"order": order, "token": "tok"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	result := decodeBody[models.SubmitResult](t, rec)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestManualSync(t *testing.T) {
	env, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 77}`))
	}, config.BridgeConfig{})

	// Queue one order while offline, then trigger sync by hand.
	rec := env.do(t, http.MethodPost, "/api/v1/orders", map[string]any{"order": validOrder(), "token": "tok"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/sync", map[string]string{"token": "fresh"})
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeBody[models.SyncResult](t, rec)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 0, result.FailedCount)

	rec = env.do(t, http.MethodGet, "/api/v1/orders/pending", nil)
	list := decodeBody[struct {
		Orders []models.QueuedOrder `json:"orders"`
	}](t, rec)
	assert.Empty(t, list.Orders)
}

func TestDeleteQueuedOrder(t *testing.T) {
	env, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {}, config.BridgeConfig{})

	rec := env.do(t, http.MethodPost, "/api/v1/orders", map[string]any{"order": validOrder(), "token": "tok"})
	result := decodeBody[models.SubmitResult](t, rec)
	require.True(t, result.Success)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/orders/%d", result.OrderID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/orders", nil)
	list := decodeBody[struct {
		Orders []models.QueuedOrder `json:"orders"`
	}](t, rec)
	assert.Empty(t, list.Orders)

	rec = env.do(t, http.MethodDelete, "/api/v1/orders/not-a-number", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMenuEndpoint(t *testing.T) {
	env, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": 1, "name": "Plov", "price": 250}]`))
	}, config.BridgeConfig{})

	rec := env.do(t, http.MethodGet, "/api/v1/menu?restaurantId=7&restaurantName=Chaikhana", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[struct {
		Menu      *models.CachedMenu `json:"menu"`
		FromCache bool               `json:"from_cache"`
	}](t, rec)
	require.NotNil(t, body.Menu)
	assert.False(t, body.FromCache)
	require.Len(t, body.Menu.Products, 1)
	assert.Equal(t, "Plov", body.Menu.Products[0].Name)

	rec = env.do(t, http.MethodGet, "/api/v1/menu?restaurantId=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionEndpoints(t *testing.T) {
	env, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {}, config.BridgeConfig{})

	rec := env.do(t, http.MethodPut, "/api/v1/session", models.Session{
		Token: "tok-1",
		User:  &models.User{ID: 9, Mobile: "+7900"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[struct {
		Session *models.Session `json:"session"`
	}](t, rec)
	require.NotNil(t, body.Session)
	assert.Equal(t, "tok-1", body.Session.Token)

	rec = env.do(t, http.MethodDelete, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/session", nil)
	body = decodeBody[struct {
		Session *models.Session `json:"session"`
	}](t, rec)
	assert.Nil(t, body.Session)

	// A session without a token is rejected.
	rec = env.do(t, http.MethodPut, "/api/v1/session", models.Session{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPrintersEndpoints(t *testing.T) {
	env, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {}, config.BridgeConfig{})

	rec := env.do(t, http.MethodPut, "/api/v1/printers", map[string]models.PrinterConfig{
		"kitchen": {Name: "kitchen", Enabled: true, PaperWidth: 80},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/printers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[struct {
		Printers map[string]models.PrinterConfig `json:"printers"`
	}](t, rec)
	require.Len(t, body.Printers, 1)
	assert.True(t, body.Printers["kitchen"].Enabled)
}

func TestReceiptPreview(t *testing.T) {
	env, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {}, config.BridgeConfig{})

	rec := env.do(t, http.MethodPost, "/api/v1/receipt/preview", map[string]any{
		"order":        validOrder(),
		"orderId":      123,
		"paperWidthMm": 58,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]string](t, rec)
	assert.Contains(t, body["html"], "Order #123")
	assert.Contains(t, body["html"], "width: 58mm")
}

func TestExportEndpoint(t *testing.T) {
	env, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {}, config.BridgeConfig{})

	rec := env.do(t, http.MethodPost, "/api/v1/orders", map[string]any{"order": validOrder(), "token": "tok"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]string](t, rec)
	assert.FileExists(t, body["file_path"])
}

func TestAuthMiddleware(t *testing.T) {
	cfg := config.BridgeConfig{
		Auth: config.BridgeAuthConfig{
			Enabled: true,
			Header:  "x-api-key",
			APIKeys: []string{"secret-key"},
		},
	}
	env, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {}, cfg)

	rec := env.do(t, http.MethodGet, "/api/v1/online", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/online", nil)
	req.Header.Set("x-api-key", "wrong")
	recorder := httptest.NewRecorder()
	env.srv.server.Handler.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/online", nil)
	req.Header.Set("x-api-key", "secret-key")
	recorder = httptest.NewRecorder()
	env.srv.server.Handler.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := config.BridgeConfig{
		RateLimit: config.BridgeRateLimitConfig{RPS: 1, Burst: 2},
	}
	env, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {}, cfg)

	limited := false
	for i := 0; i < 5; i++ {
		rec := env.do(t, http.MethodGet, "/api/v1/online", nil)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
		}
	}
	assert.True(t, limited)
}
