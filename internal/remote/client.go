package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"menupos/internal/models"

	"github.com/rs/zerolog"
)

// ErrUnauthorized marks an authentication rejection from the remote service.
// Callers use IsUnauthorized to decide whether to prompt for re-login.
var ErrUnauthorized = errors.New("unauthorized")

// APIError carries the HTTP status and the service's message field.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, strings.ToLower(http.StatusText(e.StatusCode)))
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// IsUnauthorized reports whether err is an authentication rejection, either
// by sentinel or by message text (queued failure reasons survive only as
// strings, so the substring check keeps both paths consistent).
func IsUnauthorized(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unauthorized")
}

// Client talks to the remote menu/order service. Request and response bodies
// are treated as the service defines them; the sync core only relies on
// success/failure and the assigned order id.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zerolog.Logger
}

func New(baseURL string, timeout time.Duration, logger *zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = time.Duration(models.DefaultSubmitTimeoutSeconds) * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// BaseURL returns the configured default endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, mobile, password string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, http.MethodPost, c.baseURL+"/auth/login", "", map[string]string{
		"mobile":   mobile,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CheckUser(ctx context.Context, mobile string) (bool, error) {
	var resp struct {
		Exists bool `json:"exists"`
	}
	err := c.do(ctx, http.MethodPost, c.baseURL+"/auth/check-user", "", map[string]string{"mobile": mobile}, &resp)
	if err != nil {
		return false, err
	}
	return resp.Exists, nil
}

func (c *Client) FetchProfile(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/auth/profile", token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FetchProducts loads the menu for a restaurant.
func (c *Client) FetchProducts(ctx context.Context, restaurantName string, restaurantID int64, token string) ([]models.Product, error) {
	body := map[string]any{}
	if restaurantName != "" {
		body["restaurantName"] = restaurantName
	}
	if restaurantID != 0 {
		body["restaurantId"] = restaurantID
	}

	var products []models.Product
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/products/filter/public", token, body, &products); err != nil {
		return nil, err
	}
	return products, nil
}

type CreatedOrder struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// CreateOrder submits an order to the default endpoint.
func (c *Client) CreateOrder(ctx context.Context, order *models.Order, token string) (*CreatedOrder, error) {
	raw, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}
	return c.CreateOrderAt(ctx, c.baseURL, raw, token)
}

// CreateOrderAt submits a raw order payload to a specific endpoint. The
// reconciler uses this so a queued order lands on the endpoint it was
// composed against, forwarded byte for byte.
func (c *Client) CreateOrderAt(ctx context.Context, baseURL string, payload json.RawMessage, token string) (*CreatedOrder, error) {
	if baseURL == "" {
		baseURL = c.baseURL
	}
	var created CreatedOrder
	if err := c.doRaw(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/orders", token, payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListOrders fetches orders from the service, optionally filtered by status.
func (c *Client) ListOrders(ctx context.Context, restaurantName, status, token string) ([]json.RawMessage, error) {
	url := c.baseURL + "/orders"
	sep := "?"
	if restaurantName != "" {
		url += sep + "restaurantName=" + restaurantName
		sep = "&"
	}
	if status != "" {
		url += sep + "status=" + status
	}

	var orders []json.RawMessage
	if err := c.do(ctx, http.MethodGet, url, token, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, orderID int64, status, token string) error {
	url := fmt.Sprintf("%s/orders/%d/status", c.baseURL, orderID)
	return c.do(ctx, http.MethodPatch, url, token, map[string]string{"status": status}, nil)
}

func (c *Client) do(ctx context.Context, method, url, token string, body, out any) error {
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	return c.doRaw(ctx, method, url, token, raw, out)
}

func (c *Client) doRaw(ctx context.Context, method, url, token string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: extractMessage(data)}
		if c.logger != nil {
			c.logger.Debug().Int("status", resp.StatusCode).Str("url", url).Msg("remote request failed")
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// extractMessage pulls the service's error message out of a failure body.
func extractMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return ""
}
