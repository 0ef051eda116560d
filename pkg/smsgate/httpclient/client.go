// Package httpclient implements smsgate.Gate against a remote smsgated.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"smsgate/internal/phone"
	"smsgate/pkg/smsgate"
)

// Client implements Gate against a remote smsgated server.
type Client struct {
	baseURL string
	client  *http.Client
}

var _ smsgate.Gate = (*Client)(nil)

// New constructs a client for the given base URL.
func New(baseURL string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), client: &http.Client{}}
}

// NewWithTimeout constructs a client for the given base URL with a request timeout.
func NewWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// CanSend asks the server to admit one send.
func (c *Client) CanSend(ctx context.Context, phoneNumber string) (smsgate.SendResult, error) {
	payload, err := json.Marshal(map[string]string{"phoneNumber": phoneNumber})
	if err != nil {
		return smsgate.SendResult{}, err
	}
	var res smsgate.SendResult
	err = c.call(ctx, http.MethodPost, "/api/sms/allow-send", payload, &res)
	return res, err
}

// Reset clears all usage on the server.
func (c *Client) Reset(ctx context.Context) (smsgate.ResetResult, error) {
	var res smsgate.ResetResult
	err := c.call(ctx, http.MethodPost, "/api/sms/reset", nil, &res)
	return res, err
}

// Rate requests a per-number or aggregate rate.
func (c *Client) Rate(ctx context.Context, query smsgate.RateQuery) (smsgate.RateResult, error) {
	values := url.Values{}
	setIfNotEmpty(values, "phoneNumber", query.PhoneNumber)
	setIfNotEmpty(values, "fromDate", query.FromDate)
	setIfNotEmpty(values, "toDate", query.ToDate)
	var res smsgate.RateResult
	err := c.call(ctx, http.MethodGet, withQuery("/api/sms/get-rate", values), nil, &res)
	return res, err
}

// AccountRate requests the account-wide rate.
func (c *Client) AccountRate(ctx context.Context, fromDate, toDate string) (smsgate.RateResult, error) {
	values := url.Values{}
	setIfNotEmpty(values, "fromDate", fromDate)
	setIfNotEmpty(values, "toDate", toDate)
	var res smsgate.RateResult
	err := c.call(ctx, http.MethodGet, withQuery("/api/sms/account-rate", values), nil, &res)
	return res, err
}

// Forget removes one number's history on the server. Malformed numbers
// are answered locally, the same way the server would.
func (c *Client) Forget(ctx context.Context, phoneNumber string) (smsgate.ForgetResult, error) {
	number, ok := phone.Normalize(phoneNumber)
	if !ok {
		return smsgate.ForgetResult{Message: smsgate.MsgInvalidNumber}, nil
	}
	var res smsgate.ForgetResult
	err := c.call(ctx, http.MethodDelete, "/api/sms/numbers/"+url.PathEscape(number), nil, &res)
	return res, err
}

// Usage fetches counters for one number.
func (c *Client) Usage(ctx context.Context, phoneNumber string) (smsgate.Usage, error) {
	number, ok := phone.Normalize(phoneNumber)
	if !ok {
		return smsgate.Usage{Message: smsgate.MsgInvalidNumber}, nil
	}
	var res smsgate.Usage
	err := c.call(ctx, http.MethodGet, "/api/sms/usage/"+url.PathEscape(number), nil, &res)
	return res, err
}

// call performs the request and decodes result bodies. Rejections carried in
// 400 and 429 responses are results, not errors.
func (c *Client) call(ctx context.Context, method, path string, payload []byte, dst any) error {
	body, status, err := c.do(ctx, method, path, payload)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK, http.StatusBadRequest, http.StatusTooManyRequests:
		var envelope messageResponse
		if err := json.Unmarshal(body, &envelope); err != nil || envelope.Message == "" {
			return decodeHTTPError(status, body)
		}
		if status != http.StatusOK && envelope.Message == invalidRequestMessage {
			return decodeHTTPError(status, body)
		}
		if err := json.Unmarshal(body, dst); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
		return nil
	default:
		return decodeHTTPError(status, body)
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

const invalidRequestMessage = "Invalid request body"

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func decodeHTTPError(status int, body []byte) error {
	var resp messageResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Message != "" {
		return fmt.Errorf("http %d: %s", status, resp.Message)
	}
	return fmt.Errorf("http %d", status)
}

func withQuery(path string, values url.Values) string {
	if encoded := values.Encode(); encoded != "" {
		return path + "?" + encoded
	}
	return path
}

func setIfNotEmpty(values url.Values, key, value string) {
	if value != "" {
		values.Set(key, value)
	}
}
