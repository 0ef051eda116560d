package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"smsgate/pkg/smsgate"
)

// HTTPAllowSend sends a POST /api/sms/allow-send request and returns the
// status code with the decoded result.
func HTTPAllowSend(t testing.TB, baseURL, phoneNumber string) (int, smsgate.SendResult) {
	t.Helper()
	var resp smsgate.SendResult
	payload := mustJSON(t, map[string]string{"phoneNumber": phoneNumber})
	status, body := DoRequest(t, http.MethodPost, baseURL+"/api/sms/allow-send", payload)
	decode(t, body, &resp)
	return status, resp
}

// HTTPReset sends a POST /api/sms/reset request.
func HTTPReset(t testing.TB, baseURL string) (int, smsgate.ResetResult) {
	t.Helper()
	var resp smsgate.ResetResult
	status, body := DoRequest(t, http.MethodPost, baseURL+"/api/sms/reset", nil)
	decode(t, body, &resp)
	return status, resp
}

// HTTPGetRate sends a GET /api/sms/get-rate request with query parameters.
func HTTPGetRate(t testing.TB, baseURL string, query smsgate.RateQuery) (int, smsgate.RateResult) {
	t.Helper()
	var resp smsgate.RateResult
	values := url.Values{}
	setIfNotEmpty(values, "phoneNumber", query.PhoneNumber)
	setIfNotEmpty(values, "fromDate", query.FromDate)
	setIfNotEmpty(values, "toDate", query.ToDate)
	target := baseURL + "/api/sms/get-rate"
	if encoded := values.Encode(); encoded != "" {
		target += "?" + encoded
	}
	status, body := DoRequest(t, http.MethodGet, target, nil)
	decode(t, body, &resp)
	return status, resp
}

// HTTPAccountRate sends a GET /api/sms/account-rate request.
func HTTPAccountRate(t testing.TB, baseURL, fromDate, toDate string) (int, smsgate.RateResult) {
	t.Helper()
	var resp smsgate.RateResult
	values := url.Values{}
	setIfNotEmpty(values, "fromDate", fromDate)
	setIfNotEmpty(values, "toDate", toDate)
	target := baseURL + "/api/sms/account-rate"
	if encoded := values.Encode(); encoded != "" {
		target += "?" + encoded
	}
	status, body := DoRequest(t, http.MethodGet, target, nil)
	decode(t, body, &resp)
	return status, resp
}

// DoRequest executes an HTTP request with an optional JSON payload and
// returns the status code and body. Non-2xx statuses are not failures.
func DoRequest(t testing.TB, method, target string, payload []byte) (int, []byte) {
	t.Helper()
	ctx := Context(t, 2*time.Second)
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("http request: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp.StatusCode, body
}

func mustJSON(t testing.TB, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return data
}

func decode(t testing.TB, body []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("decode response %q: %v", string(body), err)
	}
}

func setIfNotEmpty(values url.Values, key, value string) {
	if value != "" {
		values.Set(key, value)
	}
}
