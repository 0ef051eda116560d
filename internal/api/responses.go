package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const (
	invalidRequestMessage = "Invalid request body"
	resetThrottledMessage = "Too many reset requests"
	backendErrorMessage   = "Internal error"
)

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Success: false, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(messageResponse{Message: backendErrorMessage})
	}
	writeBytes(w, status, data)
}

func writeBytes(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// decodeBody strictly decodes a JSON body into dst. An empty body leaves dst
// untouched when allowEmpty is set.
func decodeBody(r *http.Request, dst any, allowEmpty bool) error {
	if r.Body == nil {
		if allowEmpty {
			return nil
		}
		return io.EOF
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	err := decoder.Decode(dst)
	if errors.Is(err, io.EOF) && allowEmpty {
		return nil
	}
	return err
}

// statusFor maps a result's success flag onto 200 or 400.
func statusFor(success bool) int {
	if success {
		return http.StatusOK
	}
	return http.StatusBadRequest
}
