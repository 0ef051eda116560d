package api

import (
	"net/http"

	"smsgate/pkg/smsgate"
)

type sendRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

func (h *handler) handleAllowSend(w http.ResponseWriter, r *http.Request) {
	if h.admission == nil {
		writeError(w, http.StatusInternalServerError, backendErrorMessage)
		return
	}
	var req sendRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, invalidRequestMessage)
		return
	}
	res := h.admission.CanSend(r.Context(), req.PhoneNumber)
	writeJSON(w, sendStatus(res), res)
}

// sendStatus separates capacity rejections from malformed input.
func sendStatus(res smsgate.SendResult) int {
	switch {
	case res.Allowed:
		return http.StatusOK
	case res.Reason.Retryable():
		return http.StatusTooManyRequests
	default:
		return http.StatusBadRequest
	}
}

func (h *handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if h.admission == nil {
		writeError(w, http.StatusInternalServerError, backendErrorMessage)
		return
	}
	res := h.admission.Reset(r.Context())
	writeJSON(w, statusFor(res.Success), res)
}
