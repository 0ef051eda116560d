package api

import (
	"net/http"

	"smsgate/pkg/smsgate"
)

// handleGetRate accepts the selection as query parameters, a JSON body, or
// both. Body fields override query parameters.
func (h *handler) handleGetRate(w http.ResponseWriter, r *http.Request) {
	if h.throughput == nil {
		writeError(w, http.StatusInternalServerError, backendErrorMessage)
		return
	}
	values := r.URL.Query()
	query := smsgate.RateQuery{
		PhoneNumber: values.Get("phoneNumber"),
		FromDate:    values.Get("fromDate"),
		ToDate:      values.Get("toDate"),
	}
	var body smsgate.RateQuery
	if err := decodeBody(r, &body, true); err != nil {
		writeError(w, http.StatusBadRequest, invalidRequestMessage)
		return
	}
	query = mergeQuery(query, body)

	res := h.throughput.Rate(r.Context(), query)
	writeJSON(w, statusFor(res.Success), res)
}

func (h *handler) handleAccountRate(w http.ResponseWriter, r *http.Request) {
	if h.throughput == nil {
		writeError(w, http.StatusInternalServerError, backendErrorMessage)
		return
	}
	values := r.URL.Query()
	res := h.throughput.AccountRate(r.Context(), values.Get("fromDate"), values.Get("toDate"))
	writeJSON(w, statusFor(res.Success), res)
}

func mergeQuery(base, override smsgate.RateQuery) smsgate.RateQuery {
	if override.PhoneNumber != "" {
		base.PhoneNumber = override.PhoneNumber
	}
	if override.FromDate != "" {
		base.FromDate = override.FromDate
	}
	if override.ToDate != "" {
		base.ToDate = override.ToDate
	}
	return base
}
