package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *handler) handleUsage(w http.ResponseWriter, r *http.Request) {
	if h.admission == nil {
		writeError(w, http.StatusInternalServerError, backendErrorMessage)
		return
	}
	res := h.admission.Usage(r.Context(), chi.URLParam(r, "phoneNumber"))
	writeJSON(w, statusFor(res.Success), res)
}

func (h *handler) handleForget(w http.ResponseWriter, r *http.Request) {
	if h.admission == nil {
		writeError(w, http.StatusInternalServerError, backendErrorMessage)
		return
	}
	res := h.admission.Forget(r.Context(), chi.URLParam(r, "phoneNumber"))
	writeJSON(w, statusFor(res.Success), res)
}
