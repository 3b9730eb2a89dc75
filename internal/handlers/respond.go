package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/refprog/backend/internal/apperr"
)

// OK writes the success envelope. payload may be nil for bare acknowledgments.
func OK(w http.ResponseWriter, payload any) {
	body := map[string]any{"state": "successful"}
	if payload != nil {
		body["payload"] = payload
	}
	writeJSON(w, http.StatusOK, body)
}

// Fail writes the error envelope. Structured errors keep their kwargs and get
// the kind injected so clients can rebuild them; anything else is reported as
// an opaque internal error.
func Fail(w http.ResponseWriter, err error) {
	e, ok := apperr.As(err)
	if !ok {
		log.Printf("handlers: internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"state": "error",
			"error": map[string]any{"message": "internal error"},
		})
		return
	}

	kwargs := map[string]any{"kind": string(e.Kind)}
	for k, v := range e.Kwargs {
		kwargs[k] = v
	}
	writeJSON(w, statusFor(e.Kind), map[string]any{
		"state": "error",
		"error": map[string]any{
			"message": e.Message,
			"kwargs":  kwargs,
		},
	})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindAlreadyExists:
		return http.StatusConflict
	case apperr.KindMissingPermission:
		return http.StatusForbidden
	case apperr.KindInvalidToken, apperr.KindMalformedToken,
		apperr.KindInvalidRootToken, apperr.KindInvalidTasksToken,
		apperr.KindWrongPassword:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("handlers: write response: %v", err)
	}
}

// decode reads the JSON request body into dst.
func decode(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
