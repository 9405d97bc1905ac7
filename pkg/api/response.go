package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/nextmu/updateservice/internal/logger"
	"github.com/nextmu/updateservice/pkg/errs"
)

// decodeJSON decodes the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// firstInvalidField extracts the first offending field name from a
// validator.ValidationErrors for use as the response's error field.
func firstInvalidField(err error) string {
	var verrs validator.ValidationErrors
	if ok := asValidationErrors(err, &verrs); ok && len(verrs) > 0 {
		return verrs[0].Field()
	}
	return ""
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	*target = verrs
	return true
}

// writeJSON encodes data to a buffer before writing so an encoding failure
// never leaves a partially-written response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		logger.Error("api: failed to encode JSON response", "error", err)
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// writeError maps err through pkg/errs' transport table and writes a
// uniform error body. Response bodies never leak internal details beyond
// the typed message.
func writeError(w http.ResponseWriter, err error) {
	e := errs.AsError(err)
	if e.Kind == errs.Internal {
		logger.Error("api: internal error", "error", e.Cause)
	}
	writeJSON(w, errs.HTTPStatus(e), map[string]any{
		"code":  errs.HTTPCode(e),
		"error": e.Message,
	})
}

func writeValidationError(w http.ResponseWriter, field, message string) {
	writeError(w, errs.Validation(field, message))
}
