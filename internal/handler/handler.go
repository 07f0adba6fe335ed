// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/quillhq/quill/internal/validation"
)

// Handler serves the root and fallback routes.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Hello handles GET /.
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"hello": "world"})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeDetail(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeDetail(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeDetail writes the {"detail": ...} error envelope.
func writeDetail(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, map[string]any{"detail": detail})
}

// writeError maps validation failures to 422 and anything else to 500.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		writeDetail(w, http.StatusUnprocessableEntity, verrs)
		return
	}
	logger.Error("request failed", "error", err)
	writeDetail(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

// decodeJSON reads a JSON body into dst and validates it.
// Syntax and type errors come back as validation.Errors so they render as 422.
func decodeJSON(r *http.Request, v *validation.Validator, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return bodyError(err)
	}
	return v.Struct(dst, validation.LocBody)
}

func bodyError(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError

	switch {
	case errors.Is(err, io.EOF):
		return validation.Missing(validation.LocBody)
	case errors.As(err, &syntaxErr):
		return validation.Field(
			[]string{validation.LocBody, strconv.FormatInt(syntaxErr.Offset, 10)},
			"JSON decode error", "value_error.jsondecode")
	case errors.As(err, &typeErr):
		loc := []string{validation.LocBody}
		if typeErr.Field != "" {
			loc = append(loc, strings.Split(typeErr.Field, ".")...)
		}
		return validation.Field(loc, fmt.Sprintf("value is not a valid %s", typeErr.Type.Kind()), "type_error."+typeErr.Type.Kind().String())
	case errors.As(err, &maxErr):
		return validation.Field([]string{validation.LocBody}, "request body too large", "value_error.body_size")
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return verrs
	}
	return validation.Field([]string{validation.LocBody}, err.Error(), "value_error")
}

// queryInt returns the named query parameter as an int, or def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validation.NotInteger(validation.LocQuery, name)
	}
	return n, nil
}

// pathInt parses a chi URL parameter as an int.
func pathInt(raw, name string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validation.NotInteger(validation.LocPath, name)
	}
	return n, nil
}
