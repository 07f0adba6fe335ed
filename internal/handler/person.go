package handler

import (
	"log/slog"
	"net/http"

	"github.com/quillhq/quill/internal/handler/dto"
	"github.com/quillhq/quill/internal/model"
	"github.com/quillhq/quill/internal/validation"
)

// PersonHandler serves the schema validation routes.
type PersonHandler struct {
	validator *validation.Validator
	logger    *slog.Logger
}

// NewPersonHandler creates a new PersonHandler.
func NewPersonHandler(v *validation.Validator, logger *slog.Logger) *PersonHandler {
	return &PersonHandler{validator: v, logger: logger}
}

// CreatePerson handles POST /persons and echoes the validated person.
func (h *PersonHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var person model.Person
	if err := decodeJSON(r, h.validator, &person); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if person.Interests == nil {
		person.Interests = []string{}
	}
	writeJSON(w, http.StatusCreated, person)
}

// Register handles POST /registrations.
func (h *PersonHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegistrationRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": req.Email})
}

// Values handles POST /values, normalising "1,2,3" and [1,2,3] alike.
func (h *PersonHandler) Values(w http.ResponseWriter, r *http.Request) {
	var req dto.ValuesRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int{"values": *req.Values})
}
