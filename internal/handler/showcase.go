package handler

import (
	"embed"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quillhq/quill/internal/handler/dto"
	"github.com/quillhq/quill/internal/model"
	"github.com/quillhq/quill/internal/validation"
)

//go:embed assets/cat.svg
var assets embed.FS

// maxMultipartMemory is kept in memory before uploads spill to disk.
const maxMultipartMemory = 8 << 20

// ShowcaseHandler serves the request parsing and response shaping routes.
type ShowcaseHandler struct {
	validator       *validation.Validator
	demoMaxPageSize int
	logger          *slog.Logger
}

// NewShowcaseHandler creates a new ShowcaseHandler.
func NewShowcaseHandler(v *validation.Validator, demoMaxPageSize int, logger *slog.Logger) *ShowcaseHandler {
	return &ShowcaseHandler{validator: v, demoMaxPageSize: demoMaxPageSize, logger: logger}
}

// UserByType handles GET /users/{type}/{id}.
func (h *ShowcaseHandler) UserByType(w http.ResponseWriter, r *http.Request) {
	userType := chi.URLParam(r, "type")
	if err := h.validator.Var(userType, "oneof=standard admin", validation.LocPath, "type"); err != nil {
		writeError(w, h.logger, err)
		return
	}
	id, err := pathInt(chi.URLParam(r, "id"), "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"type": userType, "id": id})
}

// UserByID handles GET /users/{id}.
func (h *ShowcaseHandler) UserByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(chi.URLParam(r, "id"), "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.validator.Var(id, "gte=1", validation.LocPath, "id"); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"id": id})
}

// LicensePlate handles GET /license-plates/{license}.
func (h *ShowcaseHandler) LicensePlate(w http.ResponseWriter, r *http.Request) {
	license := chi.URLParam(r, "license")
	if err := h.validator.Var(license, "licenseplate", validation.LocPath, "license"); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"license": license})
}

// ListUsers handles GET /users?page=&size=&format=.
func (h *ShowcaseHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", model.DefaultPage)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	size, err := queryInt(r, "size", model.DefaultLimit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.validator.Var(page, "gt=0", validation.LocQuery, "page"); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.validator.Var(size, "gte=0,lte=100", validation.LocQuery, "size"); err != nil {
		writeError(w, h.logger, err)
		return
	}

	var format *string
	if raw := r.URL.Query().Get("format"); raw != "" {
		if err := h.validator.Var(raw, "oneof=short full", validation.LocQuery, "format"); err != nil {
			writeError(w, h.logger, err)
			return
		}
		format = &raw
	}

	writeJSON(w, http.StatusOK, map[string]any{"page": page, "size": size, "format": format})
}

// Items handles GET /items with skip/limit capped for the demo.
func (h *ShowcaseHandler) Items(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", model.DefaultSkip)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	limit, err := queryInt(r, "limit", model.DefaultLimit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	window, err := model.SkipLimit(skip, limit, h.demoMaxPageSize)
	if err != nil {
		writeError(w, h.logger, paginationError(err, "skip", "limit"))
		return
	}
	writeJSON(w, http.StatusOK, window)
}

// Things handles GET /things with page/size.
func (h *ShowcaseHandler) Things(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", model.DefaultPage)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	size, err := queryInt(r, "size", model.DefaultLimit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	ps, err := model.NewPageSize(page, size, h.demoMaxPageSize)
	if err != nil {
		writeError(w, h.logger, paginationError(err, "page", "size"))
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

// HelloHeader handles GET /headers/hello; the Hello header is required.
func (h *ShowcaseHandler) HelloHeader(w http.ResponseWriter, r *http.Request) {
	hello := r.Header.Get("Hello")
	if hello == "" {
		writeError(w, h.logger, validation.Missing(validation.LocHead, "hello"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"hello": hello})
}

// UserAgent handles GET /headers/user-agent.
func (h *ShowcaseHandler) UserAgent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"user_agent": r.UserAgent()})
}

// RequestPath handles GET /request.
func (h *ShowcaseHandler) RequestPath(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"path": r.URL.Path})
}

// SetCookie handles GET /cookie.
func (h *ShowcaseHandler) SetCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "cookie-name", Value: "cookie-value", MaxAge: 86400})
	writeJSON(w, http.StatusOK, map[string]string{"hello": "world"})
}

// CustomHeader handles GET /custom-header.
func (h *ShowcaseHandler) CustomHeader(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Custom-Header", "Custom-Header-Value")
	writeJSON(w, http.StatusOK, map[string]string{"hello": "world"})
}

// UserForm handles POST /users/form.
func (h *ShowcaseHandler) UserForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, h.logger, bodyError(err))
		return
	}
	form := dto.UserForm{Name: r.PostForm.Get("name")}

	rawAge := r.PostForm.Get("age")
	if rawAge == "" {
		writeError(w, h.logger, validation.Missing(validation.LocForm, "age"))
		return
	}
	age, err := strconv.Atoi(rawAge)
	if err != nil {
		writeError(w, h.logger, validation.NotInteger(validation.LocForm, "age"))
		return
	}
	form.Age = age

	if err := h.validator.Struct(form, validation.LocForm); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": form.Name, "age": form.Age})
}

// UploadFile handles POST /files and reports the size of the "file" field.
func (h *ShowcaseHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	header, err := h.formFile(r, "file")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"file_size": header.Size})
}

// UploadFileInfo handles POST /files/info.
func (h *ShowcaseHandler) UploadFileInfo(w http.ResponseWriter, r *http.Request) {
	header, err := h.formFile(r, "file")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, fileInfo(header))
}

// UploadFiles handles POST /files/multiple.
func (h *ShowcaseHandler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, h.logger, bodyError(err))
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, h.logger, validation.Missing(validation.LocBody, "files"))
		return
	}

	infos := make([]dto.FileInfo, 0, len(headers))
	for _, fh := range headers {
		infos = append(infos, fileInfo(fh))
	}
	writeJSON(w, http.StatusOK, infos)
}

func (h *ShowcaseHandler) formFile(r *http.Request, field string) (*multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, bodyError(err)
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, validation.Missing(validation.LocBody, field)
	}
	return headers[0], nil
}

func fileInfo(fh *multipart.FileHeader) dto.FileInfo {
	return dto.FileInfo{FileName: fh.Filename, ContentType: fh.Header.Get("Content-Type")}
}

// Redirect handles GET /redirect.
func (h *ShowcaseHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/new-url", http.StatusTemporaryRedirect)
}

// NewURL handles GET /new-url, the redirect target.
func (h *ShowcaseHandler) NewURL(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "You have been redirected"})
}

// XML handles GET /xml.
func (h *ShowcaseHandler) XML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` + "\n<Hello>World</Hello>\n"))
}

// Cat handles GET /cat.
func (h *ShowcaseHandler) Cat(w http.ResponseWriter, r *http.Request) {
	data, err := assets.ReadFile("assets/cat.svg")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Passwords handles POST /password.
func (h *ShowcaseHandler) Passwords(w http.ResponseWriter, r *http.Request) {
	var req dto.PasswordsRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.Password != req.PasswordConfirm {
		writeDetail(w, http.StatusBadRequest, map[string]any{
			"message": "Passwords don't match.",
			"hints": []string{
				"Check the caps lock on your keyboard",
				"Try to make the password visible by clicking on the eye icon to check your typing",
			},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Passwords match."})
}

// Priority handles POST /users/priority.
func (h *ShowcaseHandler) Priority(w http.ResponseWriter, r *http.Request) {
	var req dto.PriorityRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
