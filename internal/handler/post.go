package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quillhq/quill/internal/handler/dto"
	"github.com/quillhq/quill/internal/model"
	"github.com/quillhq/quill/internal/service"
	"github.com/quillhq/quill/internal/validation"
)

// PostHandler handles HTTP requests for posts and comments.
type PostHandler struct {
	svc         *service.PostService
	validator   *validation.Validator
	maxPageSize int
	logger      *slog.Logger
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(svc *service.PostService, v *validation.Validator, maxPageSize int, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		svc:         svc,
		validator:   v,
		maxPageSize: maxPageSize,
		logger:      logger,
	}
}

// List handles GET /posts.
// Accepts skip/limit, or page/size when either of those is given.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	window, err := h.window(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	posts, err := h.svc.List(r.Context(), window)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToPostSummaries(posts))
}

func (h *PostHandler) window(r *http.Request) (model.Pagination, error) {
	q := r.URL.Query()
	if q.Has("page") || q.Has("size") {
		page, err := queryInt(r, "page", model.DefaultPage)
		if err != nil {
			return model.Pagination{}, err
		}
		size, err := queryInt(r, "size", model.DefaultLimit)
		if err != nil {
			return model.Pagination{}, err
		}
		ps, err := model.NewPageSize(page, size, h.maxPageSize)
		if err != nil {
			return model.Pagination{}, paginationError(err, "page", "size")
		}
		return ps.Window(), nil
	}

	skip, err := queryInt(r, "skip", model.DefaultSkip)
	if err != nil {
		return model.Pagination{}, err
	}
	limit, err := queryInt(r, "limit", model.DefaultLimit)
	if err != nil {
		return model.Pagination{}, err
	}
	window, err := model.SkipLimit(skip, limit, h.maxPageSize)
	if err != nil {
		return model.Pagination{}, paginationError(err, "skip", "limit")
	}
	return window, nil
}

// paginationError locates a model pagination error on the query parameter that caused it.
func paginationError(err error, offsetName, sizeName string) error {
	switch {
	case errors.Is(err, model.ErrNegativeSkip):
		return validation.Field([]string{validation.LocQuery, offsetName}, "ensure this value is greater than or equal to 0", "value_error.number.not_ge")
	case errors.Is(err, model.ErrInvalidPage):
		return validation.Field([]string{validation.LocQuery, offsetName}, "ensure this value is greater than or equal to 1", "value_error.number.not_ge")
	case errors.Is(err, model.ErrPageTooLarge):
		return validation.Field([]string{validation.LocQuery, offsetName}, "ensure this value is less than or equal to the last addressable page", "value_error.number.not_le")
	case errors.Is(err, model.ErrNegativeLimit):
		return validation.Field([]string{validation.LocQuery, sizeName}, "ensure this value is greater than or equal to 0", "value_error.number.not_ge")
	}
	return err
}

// Create handles POST /posts.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePostRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	post, err := h.svc.Create(r.Context(), service.CreatePostInput{
		Title:           *req.Title,
		Content:         *req.Content,
		PublicationDate: req.PublicationDate,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("post_created", "post_id", post.ID)
	writeJSON(w, http.StatusCreated, dto.ToPostResponse(post))
}

// Get handles GET /posts/{id}.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToPostResponse(post))
}

// Update handles PATCH /posts/{id}.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePostRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	post, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req.ToUpdate())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToPostResponse(post))
}

// Delete handles DELETE /posts/{id}.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("post_deleted", "post_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// CreateComment handles POST /comments.
// An unknown post is a client error here, not a missing resource.
func (h *PostHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCommentRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	comment, err := h.svc.AddComment(r.Context(), service.CreateCommentInput{
		PostID:          string(req.PostID),
		Content:         *req.Content,
		PublicationDate: req.PublicationDate,
	})
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Post %s does not exist", req.PostID))
			return
		}
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToCommentResponse(comment))
}

// CommentOnPost handles POST /posts/{id}/comments.
func (h *PostHandler) CommentOnPost(w http.ResponseWriter, r *http.Request) {
	var req dto.PostCommentRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	post, err := h.svc.CommentOnPost(r.Context(), service.CreateCommentInput{
		PostID:          chi.URLParam(r, "id"),
		Content:         *req.Content,
		PublicationDate: req.PublicationDate,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToPostResponse(post))
}

func (h *PostHandler) handleServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrPostNotFound) {
		writeDetail(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return
	}
	writeError(w, h.logger, err)
}
