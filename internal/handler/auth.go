package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/quillhq/quill/internal/auth"
	"github.com/quillhq/quill/internal/handler/dto"
	"github.com/quillhq/quill/internal/middleware"
	"github.com/quillhq/quill/internal/service"
	"github.com/quillhq/quill/internal/validation"
)

// CookieConfig controls the attributes of the session cookie set by /login.
type CookieConfig struct {
	Secure bool
	Domain string
}

// AuthHandler handles registration, token issuance and the cookie session routes.
type AuthHandler struct {
	svc       *service.AuthService
	validator *validation.Validator
	cookie    CookieConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, v *validation.Validator, cookie CookieConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:       svc,
		validator: v,
		cookie:    cookie,
		logger:    logger,
		now:       time.Now,
	}
}

// Register handles POST /register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			writeDetail(w, http.StatusBadRequest, "Email already exists")
			return
		}
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToUserResponse(user))
}

// Token handles POST /token, the OAuth2 password flow.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, h.logger, bodyError(err))
		return
	}
	form := dto.LoginForm{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}
	if err := h.validator.Struct(form, validation.LocForm); err != nil {
		writeError(w, h.logger, err)
		return
	}

	token, err := h.svc.Login(r.Context(), form.Username, form.Password)
	if err != nil {
		h.handleLoginError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TokenResponse{AccessToken: token.Token, TokenType: "bearer"})
}

// Login handles POST /login. The token travels back as an HttpOnly cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, h.logger, bodyError(err))
		return
	}
	form := dto.CookieLoginForm{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	}
	if err := h.validator.Struct(form, validation.LocForm); err != nil {
		writeError(w, h.logger, err)
		return
	}

	token, err := h.svc.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		h.handleLoginError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    token.Token,
		Path:     "/",
		Domain:   h.cookie.Domain,
		MaxAge:   token.MaxAge(h.now()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// ProtectedRoute handles GET /protected-route behind bearer auth.
func (h *AuthHandler) ProtectedRoute(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.ToUserResponse(auth.MustUserFromContext(r.Context())))
}

// Me handles GET /me behind cookie auth.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.ToUserResponse(auth.MustUserFromContext(r.Context())))
}

// UpdateMe handles POST /me. Only the email can change.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateMeRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user := auth.MustUserFromContext(r.Context())
	if req.Email == nil || *req.Email == user.Email {
		writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
		return
	}

	updated, err := h.svc.UpdateEmail(r.Context(), user.ID, *req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailExists):
			writeDetail(w, http.StatusBadRequest, "Email already exists")
		case errors.Is(err, service.ErrInvalidToken):
			writeDetail(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		default:
			writeError(w, h.logger, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(updated))
}

// CSRF handles GET /csrf. The CSRF middleware has already set the cookie.
func (h *AuthHandler) CSRF(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.CSRFResponse{CSRFToken: middleware.CSRFToken(r.Context())})
}

func (h *AuthHandler) handleLoginError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrInvalidCredentials) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	writeError(w, h.logger, err)
}
