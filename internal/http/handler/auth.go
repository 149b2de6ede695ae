package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jaekwang-park/todo-web/internal/cognito"
	"github.com/jaekwang-park/todo-web/internal/middleware"
	"github.com/jaekwang-park/todo-web/internal/service"
)

const maxAuthBodySize = 1 << 20 // 1 MB

// AuthHandler signs operators in and out. A successful login also sets the
// access token cookie so browser form posts pass the auth middleware.
type AuthHandler struct {
	svc          *service.AuthService
	secureCookie bool
}

func NewAuthHandler(svc *service.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{svc: svc, secureCookie: secureCookie}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Email        string `json:"email"`
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	AccessToken string `json:"access_token"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAuthBody(w, r, &req, false) {
		return
	}

	out, err := h.svc.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	h.setTokenCookie(w, out.AccessToken, int(out.ExpiresIn))
	WriteJSON(w, http.StatusOK, out)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeAuthBody(w, r, &req, false) {
		return
	}

	out, err := h.svc.Refresh(r.Context(), service.RefreshInput{
		Email:        req.Email,
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	h.setTokenCookie(w, out.AccessToken, int(out.ExpiresIn))
	WriteJSON(w, http.StatusOK, out)
}

// Logout revokes the caller's tokens. The access token comes from the body,
// the Authorization header or the cookie, in that order.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if !decodeAuthBody(w, r, &req, true) {
		return
	}

	token := req.AccessToken
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if token == "" {
		if c, err := r.Cookie(middleware.AccessTokenCookie); err == nil {
			token = c.Value
		}
	}

	if err := h.svc.Logout(r.Context(), token); err != nil {
		handleAuthError(w, r, err)
		return
	}

	h.setTokenCookie(w, "", -1)
	WriteJSON(w, http.StatusOK, map[string]string{"message": "signed out"})
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// decodeAuthBody decodes a JSON body into dst. An empty body is accepted
// only when allowEmpty is set.
func decodeAuthBody(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxAuthBodySize)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}
	WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
	return false
}

// handleAuthError maps cognito sentinel errors and service errors to HTTP responses.
// Messages are fixed so Cognito details never reach the client.
func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	if info, ok := cognito.LookupError(err); ok {
		slog.WarnContext(r.Context(), "auth error",
			"request_id", middleware.RequestIDFrom(r.Context()),
			"code", info.Code,
			"detail", err.Error(),
		)
		WriteError(w, info.Status, info.Code, cognitoErrorMessage(info.Code))
		return
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		WriteFieldErrors(w, http.StatusBadRequest, verr.Fields)
		return
	}

	slog.ErrorContext(r.Context(), "auth internal error",
		"request_id", middleware.RequestIDFrom(r.Context()),
		"error", err.Error(),
	)
	WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

func cognitoErrorMessage(code string) string {
	messages := map[string]string{
		"USER_NOT_CONFIRMED":      "email address not confirmed",
		"TOO_MANY_REQUESTS":       "too many requests, please try again later",
		"NOT_AUTHORIZED":          "incorrect email or password",
		"LIMIT_EXCEEDED":          "attempt limit exceeded, please try again later",
		"PASSWORD_RESET_REQUIRED": "password reset is required",
		"INVALID_PARAMETER":       "invalid request parameter",
	}
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "an error occurred"
}
