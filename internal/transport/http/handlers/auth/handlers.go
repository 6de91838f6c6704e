package authhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"peopleops/internal/domain/auth"
	"peopleops/internal/transport/http/api"
	"peopleops/internal/transport/http/middleware"
	"peopleops/internal/transport/http/shared"
)

type Handler struct {
	Service *auth.Service
}

func NewHandler(service *auth.Service) *Handler {
	return &Handler{Service: service}
}

type loginRequest struct {
	Login    string `json:"login"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginID accepts the identifier from whichever field the client used.
func (p loginRequest) loginID() string {
	for _, candidate := range []string{p.Login, p.Username, p.Email} {
		if strings.TrimSpace(candidate) != "" {
			return strings.TrimSpace(candidate)
		}
	}
	return ""
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("login", payload.loginID(), "username or email is required")
	v.Required("password", payload.Password, "password is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	result, err := h.Service.Login(r.Context(), payload.loginID(), payload.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "login_failed", "login failed", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]any{
		"token": result.Token,
		"user": map[string]string{
			"id":       result.UserID,
			"username": result.Username,
			"email":    result.Email,
			"role":     result.Role,
		},
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var payload registerRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("username", payload.Username, "username is required")
	v.Required("email", payload.Email, "email is required")
	v.Required("password", payload.Password, "password is required")
	if payload.Role != "" && !auth.ValidRole(payload.Role) {
		v.Add("role", "must be admin, manager or employee")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	userID, err := h.Service.Register(r.Context(), payload.Username, payload.Email, payload.Password, payload.Role)
	if errors.Is(err, auth.ErrDuplicateUser) {
		api.Fail(w, http.StatusConflict, "duplicate_user", "username or email already taken", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "register_failed", "registration failed", middleware.GetRequestID(r.Context()))
		return
	}

	api.Created(w, map[string]string{"id": userID}, middleware.GetRequestID(r.Context()))
}
