package http

import (
	"encoding/json"
	"errors"
	"net/http"

	accountsapp "energymeter-cloud/internal/accounts/application"
	accounts "energymeter-cloud/internal/accounts/domain"
	"energymeter-cloud/internal/auth"
)

// Handler provides account HTTP endpoints under /api/auth/.
type Handler struct {
	service *accountsapp.Service
}

// NewHandler constructs a handler.
func NewHandler(service *accountsapp.Service) (*Handler, error) {
	if service == nil {
		return nil, errors.New("accounts handler: nil service")
	}
	return &Handler{service: service}, nil
}

// ServeHTTP handles /api/auth/ subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/api/auth/signup":
		h.handleSignup(w, r)
	case "/api/auth/login":
		h.handleLogin(w, r)
	case "/api/auth/change-password":
		h.handleChangePassword(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type signupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if _, err := h.service.Signup(r.Context(), req.Email, req.Username, req.Password); err != nil {
		switch {
		case errors.Is(err, accounts.ErrEmailTaken):
			http.Error(w, "email already registered", http.StatusBadRequest)
		case errors.Is(err, accounts.ErrUsernameTaken):
			http.Error(w, "username already taken", http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "user created successfully"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.service.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, accounts.ErrNotFound):
			http.Error(w, "user not found", http.StatusNotFound)
		case errors.Is(err, accounts.ErrInvalidCredentials):
			http.Error(w, "current password is incorrect", http.StatusUnauthorized)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "password updated successfully"})
}
