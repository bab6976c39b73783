package service

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/paymi/backend/internal/auth"
	"github.com/paymi/backend/internal/models"
	"github.com/paymi/backend/internal/storage"
)

// Identity implements user registration, login, and listing.
type Identity struct {
	users  storage.UserStore
	db     storage.Pinger
	logger *slog.Logger
}

// NewIdentity creates the identity service.
func NewIdentity(users storage.UserStore, db storage.Pinger, logger *slog.Logger) *Identity {
	return &Identity{users: users, db: db, logger: logger}
}

// Routes registers the identity endpoints.
func (s *Identity) Routes(r *mux.Router) {
	r.HandleFunc("/api/register", s.handleRegister).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/login", s.handleLogin).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/users", s.handleListUsers).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/health", healthHandler(s.db)).Methods(http.MethodGet)
}

type registerRequest struct {
	Email         string `json:"email"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	WalletAddress string `json:"wallet_address"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// publicUser is the user shape returned to callers: never the hash.
type publicUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Username      string `json:"username"`
	WalletAddress string `json:"wallet_address"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
}

func toPublicUser(u *models.User) publicUser {
	return publicUser{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		WalletAddress: u.WalletAddress,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
	}
}

// conflictMessages maps the violated unique field to the message the
// frontend shows.
var conflictMessages = map[string]string{
	"email":          "Email already registered",
	"username":       "Username already taken",
	"wallet_address": "Wallet address already registered",
}

func (s *Identity) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email, username and password are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	user := &models.User{
		Email:         req.Email,
		Username:      req.Username,
		PasswordHash:  hash,
		WalletAddress: req.WalletAddress,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
	}

	// Uniqueness is enforced solely by the storage layer's unique indexes;
	// the violation is authoritative, no pre-check.
	if err := s.users.CreateUser(r.Context(), user); err != nil {
		if field, ok := storage.IsConflict(err); ok {
			msg := conflictMessages[field]
			if msg == "" {
				msg = "A field must be unique but already exists"
			}
			s.logger.Warn("Registration conflict", "email", req.Email, "field", field)
			writeError(w, http.StatusConflict, msg)
			return
		}
		s.logger.Error("Registration failed", "email", req.Email, "error", err)
		writeError(w, http.StatusInternalServerError, "Registration failed: "+err.Error())
		return
	}

	s.logger.Info("User registered", "user_id", user.ID, "email", user.Email)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User registered successfully",
		"user":    toPublicUser(user),
	})
}

func (s *Identity) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Same message as a bad password: no leak of which was wrong.
			writeError(w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
			return
		}
		s.logger.Error("Login lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Login failed: "+err.Error())
		return
	}

	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		s.logger.Warn("Login failed", "email", req.Email)
		writeError(w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
		return
	}

	s.logger.Info("User logged in", "user_id", user.ID, "email", user.Email)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
		"user":    toPublicUser(user),
	})
}

func (s *Identity) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.ListUsers(r.Context())
	if err != nil {
		s.logger.Error("ListUsers failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch users: "+err.Error())
		return
	}

	list := make([]publicUser, 0, len(users))
	for _, u := range users {
		list = append(list, toPublicUser(u))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"users":   list,
	})
}
