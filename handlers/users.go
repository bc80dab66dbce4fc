package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"reelpick/models"
	"reelpick/services/users"

	"github.com/gorilla/mux"
)

type usersService interface {
	List() []models.User
	Get(id string) (models.User, bool)
	Create(name string) (models.User, error)
	Rename(id, name string) (models.User, error)
	Delete(id string) error
}

type libraryCleaner interface {
	DeleteUser(userID string) error
}

var _ usersService = (*users.Service)(nil)

// UsersHandler exposes CRUD for user profiles.
type UsersHandler struct {
	users   usersService
	library libraryCleaner
}

func NewUsersHandler(users usersService, library libraryCleaner) *UsersHandler {
	return &UsersHandler{users: users, library: library}
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"users": h.users.List()})
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	user, ok := h.users.Get(userID)
	if !ok {
		writeJSONError(w, "user not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	user, err := h.users.Create(strings.TrimSpace(payload.Name))
	if err != nil {
		if errors.Is(err, users.ErrNameRequired) {
			writeJSONError(w, "name is required", http.StatusBadRequest)
			return
		}
		log.Printf("[users] create failed: %v", err)
		writeJSONError(w, "failed to create user", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

func (h *UsersHandler) Rename(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	var payload struct {
		Name string `json:"name"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	user, err := h.users.Rename(userID, strings.TrimSpace(payload.Name))
	if err != nil {
		switch {
		case errors.Is(err, users.ErrUserNotFound):
			writeJSONError(w, "user not found", http.StatusNotFound)
		case errors.Is(err, users.ErrNameRequired):
			writeJSONError(w, "name is required", http.StatusBadRequest)
		default:
			log.Printf("[users] rename failed: %v", err)
			writeJSONError(w, "failed to rename user", http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	if err := h.users.Delete(userID); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			writeJSONError(w, "user not found", http.StatusNotFound)
			return
		}
		writeJSONError(w, err.Error(), http.StatusConflict)
		return
	}
	if h.library != nil {
		if err := h.library.DeleteUser(userID); err != nil {
			log.Printf("[users] failed to clear library for %s: %v", userID, err)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
