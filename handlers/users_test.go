package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"reelpick/handlers"
	"reelpick/models"
	"reelpick/services/library"
	"reelpick/services/users"

	"github.com/gorilla/mux"
)

func newUserServices(t *testing.T) (*users.Service, *library.Service) {
	t.Helper()
	dir := t.TempDir()
	userSvc, err := users.NewService(dir)
	if err != nil {
		t.Fatalf("failed to create users service: %v", err)
	}
	libSvc, err := library.NewService(dir)
	if err != nil {
		t.Fatalf("failed to create library service: %v", err)
	}
	return userSvc, libSvc
}

func TestUsersCreateAndList(t *testing.T) {
	userSvc, libSvc := newUserServices(t)
	h := handlers.NewUsersHandler(userSvc, libSvc)

	payload, _ := json.Marshal(map[string]string{"name": "Sam"})
	req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	var created models.User
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	if created.Name != "Sam" || created.ID == "" {
		t.Fatalf("unexpected user returned: %+v", created)
	}

	recList := httptest.NewRecorder()
	h.List(recList, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	var listResp struct {
		Users []models.User `json:"users"`
	}
	if err := json.Unmarshal(recList.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(listResp.Users) != 2 {
		t.Fatalf("expected default user plus Sam, got %d users", len(listResp.Users))
	}
}

func TestUsersCreateRejectsEmptyName(t *testing.T) {
	userSvc, libSvc := newUserServices(t)
	h := handlers.NewUsersHandler(userSvc, libSvc)

	payload, _ := json.Marshal(map[string]string{"name": "   "})
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewReader(payload)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestUsersRename(t *testing.T) {
	userSvc, libSvc := newUserServices(t)
	h := handlers.NewUsersHandler(userSvc, libSvc)

	payload, _ := json.Marshal(map[string]string{"name": "Primary"})
	req := httptest.NewRequest(http.MethodPatch, "/api/users/"+models.DefaultUserID, bytes.NewReader(payload))
	req = mux.SetURLVars(req, map[string]string{"userID": models.DefaultUserID})
	rec := httptest.NewRecorder()
	h.Rename(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var renamed models.User
	if err := json.Unmarshal(rec.Body.Bytes(), &renamed); err != nil {
		t.Fatalf("failed to decode rename response: %v", err)
	}
	if renamed.Name != "Primary" {
		t.Fatalf("expected renamed user, got %+v", renamed)
	}
}

func TestUsersDeleteClearsLibrary(t *testing.T) {
	userSvc, libSvc := newUserServices(t)
	h := handlers.NewUsersHandler(userSvc, libSvc)

	extra, err := userSvc.Create("Temp")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	if _, err := libSvc.AddToBucket(extra.ID, models.BucketFavorites, models.Movie{ID: "tmdb_1", Title: "Keeper"}); err != nil {
		t.Fatalf("failed to seed library: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/users/"+extra.ID, nil)
	req = mux.SetURLVars(req, map[string]string{"userID": extra.ID})
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	lib, err := libSvc.Load(extra.ID)
	if err != nil {
		t.Fatalf("failed to load library: %v", err)
	}
	if len(lib.Favorites) != 0 {
		t.Fatalf("expected library cleared after delete, got %d favorites", len(lib.Favorites))
	}
}

func TestUsersDeleteLastUserFails(t *testing.T) {
	userSvc, libSvc := newUserServices(t)
	h := handlers.NewUsersHandler(userSvc, libSvc)

	req := httptest.NewRequest(http.MethodDelete, "/api/users/"+models.DefaultUserID, nil)
	req = mux.SetURLVars(req, map[string]string{"userID": models.DefaultUserID})
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
}

func TestUsersGetNotFound(t *testing.T) {
	userSvc, libSvc := newUserServices(t)
	h := handlers.NewUsersHandler(userSvc, libSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/users/missing", nil)
	req = mux.SetURLVars(req, map[string]string{"userID": "missing"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}
