package users_test

import (
	"testing"

	"reelpick/models"
	"reelpick/services/users"
)

func TestServiceInitialisesDefaultUser(t *testing.T) {
	svc, err := users.NewService(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	list := svc.List()
	if len(list) != 1 {
		t.Fatalf("expected exactly one user, got %d", len(list))
	}

	if list[0].ID != models.DefaultUserID {
		t.Fatalf("expected default user id %q, got %q", models.DefaultUserID, list[0].ID)
	}
	if list[0].Name != models.DefaultUserName {
		t.Fatalf("expected default user name %q, got %q", models.DefaultUserName, list[0].Name)
	}
}

func TestServiceCreateRenameAndDelete(t *testing.T) {
	svc, err := users.NewService(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	created, err := svc.Create("Evening Watcher")
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	if created.ID == "" {
		t.Fatalf("expected created user to have id")
	}

	renamed, err := svc.Rename(created.ID, "Night Owl")
	if err != nil {
		t.Fatalf("rename returned error: %v", err)
	}

	if renamed.Name != "Night Owl" {
		t.Fatalf("expected renamed user to have updated name, got %q", renamed.Name)
	}

	if err := svc.Delete(created.ID); err != nil {
		t.Fatalf("delete returned error: %v", err)
	}

	if svc.Exists(created.ID) {
		t.Fatalf("expected user to be deleted")
	}
}

func TestDeleteLastUserFails(t *testing.T) {
	svc, err := users.NewService(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	list := svc.List()
	if len(list) != 1 {
		t.Fatalf("expected exactly one user, got %d", len(list))
	}

	if err := svc.Delete(list[0].ID); err == nil {
		t.Fatal("expected delete to fail for last remaining user")
	}
}

func TestUsersPersistAcrossReload(t *testing.T) {
	dir := t.TempDir()
	svc, err := users.NewService(dir)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	created, err := svc.Create("Second Profile")
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	reloaded, err := users.NewService(dir)
	if err != nil {
		t.Fatalf("failed to reload service: %v", err)
	}
	if !reloaded.Exists(created.ID) {
		t.Fatal("expected created user to survive reload")
	}
	if len(reloaded.List()) != 2 {
		t.Fatalf("expected two users after reload, got %d", len(reloaded.List()))
	}
}
