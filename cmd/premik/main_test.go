package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/erazemk/premik/internal/auth"
	"github.com/erazemk/premik/internal/db"
	"github.com/erazemk/premik/internal/model"
	"github.com/erazemk/premik/internal/store"
)

func TestGeneratePassword(t *testing.T) {
	p, err := generatePassword(16)
	if err != nil {
		t.Fatalf("generatePassword: %v", err)
	}
	if len(p) != 16 {
		t.Errorf("expected 16 characters, got %d", len(p))
	}
	if strings.ContainsAny(p, " \t\n") {
		t.Errorf("unexpected whitespace in %q", p)
	}
}

func TestInitDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "premik.sqlite3")
	password, err := initDatabase(path, "Admin")
	if err != nil {
		t.Fatalf("initDatabase: %v", err)
	}

	database, err := db.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	user, err := store.GetUserByUsername(context.Background(), database, "Admin")
	if err != nil || user == nil {
		t.Fatalf("expected admin user, got %v %v", user, err)
	}
	if user.Role != model.RoleAdmin {
		t.Errorf("expected admin role, got %q", user.Role)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		t.Error("expected generated password to match")
	}
}
