package seed

import (
	"os"
	"path/filepath"
	"testing"

	"lobby/internal/database"
	"lobby/internal/models"
)

func TestApplyRoster_Idempotent(t *testing.T) {
	t.Parallel()

	db, err := database.ConnectTest()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := ApplyRoster(db, &DefaultRoster); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := ApplyRoster(db, &DefaultRoster); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != int64(len(DefaultRoster.Accounts)) {
		t.Fatalf("expected %d users, got %d", len(DefaultRoster.Accounts), count)
	}

	for _, acct := range DefaultRoster.Accounts {
		var u models.User
		if err := db.Where("email = ?", acct.Email).First(&u).Error; err != nil {
			t.Fatalf("missing roster account %s: %v", acct.Email, err)
		}
		if u.DisplayName != acct.DisplayName {
			t.Fatalf("expected display name %q for %s, got %q", acct.DisplayName, acct.Email, u.DisplayName)
		}
	}
}

func TestLoadRoster(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "roster.yaml")
	content := `accounts:
  - display_name: Demo One
    email: demo1@example.com
    password: secret123
  - display_name: Demo Two
    email: demo2@example.com
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write roster: %v", err)
	}

	roster, err := LoadRoster(path)
	if err != nil {
		t.Fatalf("load roster: %v", err)
	}
	if len(roster.Accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(roster.Accounts))
	}
	if roster.Accounts[0].Email != "demo1@example.com" {
		t.Fatalf("unexpected first account: %+v", roster.Accounts[0])
	}
	if roster.Accounts[1].Password != "" {
		t.Fatalf("expected empty password passthrough, got %q", roster.Accounts[1].Password)
	}
}

func TestLoadRosterRejectsMissingEmail(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "roster.yaml")
	content := `accounts:
  - display_name: No Email
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write roster: %v", err)
	}

	if _, err := LoadRoster(path); err == nil {
		t.Fatal("expected error for account without email")
	}
}
