package seed

import (
	"fmt"
	"os"

	"lobby/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RosterAccount is a permanent, well-known account described in a roster file.
type RosterAccount struct {
	DisplayName string `yaml:"display_name"`
	Email       string `yaml:"email"`
	Password    string `yaml:"password"`
}

// Roster is the parsed form of a roster YAML file.
type Roster struct {
	Accounts []RosterAccount `yaml:"accounts"`
}

// DefaultRoster defines the accounts seeded when no roster file is given.
// Every demo environment gets the same stable logins.
var DefaultRoster = Roster{
	Accounts: []RosterAccount{
		{DisplayName: "Admin", Email: "admin@example.com", Password: "password123"},
		{DisplayName: "Alice", Email: "alice@example.com", Password: "password123"},
		{DisplayName: "Bob", Email: "bob@example.com", Password: "password123"},
		{DisplayName: "QA Bot", Email: "qa@example.com", Password: "password123"},
	},
}

// LoadRoster reads and parses a roster YAML file.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster file: %w", err)
	}

	var roster Roster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("parse roster file: %w", err)
	}

	for i, acct := range roster.Accounts {
		if acct.Email == "" {
			return nil, fmt.Errorf("roster account %d has no email", i)
		}
		if acct.DisplayName == "" {
			return nil, fmt.Errorf("roster account %s has no display name", acct.Email)
		}
	}

	return &roster, nil
}

// ApplyRoster upserts each roster account by email. Running it twice leaves
// the table unchanged, so it is safe to call on every deploy.
func ApplyRoster(db *gorm.DB, roster *Roster) error {
	for _, acct := range roster.Accounts {
		password := acct.Password
		if password == "" {
			password = "password123"
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", acct.Email, err)
		}

		user := models.User{
			DisplayName: acct.DisplayName,
			Email:       acct.Email,
			Password:    string(hashed),
		}
		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "updated_at"}),
		}).Create(&user).Error
		if err != nil {
			return fmt.Errorf("seed roster account %s: %w", acct.Email, err)
		}
	}

	return nil
}
