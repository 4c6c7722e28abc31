package database

import (
	"fmt"
	"log"
	"time"

	"pollbox/internal/domain/poll"
	"pollbox/internal/domain/user"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedConfig holds configuration for seeding the database
type SeedConfig struct {
	AdminEmail      string
	AdminPassword   string
	AdminName       string
	CreateQuestions bool
}

// DefaultSeedConfig returns default seed configuration
func DefaultSeedConfig() *SeedConfig {
	return &SeedConfig{
		AdminEmail:      "admin@pollbox.local",
		AdminPassword:   "Admin@123!",
		AdminName:       "Main Admin",
		CreateQuestions: true,
	}
}

// SeedResult holds the result of the seeding operation
type SeedResult struct {
	AdminUser *user.User
	Questions []*poll.Question
}

// Seed creates the main admin account and, optionally, a starter question set.
// Safe to run repeatedly: existing rows are left alone.
func Seed(cfg *SeedConfig) (*SeedResult, error) {
	if cfg == nil {
		cfg = DefaultSeedConfig()
	}

	result := &SeedResult{}
	log.Println("Starting database seeding...")

	var existing user.User
	err := DB.Preload("Profile").Where("email = ?", cfg.AdminEmail).First(&existing).Error
	switch {
	case err == nil:
		result.AdminUser = &existing
		log.Printf("Admin user %s already exists, skipping", cfg.AdminEmail)
	case err == gorm.ErrRecordNotFound:
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if hashErr != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", hashErr)
		}
		admin := &user.User{
			ID:           uuid.New(),
			Email:        cfg.AdminEmail,
			Name:         cfg.AdminName,
			PasswordHash: string(hash),
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
			Profile: user.Profile{
				IsAdmin:   true,
				CreatedAt: time.Now(),
			},
		}
		admin.Profile.UserID = admin.ID
		if err := DB.Create(admin).Error; err != nil {
			return nil, fmt.Errorf("failed to create admin user: %w", err)
		}
		result.AdminUser = admin
		log.Printf("Created admin user %s", cfg.AdminEmail)
	default:
		return nil, fmt.Errorf("failed to look up admin user: %w", err)
	}

	if !cfg.CreateQuestions {
		return result, nil
	}

	var count int64
	if err := DB.Model(&poll.Question{}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		log.Printf("Questions already present (%d), skipping sample data", count)
		return result, nil
	}

	samples := []*poll.Question{
		{
			QuestionText: "What's your favorite programming language?",
			PubDate:      time.Now().Add(-24 * time.Hour),
			Choices: []poll.Choice{
				{ChoiceText: "Go"},
				{ChoiceText: "Python"},
				{ChoiceText: "Rust"},
			},
		},
		{
			QuestionText: "Tabs or spaces?",
			PubDate:      time.Now().Add(-time.Hour),
			Choices: []poll.Choice{
				{ChoiceText: "Tabs"},
				{ChoiceText: "Spaces"},
			},
		},
		{
			QuestionText: "Which feature should we build next?",
			PubDate:      time.Now().Add(72 * time.Hour),
			Choices: []poll.Choice{
				{ChoiceText: "Dark mode"},
				{ChoiceText: "Export to CSV"},
			},
		},
	}
	for _, q := range samples {
		if err := DB.Create(q).Error; err != nil {
			return nil, fmt.Errorf("failed to create sample question: %w", err)
		}
		result.Questions = append(result.Questions, q)
	}
	log.Printf("Created %d sample questions", len(samples))

	return result, nil
}
