// Package main seeds the initial back-office users, one admin and one
// teller, with credentials taken from the environment, plus an optional
// demo account group for local development.
package main

import (
	"context"
	"errors"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"

	"ledgerd/internal/config"
	"ledgerd/internal/models"
	"ledgerd/internal/repositories"
	"ledgerd/internal/services/account"
	"ledgerd/internal/services/accountstate"
)

func main() {
	config.LoadEnv()

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set in environment")
	}

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if repositories.DB != nil {
			if sqlDB, err := repositories.DB.DB(); err == nil {
				sqlDB.Close()
			}
		}
		if repositories.CacheService != nil {
			repositories.CacheService.Close()
		}
	}()

	users := repositories.NewUserRepository(repositories.DB)

	admin := seedUser(users, adminEmail, adminPassword, "Administrator", models.RoleAdmin)

	if tellerEmail := os.Getenv("TELLER_EMAIL"); tellerEmail != "" {
		tellerPassword := os.Getenv("TELLER_PASSWORD")
		if tellerPassword == "" {
			log.Fatal("TELLER_PASSWORD must be set when TELLER_EMAIL is")
		}
		seedUser(users, tellerEmail, tellerPassword, "Teller", models.RoleTeller)
	}

	if os.Getenv("SEED_DEMO_ACCOUNTS") == "true" && admin != nil {
		seedDemoGroup(admin.ID)
	}
}

// seedDemoGroup opens a group head with two leaf children owned by the
// given user, for exercising the aggregated-balance and cascade paths
// locally.
func seedDemoGroup(ownerID uint) {
	repo := repositories.NewAccountRepository(repositories.DB)
	accounts := account.NewService(repo, accountstate.NewService(repo))
	ctx := context.Background()

	head, err := accounts.Create(ctx, account.CreateRequest{
		OwnerID: ownerID, Currency: "USD", Country: "US",
	})
	if err != nil {
		log.Fatalf("Failed to create demo group head: %v", err)
	}

	for _, features := range [][]string{nil, {models.FeatureBusiness}} {
		if _, err := accounts.Create(ctx, account.CreateRequest{
			OwnerID:  ownerID,
			Country:  "US",
			ParentID: &head.ID,
			Features: features,
		}); err != nil {
			log.Fatalf("Failed to create demo leaf account: %v", err)
		}
	}
	log.Printf("Demo group seeded: head %s with 2 leaves", head.Number)
}

func seedUser(users repositories.UserRepository, email, password, name, role string) *models.User {
	if existing, err := users.GetByEmail(email); err == nil {
		log.Printf("%s user already exists", role)
		return existing
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		log.Fatalf("Failed to check for existing %s: %v", role, err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	user := &models.User{
		Email:        email,
		Password:     string(hashed),
		Name:         name,
		Role:         role,
		Status:       "active",
		TokenVersion: 1,
	}
	if err := users.Create(user); err != nil {
		log.Fatalf("Failed to create %s user: %v", role, err)
	}
	log.Printf("%s account created: %s", role, email)
	return user
}
