// Command seed inserts pre-confirmed development accounts with known
// passwords, skipping the register/confirm flow.
package main

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"authd/internal/config"
	"authd/internal/db"
	"authd/internal/model"
	"authd/internal/password"
	"authd/internal/repository"
)

type seedAccount struct {
	Email    string
	Password string
}

var seedAccounts = []seedAccount{
	{Email: "alice@example.test", Password: "alice-password"},
	{Email: "bob@example.test", Password: "bob-password"},
	{Email: "carol@example.test", Password: "carol-password"},
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := gormDB.AutoMigrate(&model.Account{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	repo := repository.NewAccountRepository(gormDB)
	ctx := context.Background()

	created, updated := 0, 0
	for _, seed := range seedAccounts {
		hash, err := password.Hash(seed.Password)
		if err != nil {
			log.Fatalf("Failed to hash password for %s: %v", seed.Email, err)
		}

		existing, err := repo.FindByEmail(ctx, seed.Email)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			account := &model.Account{
				Email:        seed.Email,
				PasswordHash: hash,
				Confirmed:    true,
			}
			if err := repo.Create(ctx, account); err != nil {
				log.Fatalf("Failed to create %s: %v", seed.Email, err)
			}
			created++
		case err != nil:
			log.Fatalf("Failed to look up %s: %v", seed.Email, err)
		default:
			existing.PasswordHash = hash
			existing.Confirmed = true
			if err := repo.Update(ctx, existing); err != nil {
				log.Fatalf("Failed to update %s: %v", seed.Email, err)
			}
			updated++
		}
	}

	log.Printf("Seed complete: %d created, %d updated", created, updated)
}
