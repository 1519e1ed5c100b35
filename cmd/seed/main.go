package main

import (
	"context"
	"log"
	"os"
	"time"

	"dern-backend/internal/config"
	"dern-backend/internal/db"
	"dern-backend/internal/models"
	"dern-backend/internal/users"
)

type seedUser struct {
	Name        string
	Email       string
	Role        string
	PasswordEnv string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		log.Fatal(err)
	}

	repo := users.NewRepository(cols.Users)

	seeds := []seedUser{
		{
			Name:        envOrDefault("SEED_ADMIN_NAME", "Admin"),
			Email:       envOrDefault("SEED_ADMIN_EMAIL", "admin@dern.local"),
			Role:        models.UserRoleAdmin,
			PasswordEnv: "SEED_ADMIN_PASSWORD",
		},
		{
			Name:        envOrDefault("SEED_TECHNICIAN_NAME", "Demo Technician"),
			Email:       envOrDefault("SEED_TECHNICIAN_EMAIL", "technician@dern.local"),
			Role:        models.UserRoleTechnician,
			PasswordEnv: "SEED_TECHNICIAN_PASSWORD",
		},
		{
			Name:        envOrDefault("SEED_CUSTOMER_NAME", "Demo Customer"),
			Email:       envOrDefault("SEED_CUSTOMER_EMAIL", "customer@dern.local"),
			Role:        models.UserRoleCustomer,
			PasswordEnv: "SEED_CUSTOMER_PASSWORD",
		},
	}

	now := time.Now().UTC()
	for _, seed := range seeds {
		password := os.Getenv(seed.PasswordEnv)
		if password == "" {
			log.Printf("seed user: %s missing, skipping %s", seed.PasswordEnv, seed.Email)
			continue
		}
		user, err := users.NewUser(seed.Name, seed.Email, password, seed.Role, now)
		if err != nil {
			log.Fatalf("seed user error for %s: %v", seed.Email, err)
		}
		if err := repo.Upsert(ctx, user); err != nil {
			log.Fatalf("seed user error for %s: %v", seed.Email, err)
		}
		log.Printf("seed user: %s (%s) ok", seed.Email, seed.Role)
	}

	log.Println("seed completed")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
