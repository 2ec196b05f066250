// seed creates the bootstrap admin account. Registration never grants the
// admin flag, so the first admin must come from here.
// Idempotent: exits cleanly if the admin email already exists.
package main

import (
	"context"
	"log"

	"taskboard/backend/internal/config"
	"taskboard/backend/internal/db"
	"taskboard/backend/internal/security"
	"taskboard/backend/internal/user/domain"
	userrepo "taskboard/backend/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
		log.Fatal("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD must be set")
	}
	if !domain.ValidEmail(cfg.SeedAdminEmail) {
		log.Fatalf("SEED_ADMIN_EMAIL %q is not a valid email", cfg.SeedAdminEmail)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)

	existing, err := users.GetByEmail(ctx, cfg.SeedAdminEmail)
	if err != nil {
		log.Fatalf("lookup: %v", err)
	}
	if existing != nil {
		if existing.IsAdmin {
			log.Printf("admin %s already exists; nothing to do", cfg.SeedAdminEmail)
			return
		}
		if _, err := users.SetAdmin(ctx, existing.ID, true); err != nil {
			log.Fatalf("promote: %v", err)
		}
		log.Printf("promoted existing user %s to admin", cfg.SeedAdminEmail)
		return
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	hash, err := hasher.Hash([]byte(cfg.SeedAdminPassword))
	if err != nil {
		log.Fatalf("hash: %v", err)
	}
	id, err := users.Create(ctx, &domain.User{
		Email:        cfg.SeedAdminEmail,
		PasswordHash: hash,
		IsAdmin:      true,
	})
	if err != nil {
		log.Fatalf("create: %v", err)
	}
	log.Printf("created bootstrap admin %s (id %d)", cfg.SeedAdminEmail, id)
}
