package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"press-subscription/internal/config"
	"press-subscription/internal/domain"
	"press-subscription/internal/domain/model"
	"press-subscription/internal/domain/ports/repository"
	pg "press-subscription/internal/infra/db/postgres"
	"press-subscription/internal/infra/logging"
	red "press-subscription/internal/infra/redis"
	"press-subscription/internal/infra/security"
	"press-subscription/internal/usecase"

	"github.com/shopspring/decimal"
)

const seedLockKey = "lock:seed"

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	adminEmail := flag.String("admin-email", "admin@example.com", "email of the seeded admin")
	adminName := flag.String("admin-username", "admin", "username of the seeded admin")
	flag.Parse()

	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if err := model.ValidatePassword(adminPassword); err != nil {
		log.Fatalf("SEED_ADMIN_PASSWORD must be 8..100 chars with upper, lower and digit")
	}

	// ---- Config ----
	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, false)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Connect Postgres
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, logger); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Serialize concurrent seed runs when Redis is around.
	if cfg.Redis.URL != "" {
		client, err := red.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer client.Close()
		locker := red.NewLocker(client)
		token, err := locker.TryLock(ctx, seedLockKey, time.Minute)
		if err != nil {
			if errors.Is(err, red.ErrLockHeld) {
				fmt.Println("another seed run is in progress. No changes.")
				return
			}
			log.Fatalf("lock: %v", err)
		}
		defer func() { _ = locker.Unlock(context.Background(), seedLockKey, token) }()
	}

	users := pg.NewPostgresUserRepo(pool)
	tm := pg.NewTxManager(pool)
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)

	admin, err := ensureAdmin(ctx, users, hasher, *adminEmail, *adminName, adminPassword)
	if err != nil {
		log.Fatalf("admin: %v", err)
	}
	fmt.Printf("admin: %s (id=%s)\n", admin.Username, admin.ID)

	pubUC := usecase.NewPublicationUseCase(pg.NewPostgresPublicationRepo(pool), tm, logger)

	// If publications already exist, do nothing
	existing, err := pubUC.ListAll(ctx, admin, 0, 0)
	if err != nil {
		log.Fatalf("list publications: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("%d publications already present. No changes.\n", len(existing))
		for _, p := range existing {
			fmt.Printf("  - %s (%s, monthly=%s, yearly=%s)\n", p.Title, p.Type, p.PriceMonthly, p.PriceYearly)
		}
		return
	}

	seed := []struct {
		Title     string
		Type      model.PublicationType
		Publisher string
		Frequency string
		Monthly   string
		Yearly    string
	}{
		{"The Morning Ledger", model.PublicationTypeNewspaper, "Ledger Media", "daily", "9.99", "99.00"},
		{"Circuit Monthly", model.PublicationTypeMagazine, "Circuit Press", "monthly", "4.50", "45.00"},
		{"Journal of Applied Botany", model.PublicationTypeJournal, "Greenleaf Academic", "quarterly", "12.00", "120.00"},
	}

	for _, s := range seed {
		monthly := decimal.RequireFromString(s.Monthly)
		yearly := decimal.RequireFromString(s.Yearly)
		typ := s.Type
		p, err := pubUC.Create(ctx, admin, model.PublicationFields{
			Title:        &s.Title,
			Type:         &typ,
			Publisher:    &s.Publisher,
			Frequency:    &s.Frequency,
			PriceMonthly: &monthly,
			PriceYearly:  &yearly,
		})
		if err != nil {
			log.Fatalf("create publication %q: %v", s.Title, err)
		}
		fmt.Printf("seeded: %s (id=%s, monthly=%s, yearly=%s)\n", p.Title, p.ID, p.PriceMonthly, p.PriceYearly)
	}

	fmt.Println("Seeding complete.")
}

// ensureAdmin returns the existing account for email, promoting it when needed,
// or creates a fresh admin.
func ensureAdmin(ctx context.Context, users repository.UserRepository, hasher *security.BcryptHasher, email, username, password string) (*model.User, error) {
	u, err := users.FindByLogin(ctx, repository.NoTX, email)
	switch {
	case err == nil:
		if u.Role != model.UserRoleAdmin || !u.IsActive {
			u.Role = model.UserRoleAdmin
			u.IsActive = true
			if err := users.Save(ctx, repository.NoTX, u); err != nil {
				return nil, err
			}
		}
		return u, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	u, err = model.NewUser("", email, username, hash, nil)
	if err != nil {
		return nil, err
	}
	u.Role = model.UserRoleAdmin
	if err := users.Save(ctx, repository.NoTX, u); err != nil {
		return nil, fmt.Errorf("save admin: %w", err)
	}
	return u, nil
}
