package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"jobportal/internal/auth"
	"jobportal/internal/config"
	"jobportal/internal/db"
	"jobportal/internal/logger"
	"jobportal/internal/model"
	"jobportal/internal/repository"
)

// defaultPlans is the catalog installed on a fresh database. A zero limit
// means unlimited.
var defaultPlans = []model.SubscriptionPlan{
	{
		Name:             "Free",
		Description:      "Get started with a handful of applications and practice tests.",
		Price:            decimal.Zero,
		DurationDays:     30,
		ApplicationLimit: 5,
		MockTestLimit:    2,
		Features:         datatypes.JSONSlice[string]{"5 job applications", "2 mock tests", "Certificate verification"},
		IsActive:         true,
	},
	{
		Name:             "Basic",
		Description:      "For active job seekers.",
		Price:            decimal.RequireFromString("199.00"),
		DurationDays:     30,
		ApplicationLimit: 25,
		MockTestLimit:    10,
		Features:         datatypes.JSONSlice[string]{"25 job applications", "10 mock tests", "Chat with employers"},
		IsActive:         true,
	},
	{
		Name:             "Premium",
		Description:      "Unlimited applications and practice.",
		Price:            decimal.RequireFromString("499.00"),
		DurationDays:     30,
		ApplicationLimit: 0,
		MockTestLimit:    0,
		Features:         datatypes.JSONSlice[string]{"Unlimited job applications", "Unlimited mock tests", "Priority support"},
		IsActive:         true,
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogPretty)
	log.Info().Msg("starting seed")

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	log.Info().Msg("database migrations completed")

	ctx := context.Background()
	store := repository.NewStore(gormDB)

	if err := seedAdmin(ctx, store.Users(), auth.NewHasher(cfg.BcryptCost), cfg.AdminEmail, cfg.AdminPassword, log); err != nil {
		log.Fatal().Err(err).Msg("seed admin")
	}

	created, updated, err := seedPlans(ctx, store.Plans(), defaultPlans)
	if err != nil {
		log.Fatal().Err(err).Msg("seed plans")
	}
	log.Info().Int("created", created).Int("updated", updated).Msg("seed completed")
}

// seedAdmin creates the admin account when no user holds the email yet.
func seedAdmin(ctx context.Context, users repository.UserRepository, hasher *auth.Hasher, email, password string, log zerolog.Logger) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		log.Warn().Msg("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin account")
		return nil
	}

	existing, err := users.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role != model.RoleAdmin {
			return fmt.Errorf("%s is registered as %s", email, existing.Role)
		}
		log.Info().Str("email", email).Msg("admin account already exists")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}
	admin := &model.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		IsActive:     true,
	}
	admin.SetAdmin(model.AdminDetails{Permissions: []string{"*"}})
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Info().Str("email", email).Msg("admin account created")
	return nil
}

// seedPlans inserts missing plans and refreshes the limits of existing ones by name.
func seedPlans(ctx context.Context, plans repository.PlanRepository, catalog []model.SubscriptionPlan) (created, updated int, err error) {
	for _, p := range catalog {
		plan := p
		existing, err := plans.FindByName(ctx, plan.Name)
		switch {
		case err == nil:
			plan.ID = existing.ID
			plan.CreatedAt = existing.CreatedAt
			if err := plans.Update(ctx, &plan); err != nil {
				return created, updated, fmt.Errorf("update plan %s: %w", plan.Name, err)
			}
			updated++
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := plans.Create(ctx, &plan); err != nil {
				return created, updated, fmt.Errorf("create plan %s: %w", plan.Name, err)
			}
			created++
		default:
			return created, updated, fmt.Errorf("look up plan %s: %w", plan.Name, err)
		}
	}
	return created, updated, nil
}
