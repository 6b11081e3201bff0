package seed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	appModels "github.com/oussamael/internhub/internal/app/models"
	appRepos "github.com/oussamael/internhub/internal/app/repositories"
)

const defaultAdminEmail = "admin@internhub.app"

// CreateDefaultData inserts the baseline records a fresh deployment
// needs: a handful of internship areas and a default admin account.
// Errors are collected so one failed insert does not block the rest.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	userRepo := appRepos.NewUserRepository(dbPool)

	lgr.Info().Msg("Checking/Creating default data...")
	var finalErr error

	for _, area := range []struct {
		name        string
		description string
	}{
		{"Software Engineering", "Backend, frontend and tooling placements"},
		{"Data Science", "Analytics, ML and data platform placements"},
		{"Networks", "Infrastructure and network operations placements"},
	} {
		_, err := dbPool.Exec(ctx, `
			INSERT INTO areas (name, description)
			VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING
		`, area.name, area.description)
		if err != nil {
			lgr.Error().Err(err).Str("area", area.name).Msg("Error creating default area")
			finalErr = errors.Join(finalErr, err)
		}
	}

	exists, err := userRepo.EmailExists(ctx, defaultAdminEmail)
	if err != nil {
		lgr.Error().Err(err).Msg("Error checking if admin user exists")
		return errors.Join(finalErr, err)
	}
	if exists {
		lgr.Info().Msg("Admin user already exists, skipping creation")
		return finalErr
	}

	lgr.Info().Msg("Creating default admin user...")
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("Admin123!"), bcrypt.DefaultCost)
	if err != nil {
		lgr.Error().Err(err).Msg("Error hashing admin password")
		return errors.Join(finalErr, err)
	}

	admin := &appModels.User{
		Email:     defaultAdminEmail,
		Password:  string(hashedPassword),
		FirstName: "System",
		LastName:  "Administrator",
		Role:      appModels.RoleAdmin,
		IsActive:  true,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		lgr.Error().Err(err).Msg("Error creating admin user")
		return errors.Join(finalErr, err)
	}
	lgr.Info().Int64("adminID", admin.ID).Msg("Default admin user created successfully")

	return finalErr
}
