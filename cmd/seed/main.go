package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"campus/internal/config"
	"campus/internal/db"
	"campus/internal/model"
	"campus/internal/repository"
	"campus/internal/service"
)

// demoSemesters are two consecutive terms of one academic year, enough to exercise rollover.
var demoSemesters = []model.Semester{
	{Name: "Spring", Code: "2024-S1", Year: 2024, StartDate: date(2024, 1, 8), EndDate: date(2024, 4, 26)},
	{Name: "Fall", Code: "2024-S2", Year: 2024, StartDate: date(2024, 8, 26), EndDate: date(2024, 12, 13)},
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func main() {
	log.Println("Starting seed script...")

	// Load configuration
	cfg := config.Load()
	if cfg.SeedAdminPassword == "" {
		log.Fatal("SEED_ADMIN_PASSWORD must be set")
	}

	// Connect to database
	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	// Run migrations to ensure schema is up to date
	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()

	created, err := seedAdmin(ctx, repository.NewUserRepository(gormDB), cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	if err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}
	if created {
		log.Printf("Admin %s created", cfg.SeedAdminEmail)
	} else {
		log.Printf("Admin %s already exists", cfg.SeedAdminEmail)
	}

	seeded, err := seedSemesters(ctx, repository.NewSemesterRepository(gormDB), demoSemesters)
	if err != nil {
		log.Fatalf("Failed to seed semesters: %v", err)
	}

	log.Printf("Seed completed successfully!")
	log.Printf("  - New semesters created: %d", seeded)
	log.Printf("  - Existing semesters kept: %d", len(demoSemesters)-seeded)
}

// seedAdmin creates the ADMIN user unless the email is taken.
func seedAdmin(ctx context.Context, repo repository.UserRepository, email, password string) (bool, error) {
	if _, err := repo.FindByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("error checking admin %s: %w", email, err)
	}

	hash, err := service.HashPassword(password)
	if err != nil {
		return false, err
	}
	admin := &model.User{
		Role:         model.RoleAdmin,
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Campus",
		LastName:     "Admin",
	}
	if err := repo.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("error creating admin %s: %w", email, err)
	}
	return true, nil
}

// seedSemesters inserts the semesters whose code is not yet used.
func seedSemesters(ctx context.Context, repo repository.SemesterRepository, semesters []model.Semester) (int, error) {
	seeded := 0
	for _, s := range semesters {
		semester := s
		if err := repo.Create(ctx, &semester); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			return seeded, fmt.Errorf("error creating semester %s: %w", s.Code, err)
		}
		seeded++
	}
	return seeded, nil
}
