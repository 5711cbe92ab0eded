package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yungbote/plantpal-backend/internal/logger"
	"github.com/yungbote/plantpal-backend/internal/types"
	"github.com/yungbote/plantpal-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "plantpal", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		log.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.Plant{},
		&types.CareActivity{},
		&types.GlobalPolicy{},
		&types.PlantPolicy{},
		&types.ScheduledNotification{},
		&types.NotificationBatch{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		name string
		stmt string
	}{
		{
			name: "fk_care_activity_plant_id",
			stmt: `
				ALTER TABLE "care_activity"
				ADD CONSTRAINT "fk_care_activity_plant_id"
				FOREIGN KEY ("plant_id")
				REFERENCES "plant"("id")
				ON DELETE CASCADE
			`,
		},
		{
			name: "fk_plant_policy_plant_id",
			stmt: `
				ALTER TABLE "plant_policy"
				ADD CONSTRAINT "fk_plant_policy_plant_id"
				FOREIGN KEY ("plant_id")
				REFERENCES "plant"("id")
				ON DELETE CASCADE
			`,
		},
		{
			// Notification history survives plant deletion.
			name: "fk_scheduled_notification_plant_id",
			stmt: `
				ALTER TABLE "scheduled_notification"
				ADD CONSTRAINT "fk_scheduled_notification_plant_id"
				FOREIGN KEY ("plant_id")
				REFERENCES "plant"("id")
				ON DELETE SET NULL
			`,
		},
	}
	for _, c := range constraints {
		var count int64
		s.db.Raw(`SELECT COUNT(*) FROM pg_constraint WHERE conname = ?`, c.name).Scan(&count)
		if count > 0 {
			continue
		}
		if err := s.db.Exec(c.stmt).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
