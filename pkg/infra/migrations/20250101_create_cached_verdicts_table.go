package migrations

import (
	"github.com/NeuralTrust/NewsGuard/pkg/infra/database"
	"gorm.io/gorm"
)

func init() {
	database.RegisterMigration(database.Migration{
		ID:   "20250101_create_cached_verdicts_table",
		Name: "Create cached_verdicts table backing the shared result cache",

		Up: func(db *gorm.DB) error {
			if err := db.Exec(`
				CREATE TABLE IF NOT EXISTS cached_verdicts (
					key         TEXT PRIMARY KEY,
					payload     BYTEA NOT NULL,
					expires_at  TIMESTAMPTZ,
					created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`).Error; err != nil {
				return err
			}

			// janitor sweeps by expiry
			return db.Exec(`
				CREATE INDEX IF NOT EXISTS idx_cached_verdicts_expires_at
				ON cached_verdicts (expires_at);
			`).Error
		},

		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP TABLE IF EXISTS cached_verdicts;`).Error
		},
	})
}
