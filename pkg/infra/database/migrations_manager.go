package database

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
)

type Migration struct {
	ID   string
	Name string
	Up   func(db *gorm.DB) error
	Down func(db *gorm.DB) error
}

var (
	registryMu sync.Mutex
	registry   = make(map[string]Migration)
)

// RegisterMigration is called from init functions in the migrations package.
func RegisterMigration(m Migration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[m.ID]; exists {
		panic(fmt.Sprintf("migration with ID %s already registered", m.ID))
	}
	registry[m.ID] = m
}

func registeredMigrations() []Migration {
	registryMu.Lock()
	defer registryMu.Unlock()
	out := make([]Migration, 0, len(registry))
	for _, m := range registry {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type appliedMigration struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	AppliedAt time.Time
}

func (appliedMigration) TableName() string {
	return "newsguard_migrations"
}

type MigrationsManager struct {
	db *gorm.DB
}

func NewMigrationsManager(db *gorm.DB) *MigrationsManager {
	return &MigrationsManager{db: db}
}

// ApplyPending runs every registered migration not yet recorded, in ID
// order, each inside its own transaction.
func (m *MigrationsManager) ApplyPending() error {
	if err := m.db.AutoMigrate(&appliedMigration{}); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	var rows []appliedMigration
	if err := m.db.Find(&rows).Error; err != nil {
		return fmt.Errorf("load applied migrations: %w", err)
	}
	applied := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		applied[r.ID] = struct{}{}
	}

	for _, mig := range registeredMigrations() {
		if _, ok := applied[mig.ID]; ok {
			continue
		}
		if mig.Up == nil {
			return fmt.Errorf("migration %s has no Up function", mig.ID)
		}
		err := m.db.Transaction(func(tx *gorm.DB) error {
			if err := mig.Up(tx); err != nil {
				return err
			}
			return tx.Create(&appliedMigration{ID: mig.ID, Name: mig.Name, AppliedAt: time.Now()}).Error
		})
		if err != nil {
			return fmt.Errorf("apply migration %s (%s): %w", mig.ID, mig.Name, err)
		}
	}
	return nil
}
