package repository

import (
	"sync"

	"gorm.io/gorm"
)

// gormStore composes the per-entity GORM repositories into a Store.
type gormStore struct {
	*connectionRepository
	*trialRepository
	*subscriptionRepository
	*logRepository
	*webhookEventRepository
}

// NewGormStore returns a Store backed by db.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{
		connectionRepository:   &connectionRepository{db: db},
		trialRepository:        &trialRepository{db: db},
		subscriptionRepository: &subscriptionRepository{db: db},
		logRepository:          &logRepository{db: db},
		webhookEventRepository: &webhookEventRepository{db: db},
	}
}

// Global store instance
var (
	globalStore Store
	storeOnce   sync.Once
)

// InitializeStore sets up the process-wide store. Later calls are no-ops.
func InitializeStore(db *gorm.DB) {
	storeOnce.Do(func() {
		globalStore = NewGormStore(db)
	})
}

// GetGlobalStore returns the store set by InitializeStore, or nil.
func GetGlobalStore() Store {
	return globalStore
}
