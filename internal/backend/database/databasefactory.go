package database

import (
	"fmt"
	"log/slog"
)

const (
	TypeNpoint = "npoint"
	TypeRedis  = "redis"
	TypeSQLite = "sqlite"
	TypeMemory = "memory"
)

// SupportedTypes lists the accepted values for the store type setting
func SupportedTypes() []string {
	return []string{TypeNpoint, TypeRedis, TypeSQLite, TypeMemory}
}

func NewDatabase(databaseType, connectionString string) (database DocumentService, err error) {
	switch databaseType {
	case TypeNpoint:
		database, err = NewNpointDatabase(connectionString, nil)
	case TypeRedis:
		database, err = NewRedisDatabase(connectionString)
	case TypeSQLite:
		database, err = NewSQLiteDatabase(connectionString)
	case TypeMemory:
		database = NewMemoryDatabase()
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", databaseType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s database: %w", databaseType, err)
	}

	slog.Info("document store initialized", "type", databaseType)
	return database, nil
}
