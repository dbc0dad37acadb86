package database

import (
	"testing"
)

func TestNewDatabase(t *testing.T) {
	tests := []struct {
		name             string
		databaseType     string
		connectionString string
		wantErr          bool
	}{
		{"memory", TypeMemory, "", false},
		{"sqlite in memory", TypeSQLite, ":memory:", false},
		{"npoint", TypeNpoint, "https://api.npoint.io/7b0e386d3ab7341478bf", false},
		{"npoint without url", TypeNpoint, "", true},
		{"redis bad url", TypeRedis, "localhost", true},
		{"unknown", "postgres", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := NewDatabase(tt.databaseType, tt.connectionString)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ds == nil {
				t.Fatal("expected non-nil database")
			}
			_ = ds.Close()
		})
	}
}
