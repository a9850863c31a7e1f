package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructDatabaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		baseURL  string
		dbName   string
		expected string
	}{
		{
			name:     "no database name returns base",
			baseURL:  "postgres://u:p@db:5432",
			expected: "postgres://u:p@db:5432",
		},
		{
			name:     "appends name and sslmode",
			baseURL:  "postgres://u:p@db:5432/",
			dbName:   "prizepool",
			expected: "postgres://u:p@db:5432/prizepool?sslmode=disable",
		},
		{
			name:     "keeps existing query",
			baseURL:  "postgres://u:p@db:5432?connect_timeout=5",
			dbName:   "prizepool",
			expected: "postgres://u:p@db:5432/prizepool?connect_timeout=5&sslmode=disable",
		},
		{
			name:     "keeps explicit sslmode",
			baseURL:  "postgres://u:p@db:5432?sslmode=require",
			dbName:   "prizepool",
			expected: "postgres://u:p@db:5432/prizepool?sslmode=require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, ConstructDatabaseURL(tt.baseURL, tt.dbName))
		})
	}
}
