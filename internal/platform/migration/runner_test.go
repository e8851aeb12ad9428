// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPgx5URL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"postgres scheme", "postgres://u:p@h:5432/db", "pgx5://u:p@h:5432/db"},
		{"postgresql scheme", "postgresql://u:p@h/db?sslmode=disable", "pgx5://u:p@h/db?sslmode=disable"},
		{"already pgx5", "pgx5://u:p@h/db", "pgx5://u:p@h/db"},
		{"unrelated scheme", "mysql://u@h/db", "mysql://u@h/db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pgx5URL(tt.in))
		})
	}
}
