package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5433", User: "bto", Password: "secret", DBName: "bto", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=bto password=secret dbname=bto sslmode=disable", cfg.DSN())
}

func TestSchemaCoversEveryTable(t *testing.T) {
	for _, table := range []string{"users", "projects", "applications", "registrations", "withdrawals", "enquiries"} {
		assert.True(t, strings.Contains(schema, "CREATE TABLE IF NOT EXISTS "+table+" ("), table)
	}
}
