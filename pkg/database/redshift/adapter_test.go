package redshift

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/redbco/redb-connect/pkg/adapter"
)

func TestConnString(t *testing.T) {
	got := ConnString(adapter.ConnectionConfig{
		Host:         "cluster.example.com",
		Username:     "admin",
		Password:     `it's`,
		DatabaseName: "dev",
		SSL:          true,
		Timeout:      10 * time.Second,
	})
	assert.Equal(t, `host='cluster.example.com' port=5439 user='admin' password='it\'s' dbname='dev' sslmode=require connect_timeout=10`, got)
}

func TestConnStringExplicitMode(t *testing.T) {
	got := ConnString(adapter.ConnectionConfig{Host: "h", Port: 5440, SSLMode: "verify-full"})
	assert.Contains(t, got, "port=5440")
	assert.Contains(t, got, "sslmode=verify-full")
}
