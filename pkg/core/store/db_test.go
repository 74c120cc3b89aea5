package store

import (
	"testing"
	"time"
)

func TestPoolConfigDefaults(t *testing.T) {
	config, err := poolConfig("postgres://user:pw@localhost:5432/quantfacts")
	if err != nil {
		t.Fatalf("poolConfig failed: %v", err)
	}
	if config.MaxConns != defaultMaxConns {
		t.Errorf("Expected MaxConns %d, got %d", defaultMaxConns, config.MaxConns)
	}
	if config.ConnConfig.ConnectTimeout != defaultConnectTimeout {
		t.Errorf("Expected ConnectTimeout %v, got %v", defaultConnectTimeout, config.ConnConfig.ConnectTimeout)
	}
}

func TestPoolConfigDSNOverrides(t *testing.T) {
	config, err := poolConfig("postgres://user:pw@localhost:5432/quantfacts?pool_max_conns=2&connect_timeout=5")
	if err != nil {
		t.Fatalf("poolConfig failed: %v", err)
	}
	if config.MaxConns != 2 {
		t.Errorf("Expected DSN pool_max_conns 2 kept, got %d", config.MaxConns)
	}
	if config.ConnConfig.ConnectTimeout != 5*time.Second {
		t.Errorf("Expected DSN connect_timeout 5s kept, got %v", config.ConnConfig.ConnectTimeout)
	}
}

func TestPoolConfigMalformed(t *testing.T) {
	if _, err := poolConfig("://not-a-dsn"); err == nil {
		t.Error("Expected error for malformed connection string")
	}
}
