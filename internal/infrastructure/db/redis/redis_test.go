package redis

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestConnect_RequiresAddr(t *testing.T) {
	if _, err := Connect(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for empty address")
	}
}

func TestConnect_UnreachableServer(t *testing.T) {
	_, err := Connect(context.Background(), Config{Addr: "127.0.0.1:1", Timeout: 100 * time.Millisecond})
	if err == nil || !strings.Contains(err.Error(), "redis ping 127.0.0.1:1") {
		t.Fatalf("Connect error = %v", err)
	}
}

func TestPing_ReportsAddress(t *testing.T) {
	err := Ping(unreachableClient(t))(context.Background())
	if err == nil || !strings.Contains(err.Error(), "127.0.0.1:1") {
		t.Fatalf("Ping error = %v", err)
	}
}
