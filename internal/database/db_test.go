package database

import (
	"strings"
	"testing"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN("app", "s3cret", "db.local", "3306", "rhythm")
	if !strings.HasPrefix(dsn, "app:s3cret@tcp(db.local:3306)/rhythm?") {
		t.Fatalf("unexpected dsn prefix: %q", dsn)
	}
	for _, opt := range []string{"parseTime=true", "loc=UTC", "charset=utf8mb4", "maxAllowedPacket=0"} {
		if !strings.Contains(dsn, opt) {
			t.Fatalf("dsn %q missing option %q", dsn, opt)
		}
	}
}

func TestBuildDSNEmptyPassword(t *testing.T) {
	dsn := buildDSN("root", "", "localhost", "3306", "rhythm")
	if !strings.HasPrefix(dsn, "root@tcp(") {
		t.Fatalf("expected passwordless auth part, got %q", dsn)
	}
	if strings.Contains(dsn, "root:@") {
		t.Fatalf("expected no colon for empty password, got %q", dsn)
	}
}
