package model

import (
	"testing"
	"time"
)

func TestBanIsActive(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	cases := []struct {
		name string
		ban  Ban
		want bool
	}{
		{"permanent", Ban{ExpiresAt: nil}, true},
		{"future expiry", Ban{ExpiresAt: &future}, true},
		{"past expiry", Ban{ExpiresAt: &past}, false},
		{"expires exactly now", Ban{ExpiresAt: &now}, false},
	}
	for _, tc := range cases {
		if got := tc.ban.IsActive(now); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
