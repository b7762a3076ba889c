package utils

import (
	"strings"
	"testing"
)

func TestNewBlobName(t *testing.T) {
	name, err := NewBlobName("My Song.mp3")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasSuffix(name, "My_Song.mp3") {
		t.Fatalf("expected sanitized original suffix, got %q", name)
	}
	if parts := strings.SplitN(name, "-", 3); len(parts) != 3 {
		t.Fatalf("expected ts-rand-name shape, got %q", name)
	}
	if strings.ContainsAny(name, "/\\ ") {
		t.Fatalf("expected no separators or spaces, got %q", name)
	}
}

func TestNewBlobNameStripsPath(t *testing.T) {
	name, err := NewBlobName("../../etc/passwd")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if strings.Contains(name, "..") || strings.Contains(name, "/") {
		t.Fatalf("expected path components stripped, got %q", name)
	}
}

func TestNewBlobNameCollisions(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		name, err := NewBlobName("clip.wav")
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if seen[name] {
			t.Fatalf("duplicate blob name %q", name)
		}
		seen[name] = true
	}
}
