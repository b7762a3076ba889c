package repository

import (
	"errors"
	"testing"
)

func TestIsDuplicateKey(t *testing.T) {
	if !isDuplicateKey(errors.New("Error 1062 (23000): Duplicate entry 'a@x.com' for key 'uq_accounts_email'")) {
		t.Fatal("expected 1062 to classify as duplicate key")
	}
	if isDuplicateKey(errors.New("Error 1213 (40001): Deadlock found")) {
		t.Fatal("expected deadlock not to classify as duplicate key")
	}
	if isDuplicateKey(nil) {
		t.Fatal("expected nil not to classify")
	}
}

func TestIsDeadlock(t *testing.T) {
	if !isDeadlock(errors.New("Error 1213 (40001): Deadlock found when trying to get lock; try restarting transaction")) {
		t.Fatal("expected 1213 to classify as deadlock")
	}
	if isDeadlock(errors.New("Error 1062 (23000): Duplicate entry")) {
		t.Fatal("expected duplicate key not to classify as deadlock")
	}
	if isDeadlock(nil) {
		t.Fatal("expected nil not to classify")
	}
}
