package model

import "testing"

func TestValidState(t *testing.T) {
	for _, s := range []string{StateNotCleared, StateCleared, StateFullCombo, StateAllPerfect} {
		if !ValidState(s) {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	for _, s := range []string{"", "nc", "X", "CLEARED"} {
		if ValidState(s) {
			t.Fatalf("expected %q to be invalid", s)
		}
	}
}
