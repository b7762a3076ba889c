package handler

import (
	"reflect"
	"testing"
)

func TestParseTimings(t *testing.T) {
	got, err := parseTimings("[0.5, 1.25, 2]")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if want := []float64{0.5, 1.25, 2}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if got, err := parseTimings("   "); err != nil || got != nil {
		t.Fatalf("expected blank input to yield nil, got %v, %v", got, err)
	}
	if _, err := parseTimings(`{"not":"an array"}`); err == nil {
		t.Fatal("expected non-array input to fail")
	}
}
