package repository

import (
	"reflect"
	"testing"
)

func TestMergeIDs(t *testing.T) {
	got := MergeIDs([]uint64{3, 1, 2}, []uint64{2, 4, 1, 5})
	want := []uint64{3, 1, 2, 4, 5}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestMergeIDsIdempotent(t *testing.T) {
	existing := []uint64{1, 2, 3}
	added := []uint64{3, 4}

	once := MergeIDs(existing, added)
	twice := MergeIDs(once, added)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("re-merging the same ids changed the set: %v vs %v", once, twice)
	}
}

func TestMergeIDsDropsDuplicatesInInput(t *testing.T) {
	got := MergeIDs([]uint64{1, 1, 2}, []uint64{2, 2})
	want := []uint64{1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestMergeIDsEmpty(t *testing.T) {
	if got := MergeIDs(nil, nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
	if got := MergeIDs(nil, []uint64{7}); !reflect.DeepEqual(got, []uint64{7}) {
		t.Fatalf("expected [7], got %v", got)
	}
}
