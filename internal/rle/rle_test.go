package rle

import (
	"reflect"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		changes []Change
	}{
		{"empty", nil},
		{"single", []Change{{FlatIndex: 5, BlockID: 2}}},
		{"contiguous run", []Change{
			{FlatIndex: 10, BlockID: 1},
			{FlatIndex: 11, BlockID: 1},
			{FlatIndex: 12, BlockID: 1},
		}},
		{"unordered input coalesces", []Change{
			{FlatIndex: 12, BlockID: 1},
			{FlatIndex: 10, BlockID: 1},
			{FlatIndex: 11, BlockID: 1},
		}},
		{"different block ids break the run", []Change{
			{FlatIndex: 0, BlockID: 1},
			{FlatIndex: 1, BlockID: 2},
		}},
		{"non-contiguous indices break the run", []Change{
			{FlatIndex: 0, BlockID: 1},
			{FlatIndex: 5, BlockID: 1},
		}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			encoded := Encode(c.changes)
			decoded, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}

			want := append([]Change(nil), c.changes...)
			sortChanges(want)

			if !reflect.DeepEqual(decoded, want) {
				t.Errorf("round trip mismatch: got %+v, want %+v", decoded, want)
			}
		})
	}
}

func TestEncodeCapsRunsAt255(t *testing.T) {
	var changes []Change
	for i := 0; i < 300; i++ {
		changes = append(changes, Change{FlatIndex: uint32(i), BlockID: 7})
	}

	encoded := Encode(changes)
	if len(encoded)%entrySize != 0 {
		t.Fatalf("encoded length %d not a multiple of %d", len(encoded), entrySize)
	}
	if got := len(encoded) / entrySize; got != 2 {
		t.Fatalf("expected 2 entries for a 300-run (255 + 45), got %d", got)
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded) != 300 {
		t.Fatalf("expected 300 decoded changes, got %d", len(decoded))
	}
}

func TestDecodeRejectsMalformedLength(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	if err != ErrMalformed {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func sortChanges(c []Change) {
	for i := 1; i < len(c); i++ {
		for j := i; j > 0 && c[j].FlatIndex < c[j-1].FlatIndex; j-- {
			c[j], c[j-1] = c[j-1], c[j]
		}
	}
}
