package gameid

import (
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
)

func TestGenerate(t *testing.T) {
	id := Generate()

	if len(id) != Length {
		t.Errorf("expected %d characters, got %d", Length, len(id))
	}
	if err := Validate(id); err != nil {
		t.Errorf("generated ID failed validation: %v", err)
	}
}

func TestGenerateUnique(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := Generate()
		if ids[id] {
			t.Errorf("duplicate ID generated: %s", id)
		}
		ids[id] = true
	}
}

func TestGenerateTimeSorted(t *testing.T) {
	clock := quartz.NewMock(t)
	clock.Set(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	gen := NewGenerator(nil, clock)

	var ids []string
	for i := 0; i < 10; i++ {
		ids = append(ids, gen.Generate())
		clock.Advance(time.Millisecond)
	}

	for i := 1; i < len(ids); i++ {
		if strings.Compare(ids[i-1], ids[i]) >= 0 {
			t.Errorf("IDs not sorted: %s >= %s", ids[i-1], ids[i])
		}
	}
}

func TestGeneratorDeterministic(t *testing.T) {
	clock := quartz.NewMock(t)
	clock.Set(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	a := NewGenerator(newSequence(1, 2, 3, 4, 5, 6, 7, 8, 9, 10), clock).Generate()
	b := NewGenerator(newSequence(1, 2, 3, 4, 5, 6, 7, 8, 9, 10), clock).Generate()
	if a != b {
		t.Errorf("same clock and rand source should give the same id: %s != %s", a, b)
	}

	c := NewGenerator(newSequence(9, 9, 9, 9, 9, 9, 9, 9, 9, 9), clock).Generate()
	if a == c {
		t.Error("different rand sources should give different ids")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid ID", "01h5n0et5q6mt3v7ms1234abcd", false},
		{"too short", "01h5n0et5q6mt3v7ms123", true},
		{"too long", "01h5n0et5q6mt3v7ms1234abcdef", true},
		{"first char too high", "81h5n0et5q6mt3v7ms1234abcd", true},
		{"invalid character", "01h5n0et5q6mt3v7ms1234abci", true},
		{"uppercase not allowed", "01H5N0ET5Q6MT3V7MS1234ABCD", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

type sequence struct {
	values []int
	index  int
}

func newSequence(values ...int) *sequence {
	return &sequence{values: values}
}

func (s *sequence) IntN(n int) int {
	if s.index >= len(s.values) {
		return 0
	}
	v := s.values[s.index] % n
	s.index++
	return v
}
