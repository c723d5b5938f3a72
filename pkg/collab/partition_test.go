package collab

import (
	"fmt"
	"testing"
)

func TestOptimalBatchSize(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{1, 1},
		{10, 10},
		{25, 25},
		{26, 25},
		{50, 25},
		{51, 50},
		{200, 50},
		{201, 60},
		{500, 60},
		{501, 70},
		{5000, 70},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d", tt.n), func(t *testing.T) {
			if got := OptimalBatchSize(tt.n); got != tt.want {
				t.Errorf("OptimalBatchSize(%d) = %d, want %d", tt.n, got, tt.want)
			}
		})
	}
}

func TestNewPartition(t *testing.T) {
	ids := []string{"A1", "A2", "A3", "A4", "A5"}

	t.Run("even split with remainder", func(t *testing.T) {
		p := NewPartition(ids, 2)
		if len(p) != 3 {
			t.Fatalf("expected 3 batches, got %d", len(p))
		}
		if len(p[0]) != 2 || len(p[1]) != 2 || len(p[2]) != 1 {
			t.Errorf("unexpected batch sizes: %d, %d, %d", len(p[0]), len(p[1]), len(p[2]))
		}
	})

	t.Run("preserves input order", func(t *testing.T) {
		p := NewPartition(ids, 2)
		var flat []string
		for _, batch := range p {
			flat = append(flat, batch...)
		}
		for i, id := range flat {
			if id != ids[i] {
				t.Errorf("position %d: got %s, want %s", i, id, ids[i])
			}
		}
	})

	t.Run("clamps to OR clause cap", func(t *testing.T) {
		many := make([]string, 250)
		for i := range many {
			many[i] = fmt.Sprintf("A%d", i)
		}
		p := NewPartition(many, 150)
		if len(p) != 3 {
			t.Fatalf("expected 3 batches at cap %d, got %d", MaxBatchSize, len(p))
		}
		if len(p[0]) != MaxBatchSize {
			t.Errorf("first batch has %d ids, want %d", len(p[0]), MaxBatchSize)
		}
	})

	t.Run("empty and invalid inputs", func(t *testing.T) {
		if p := NewPartition(nil, 10); p != nil {
			t.Errorf("expected nil partition for empty ids, got %v", p)
		}
		if p := NewPartition(ids, 0); p != nil {
			t.Errorf("expected nil partition for zero batch size, got %v", p)
		}
	})
}

func TestPartitionPairs(t *testing.T) {
	tests := []struct {
		batches int
		want    int
	}{
		{1, 1},
		{2, 3},
		{3, 6},
		{5, 15},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("batches=%d", tt.batches), func(t *testing.T) {
			p := make(Partition, tt.batches)
			for i := range p {
				p[i] = []string{fmt.Sprintf("A%d", i)}
			}
			pairs := p.Pairs()
			if len(pairs) != tt.want {
				t.Fatalf("expected %d pairs, got %d", tt.want, len(pairs))
			}
			for _, bp := range pairs {
				if bp.A > bp.B {
					t.Errorf("pair (%d, %d) not canonical", bp.A, bp.B)
				}
			}
		})
	}
}
