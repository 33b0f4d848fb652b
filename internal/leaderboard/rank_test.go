package leaderboard

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"

	"github.com/montenegronyc/scoreboard/pkg/types"
)

func entries(pairs ...interface{}) []types.ScoreEntry {
	out := make([]types.ScoreEntry, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, types.ScoreEntry{Name: pairs[i].(string), Score: pairs[i+1].(int)})
	}
	return out
}

func TestRank_OrdersAndMarksLeader(t *testing.T) {
	got := Rank(entries("Beta", 95, "Alpha", 120))
	want := []types.ScoreEntry{
		{Name: "Alpha", Score: 120, IsLeader: true},
		{Name: "Beta", Score: 95},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Rank() mismatch (-want +got):\n%s", diff)
	}
}

func TestRank_AllZeroHasNoLeader(t *testing.T) {
	got := Rank(entries("Alpha", 0, "Beta", 0))
	for _, e := range got {
		if e.IsLeader {
			t.Errorf("%s marked leader with all scores zero", e.Name)
		}
	}
}

func TestRank_TiesAllLeadAndKeepInputOrder(t *testing.T) {
	got := Rank(entries("Gamma", 10, "Alpha", 50, "Beta", 50))
	want := []types.ScoreEntry{
		{Name: "Alpha", Score: 50, IsLeader: true},
		{Name: "Beta", Score: 50, IsLeader: true},
		{Name: "Gamma", Score: 10},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Rank() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Alpha", "Beta"}, Leaders(got)); diff != "" {
		t.Errorf("Leaders() mismatch (-want +got):\n%s", diff)
	}
}

func TestRank_ClearsStaleLeaderFlag(t *testing.T) {
	in := []types.ScoreEntry{
		{Name: "Alpha", Score: 1, IsLeader: true},
		{Name: "Beta", Score: 7},
	}
	got := Rank(in)
	if got[0].Name != "Beta" || !got[0].IsLeader {
		t.Errorf("first entry: got %+v, want Beta leader", got[0])
	}
	if got[1].IsLeader {
		t.Errorf("Alpha should no longer lead: %+v", got[1])
	}
}

func TestRank_Empty(t *testing.T) {
	if got := Rank(nil); len(got) != 0 {
		t.Errorf("Rank(nil) = %v, want empty", got)
	}
	if MaxScore(nil) != 0 {
		t.Error("MaxScore(nil) should be 0")
	}
}

// TestRank_Properties checks ordering, stability and the leader rule over
// randomly generated boards.
func TestRank_Properties(t *testing.T) {
	f := gofakeit.New(42)
	for round := 0; round < 200; round++ {
		n := f.IntRange(0, 12)
		in := make([]types.ScoreEntry, n)
		for i := range in {
			in[i] = types.ScoreEntry{
				Name:  f.Name(),
				Score: f.IntRange(0, 5),
			}
		}
		orig := append([]types.ScoreEntry(nil), in...)
		inputIndex := func(e types.ScoreEntry, from int) int {
			for i := from; i < len(orig); i++ {
				if orig[i].Name == e.Name && orig[i].Score == e.Score {
					return i
				}
			}
			return -1
		}

		got := Rank(in)
		best := MaxScore(orig)

		lastIdx := map[int]int{}
		for i, e := range got {
			if i > 0 && got[i-1].Score < e.Score {
				t.Fatalf("round %d: not descending at %d: %v", round, i, got)
			}
			wantLeader := best > 0 && e.Score == best
			if e.IsLeader != wantLeader {
				t.Fatalf("round %d: %s leader=%v, want %v (max %d)", round, e.Name, e.IsLeader, wantLeader, best)
			}
			from, ok := lastIdx[e.Score]
			if !ok {
				from = 0
			}
			idx := inputIndex(e, from)
			if idx < 0 {
				t.Fatalf("round %d: ties reordered for score %d: %v", round, e.Score, got)
			}
			lastIdx[e.Score] = idx + 1
		}
	}
}
