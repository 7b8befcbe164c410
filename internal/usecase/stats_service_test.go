package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tractorstats/tractor-stats/internal/domain/gamerecord"
	"github.com/tractorstats/tractor-stats/internal/domain/leaderboard"
	"github.com/tractorstats/tractor-stats/internal/platform/cache"
	"github.com/tractorstats/tractor-stats/internal/platform/logging"
)

type stubSource struct {
	records []gamerecord.Record
	err     error
	calls   atomic.Int64
}

func (s *stubSource) List(context.Context) ([]gamerecord.Record, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]gamerecord.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

func record(id string, decks int, attackers, defenders []string, points int, result string) gamerecord.Record {
	parsed, err := gamerecord.ParseResult(result)
	if err != nil {
		panic(fmt.Sprintf("bad fixture result %q: %v", result, err))
	}
	return gamerecord.Record{
		ID:        id,
		Decks:     decks,
		Attackers: attackers,
		Defenders: defenders,
		Points:    points,
		Result:    parsed,
	}
}

func newTestStatsService(source gamerecord.Source, minSample int) *StatsService {
	return NewStatsService(source, nil, StatsConfig{MinSampleSize: minSample}, logging.NewNop())
}

func TestStatsServiceSnapshotRejectsUnknownDeckMode(t *testing.T) {
	t.Parallel()

	service := newTestStatsService(&stubSource{}, 1)

	if _, err := service.Snapshot(context.Background(), 4); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for deck mode 4, got %v", err)
	}
}

func TestStatsServiceSnapshotSourceFailure(t *testing.T) {
	t.Parallel()

	service := newTestStatsService(&stubSource{err: errors.New("sheet timeout")}, 1)

	_, err := service.Snapshot(context.Background(), gamerecord.DecksTwo)
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}

func TestStatsServiceEmptyRecordSet(t *testing.T) {
	t.Parallel()

	service := newTestStatsService(&stubSource{}, 1)

	snapshot, err := service.Snapshot(context.Background(), gamerecord.DecksTwo)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snapshot.Global.TotalGames != 0 {
		t.Fatalf("expected zero games, got %d", snapshot.Global.TotalGames)
	}
	if len(snapshot.Players) != 0 {
		t.Fatalf("expected no players, got %d", len(snapshot.Players))
	}
	if len(snapshot.Boards) != len(leaderboard.AllCategories) {
		t.Fatalf("expected %d boards, got %d", len(leaderboard.AllCategories), len(snapshot.Boards))
	}
	for _, board := range snapshot.Boards {
		if len(board.Entries) != 0 {
			t.Fatalf("board %s: expected no entries, got %d", board.Category, len(board.Entries))
		}
	}
}

func TestStatsServiceSkipsMalformedRecords(t *testing.T) {
	t.Parallel()

	source := &stubSource{records: []gamerecord.Record{
		record("g1", 2, []string{"alice"}, []string{"bob"}, 80, "A+1"),
		{ID: "bad", Decks: 2, Attackers: []string{"alice"}, Defenders: []string{"bob"}, Points: gamerecord.PointsUnknown},
		record("g2", 2, []string{"carol"}, []string{"dave"}, 40, "D+2"),
	}}
	service := newTestStatsService(source, 1)

	snapshot, err := service.Snapshot(context.Background(), gamerecord.DecksTwo)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snapshot.SkippedRecords != 1 {
		t.Fatalf("expected 1 skipped record, got %d", snapshot.SkippedRecords)
	}
	if snapshot.Global.TotalGames != 2 {
		t.Fatalf("expected 2 valid games, got %d", snapshot.Global.TotalGames)
	}
}

func TestStatsServiceFiltersByDeckMode(t *testing.T) {
	t.Parallel()

	source := &stubSource{records: []gamerecord.Record{
		record("g1", 2, []string{"alice"}, []string{"bob"}, 80, "A+1"),
		record("g2", 3, []string{"alice"}, []string{"bob"}, 120, "A+3"),
	}}
	service := newTestStatsService(source, 1)

	two, err := service.Snapshot(context.Background(), gamerecord.DecksTwo)
	if err != nil {
		t.Fatalf("Snapshot(2): %v", err)
	}
	three, err := service.Snapshot(context.Background(), gamerecord.DecksThree)
	if err != nil {
		t.Fatalf("Snapshot(3): %v", err)
	}

	if two.Global.TotalGames != 1 || three.Global.TotalGames != 1 {
		t.Fatalf("expected one game per deck mode, got %d and %d", two.Global.TotalGames, three.Global.TotalGames)
	}
	if two.Global.AveragePoints != 80 {
		t.Fatalf("expected avg 80 points for two decks, got %v", two.Global.AveragePoints)
	}
	if three.Global.AveragePoints != 120 {
		t.Fatalf("expected avg 120 points for three decks, got %v", three.Global.AveragePoints)
	}
}

func TestStatsServicePlayerAggregation(t *testing.T) {
	t.Parallel()

	// alice attacks twice (80 and 40 points, one win one loss) and defends
	// once alongside dealer dave, conceding 60.
	source := &stubSource{records: []gamerecord.Record{
		record("g1", 2, []string{"alice", "bob"}, []string{"carol", "dave"}, 80, "A+2"),
		record("g2", 2, []string{"alice", "carol"}, []string{"bob", "dave"}, 40, "D+1"),
		record("g3", 2, []string{"bob", "carol"}, []string{"dave", "alice"}, 60, "D+3"),
	}}
	service := newTestStatsService(source, 1)

	stats, err := service.PlayerStats(context.Background(), gamerecord.DecksTwo, "alice")
	if err != nil {
		t.Fatalf("PlayerStats: %v", err)
	}

	if stats.GamesPlayed != 3 {
		t.Fatalf("expected 3 games, got %d", stats.GamesPlayed)
	}
	if stats.Wins != 2 {
		t.Fatalf("expected 2 wins (g1 attack, g3 defend), got %d", stats.Wins)
	}
	if stats.AttackingGames != 2 || stats.AttackingAvgPoints != 60 {
		t.Fatalf("expected 2 attacking games avg 60, got %d avg %v", stats.AttackingGames, stats.AttackingAvgPoints)
	}
	if stats.DefendingGames != 1 || stats.DefendingConcededAvg != 60 {
		t.Fatalf("expected 1 defending game conceding 60, got %d avg %v", stats.DefendingGames, stats.DefendingConcededAvg)
	}
	if stats.DefendingDealerGames != 0 {
		t.Fatalf("alice was not dealer in g3, got %d dealer games", stats.DefendingDealerGames)
	}
	if stats.DefendingTeammateGames != 1 {
		t.Fatalf("expected 1 defending teammate game, got %d", stats.DefendingTeammateGames)
	}

	// Level changes: +2 (g1), -1 (g2), +3 (g3 defending a D+3).
	want := float64(2-1+3) / 3
	if stats.AvgLevelChange != want {
		t.Fatalf("expected avg level change %v, got %v", want, stats.AvgLevelChange)
	}
}

func TestStatsServiceUnknownPlayer(t *testing.T) {
	t.Parallel()

	source := &stubSource{records: []gamerecord.Record{
		record("g1", 2, []string{"alice"}, []string{"bob"}, 80, "A+1"),
	}}
	service := newTestStatsService(source, 1)

	if _, err := service.PlayerStats(context.Background(), gamerecord.DecksTwo, "mallory"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent player, got %v", err)
	}
}

func TestStatsServiceOrderIndependence(t *testing.T) {
	t.Parallel()

	records := []gamerecord.Record{
		record("g1", 2, []string{"alice", "bob"}, []string{"carol", "dave"}, 80, "A+2"),
		record("g2", 2, []string{"carol", "dave"}, []string{"alice", "bob"}, 35, "D+1"),
		record("g3", 2, []string{"alice", "carol"}, []string{"bob", "dave"}, 100, "A+3"),
		record("g4", 2, []string{"bob", "dave"}, []string{"alice", "carol"}, 55, "Draw"),
		record("g5", 2, []string{"dave", "alice"}, []string{"carol", "bob"}, 70, "D+2"),
	}

	base, err := newTestStatsService(&stubSource{records: records}, 1).Snapshot(context.Background(), gamerecord.DecksTwo)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 5; trial++ {
		shuffled := make([]gamerecord.Record, len(records))
		copy(shuffled, records)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, err := newTestStatsService(&stubSource{records: shuffled}, 1).Snapshot(context.Background(), gamerecord.DecksTwo)
		if err != nil {
			t.Fatalf("trial %d: Snapshot: %v", trial, err)
		}

		if len(got.Players) != len(base.Players) {
			t.Fatalf("trial %d: player count %d != %d", trial, len(got.Players), len(base.Players))
		}
		for i := range base.Players {
			if got.Players[i] != base.Players[i] {
				t.Fatalf("trial %d: player %d differs: %+v != %+v", trial, i, got.Players[i], base.Players[i])
			}
		}
		for i := range base.Boards {
			if len(got.Boards[i].Entries) != len(base.Boards[i].Entries) {
				t.Fatalf("trial %d: board %s entry count differs", trial, base.Boards[i].Category)
			}
			for j := range base.Boards[i].Entries {
				if got.Boards[i].Entries[j] != base.Boards[i].Entries[j] {
					t.Fatalf("trial %d: board %s entry %d differs: %+v != %+v",
						trial, base.Boards[i].Category, j, got.Boards[i].Entries[j], base.Boards[i].Entries[j])
				}
			}
		}
	}
}

func TestStatsServiceWinRateBoardOrdering(t *testing.T) {
	t.Parallel()

	// alice wins both games, bob loses both.
	source := &stubSource{records: []gamerecord.Record{
		record("g1", 2, []string{"alice"}, []string{"bob"}, 90, "A+2"),
		record("g2", 2, []string{"bob"}, []string{"alice"}, 30, "D+1"),
	}}
	service := newTestStatsService(source, 1)

	board, err := service.Leaderboard(context.Background(), gamerecord.DecksTwo, leaderboard.CategoryWinRate)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(board.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(board.Entries))
	}
	if board.Entries[0].Player != "alice" || board.Entries[0].Rank != 1 || board.Entries[0].Value != 1 {
		t.Fatalf("unexpected leader: %+v", board.Entries[0])
	}
	if board.Entries[1].Player != "bob" || board.Entries[1].Rank != 2 || board.Entries[1].Value != 0 {
		t.Fatalf("unexpected runner-up: %+v", board.Entries[1])
	}
}

func TestStatsServiceMinSampleFiltering(t *testing.T) {
	t.Parallel()

	// alice plays 5 games, eve only 1. Rate boards drop eve; the total wins
	// board keeps her.
	records := make([]gamerecord.Record, 0, 6)
	for i := 0; i < 5; i++ {
		records = append(records, record(fmt.Sprintf("g%d", i), 2, []string{"alice"}, []string{"bob"}, 60, "A+1"))
	}
	records = append(records, record("g5", 2, []string{"eve"}, []string{"bob"}, 20, "D+1"))

	service := newTestStatsService(&stubSource{records: records}, 5)

	winRate, err := service.Leaderboard(context.Background(), gamerecord.DecksTwo, leaderboard.CategoryWinRate)
	if err != nil {
		t.Fatalf("Leaderboard(win_rate): %v", err)
	}
	for _, e := range winRate.Entries {
		if e.Player == "eve" {
			t.Fatalf("eve has 1 game and must not appear on the win rate board")
		}
	}

	totalWins, err := service.Leaderboard(context.Background(), gamerecord.DecksTwo, leaderboard.CategoryTotalWins)
	if err != nil {
		t.Fatalf("Leaderboard(total_wins): %v", err)
	}
	foundEve := false
	for _, e := range totalWins.Entries {
		if e.Player == "eve" {
			foundEve = true
		}
	}
	if !foundEve {
		t.Fatalf("total wins board must include every participating player")
	}
}

func TestStatsServiceUnknownLeaderboardCategory(t *testing.T) {
	t.Parallel()

	service := newTestStatsService(&stubSource{}, 1)

	if _, err := service.Leaderboard(context.Background(), gamerecord.DecksTwo, "longest_streak"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown category, got %v", err)
	}
}

func TestStatsServiceResultBreakdown(t *testing.T) {
	t.Parallel()

	source := &stubSource{records: []gamerecord.Record{
		record("g1", 2, []string{"alice"}, []string{"bob"}, 80, "A+1"),
		record("g2", 2, []string{"alice"}, []string{"bob"}, 85, "A+1"),
		record("g3", 2, []string{"alice"}, []string{"bob"}, 55, "Draw"),
	}}
	service := newTestStatsService(source, 1)

	global, err := service.GlobalStats(context.Background(), gamerecord.DecksTwo)
	if err != nil {
		t.Fatalf("GlobalStats: %v", err)
	}
	if len(global.Results) != 2 {
		t.Fatalf("expected 2 result buckets, got %d", len(global.Results))
	}
	if global.Results[0].Result != "A+1" || global.Results[0].Count != 2 {
		t.Fatalf("expected A+1 x2 first, got %+v", global.Results[0])
	}
	if global.Results[0].Color != "#CCE5FF" {
		t.Fatalf("unexpected A+1 color %q", global.Results[0].Color)
	}
	if global.Results[1].Result != "Draw" || global.Results[1].Color != "#808080" {
		t.Fatalf("unexpected draw bucket %+v", global.Results[1])
	}
}

func TestStatsServiceSnapshotCaching(t *testing.T) {
	t.Parallel()

	source := &stubSource{records: []gamerecord.Record{
		record("g1", 2, []string{"alice"}, []string{"bob"}, 80, "A+1"),
	}}
	store := cache.NewStore(time.Minute)
	service := NewStatsService(source, store, StatsConfig{MinSampleSize: 1}, logging.NewNop())

	ctx := context.Background()
	if _, err := service.Snapshot(ctx, gamerecord.DecksTwo); err != nil {
		t.Fatalf("first Snapshot: %v", err)
	}
	if _, err := service.Snapshot(ctx, gamerecord.DecksTwo); err != nil {
		t.Fatalf("second Snapshot: %v", err)
	}
	if got := source.calls.Load(); got != 1 {
		t.Fatalf("expected a single source read, got %d", got)
	}

	service.Invalidate(ctx)
	if _, err := service.Snapshot(ctx, gamerecord.DecksTwo); err != nil {
		t.Fatalf("Snapshot after Invalidate: %v", err)
	}
	if got := source.calls.Load(); got != 2 {
		t.Fatalf("expected recompute after Invalidate, got %d source reads", got)
	}
}
