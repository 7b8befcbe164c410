package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/tractorstats/tractor-stats/internal/domain/gamerecord"
	"github.com/tractorstats/tractor-stats/internal/domain/leaderboard"
	"github.com/tractorstats/tractor-stats/internal/domain/playerstats"
	"github.com/tractorstats/tractor-stats/internal/domain/scoring"
	"github.com/tractorstats/tractor-stats/internal/platform/cache"
	"github.com/tractorstats/tractor-stats/internal/platform/logging"
)

const snapshotKeyPrefix = "snapshot:"

type StatsConfig struct {
	MinSampleSize int
	DeckModes     []int
	Indicators    scoring.IndicatorConfig
}

func NormalizeStatsConfig(cfg StatsConfig) StatsConfig {
	if cfg.MinSampleSize < 1 {
		cfg.MinSampleSize = 5
	}
	if len(cfg.DeckModes) == 0 {
		cfg.DeckModes = gamerecord.DeckModes
	}
	cfg.Indicators = scoring.NormalizeIndicatorConfig(cfg.Indicators)
	return cfg
}

// ResultCount is one slice of the result distribution chart.
type ResultCount struct {
	Result string
	Count  int
	Color  string
}

type GlobalStats struct {
	Decks          int
	TotalGames     int
	AveragePoints  float64
	Results        []ResultCount
	SkippedRecords int
}

// Snapshot is the full derived view for one deck mode: every entity in it is
// a pure function of the record set at computation time and is replaced, not
// mutated, on refresh.
type Snapshot struct {
	Decks          int
	GeneratedAt    time.Time
	SkippedRecords int
	Global         GlobalStats
	Players        []playerstats.Stats
	Boards         []leaderboard.Board

	records     []gamerecord.Record
	playerIndex map[string]playerstats.Stats
}

// StatsService aggregates game records into global statistics, per-player
// statistics and leaderboards. Computation is stateless; a TTL cache keeps
// concurrent dashboard views from recomputing the same snapshot.
type StatsService struct {
	source gamerecord.Source
	cache  *cache.Store
	cfg    StatsConfig
	logger *logging.Logger
}

func NewStatsService(source gamerecord.Source, store *cache.Store, cfg StatsConfig, logger *logging.Logger) *StatsService {
	if logger == nil {
		logger = logging.Default()
	}

	return &StatsService{
		source: source,
		cache:  store,
		cfg:    NormalizeStatsConfig(cfg),
		logger: logger,
	}
}

func (s *StatsService) DeckModes() []int {
	out := make([]int, len(s.cfg.DeckModes))
	copy(out, s.cfg.DeckModes)
	return out
}

func (s *StatsService) validDecks(decks int) bool {
	for _, mode := range s.cfg.DeckModes {
		if mode == decks {
			return true
		}
	}
	return false
}

func snapshotKey(decks int) string {
	return fmt.Sprintf("%s%d", snapshotKeyPrefix, decks)
}

func (s *StatsService) Snapshot(ctx context.Context, decks int) (*Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.Snapshot")
	defer span.End()

	if !s.validDecks(decks) {
		return nil, fmt.Errorf("%w: unsupported deck mode %d", ErrInvalidInput, decks)
	}

	if s.cache == nil {
		return s.compute(ctx, decks)
	}

	value, err := s.cache.GetOrLoad(ctx, snapshotKey(decks), func(ctx context.Context) (any, error) {
		return s.compute(ctx, decks)
	})
	if err != nil {
		return nil, err
	}

	snapshot, ok := value.(*Snapshot)
	if !ok {
		return nil, fmt.Errorf("unexpected cache entry type %T for deck mode %d", value, decks)
	}

	return snapshot, nil
}

// Invalidate drops every cached snapshot so the next view recomputes from
// source records.
func (s *StatsService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.DeletePrefix(ctx, snapshotKeyPrefix)
}

func (s *StatsService) GlobalStats(ctx context.Context, decks int) (GlobalStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.GlobalStats")
	defer span.End()

	snapshot, err := s.Snapshot(ctx, decks)
	if err != nil {
		return GlobalStats{}, err
	}
	return snapshot.Global, nil
}

func (s *StatsService) ListPlayers(ctx context.Context, decks int) ([]playerstats.Stats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.ListPlayers")
	defer span.End()

	snapshot, err := s.Snapshot(ctx, decks)
	if err != nil {
		return nil, err
	}
	return snapshot.Players, nil
}

func (s *StatsService) PlayerStats(ctx context.Context, decks int, player string) (playerstats.Stats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.PlayerStats")
	defer span.End()

	if player == "" {
		return playerstats.Stats{}, fmt.Errorf("%w: player is required", ErrInvalidInput)
	}

	snapshot, err := s.Snapshot(ctx, decks)
	if err != nil {
		return playerstats.Stats{}, err
	}

	stats, ok := snapshot.playerIndex[player]
	if !ok {
		return playerstats.Stats{}, fmt.Errorf("%w: player=%s decks=%d", ErrNotFound, player, decks)
	}
	return stats, nil
}

func (s *StatsService) Leaderboards(ctx context.Context, decks int) ([]leaderboard.Board, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.Leaderboards")
	defer span.End()

	snapshot, err := s.Snapshot(ctx, decks)
	if err != nil {
		return nil, err
	}
	return snapshot.Boards, nil
}

func (s *StatsService) Leaderboard(ctx context.Context, decks int, category leaderboard.Category) (leaderboard.Board, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.Leaderboard")
	defer span.End()

	if !leaderboard.ValidCategory(category) {
		return leaderboard.Board{}, fmt.Errorf("%w: leaderboard category=%s", ErrNotFound, category)
	}

	snapshot, err := s.Snapshot(ctx, decks)
	if err != nil {
		return leaderboard.Board{}, err
	}

	for _, board := range snapshot.Boards {
		if board.Category == category {
			return board, nil
		}
	}

	return leaderboard.Board{}, fmt.Errorf("%w: leaderboard category=%s", ErrNotFound, category)
}

type playerAccumulator struct {
	games int
	wins  int

	attackPoints float64
	attackGames  int

	defendPoints float64
	defendGames  int

	defendTeammatePoints float64
	defendTeammateGames  int

	defendDealerPoints float64
	defendDealerGames  int

	levelChangeSum int
}

func (s *StatsService) compute(ctx context.Context, decks int) (*Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.compute")
	defer span.End()

	all, err := s.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list game records: %v", ErrDependencyUnavailable, err)
	}

	skipped := 0
	records := make([]gamerecord.Record, 0, len(all))
	for _, record := range all {
		if vErr := record.Validate(); vErr != nil {
			skipped++
			s.logger.DebugContext(ctx, "skipping malformed game record", "record_id", record.ID, "error", vErr)
			continue
		}
		if record.Decks != decks {
			continue
		}
		records = append(records, record)
	}

	accumulators := make(map[string]*playerAccumulator)
	acc := func(player string) *playerAccumulator {
		a, ok := accumulators[player]
		if !ok {
			a = &playerAccumulator{}
			accumulators[player] = a
		}
		return a
	}

	totalPoints := 0
	resultCounts := make(map[string]int)
	for _, record := range records {
		totalPoints += record.Points
		resultCounts[record.Result.String()]++

		for _, player := range record.Attackers {
			a := acc(player)
			a.games++
			a.attackPoints += float64(record.Points)
			a.attackGames++
			a.levelChangeSum += record.LevelChangeFor(player)
			if record.Won(player) {
				a.wins++
			}
		}
		dealer := record.Dealer()
		for _, player := range record.Defenders {
			a := acc(player)
			a.games++
			a.defendPoints += float64(record.Points)
			a.defendGames++
			if player == dealer {
				a.defendDealerPoints += float64(record.Points)
				a.defendDealerGames++
			} else {
				a.defendTeammatePoints += float64(record.Points)
				a.defendTeammateGames++
			}
			a.levelChangeSum += record.LevelChangeFor(player)
			if record.Won(player) {
				a.wins++
			}
		}
	}

	players := make([]playerstats.Stats, 0, len(accumulators))
	playerIndex := make(map[string]playerstats.Stats, len(accumulators))
	for player, a := range accumulators {
		stats := playerstats.Stats{
			Player:                 player,
			GamesPlayed:            a.games,
			Wins:                   a.wins,
			AttackingGames:         a.attackGames,
			DefendingGames:         a.defendGames,
			DefendingTeammateGames: a.defendTeammateGames,
			DefendingDealerGames:   a.defendDealerGames,
			LevelChangeGames:       a.games,
		}
		if a.games > 0 {
			stats.WinRate = float64(a.wins) / float64(a.games)
			stats.AvgLevelChange = float64(a.levelChangeSum) / float64(a.games)
		}
		if a.attackGames > 0 {
			stats.AttackingAvgPoints = a.attackPoints / float64(a.attackGames)
		}
		if a.defendGames > 0 {
			stats.DefendingConcededAvg = a.defendPoints / float64(a.defendGames)
		}
		if a.defendTeammateGames > 0 {
			stats.DefendingTeammateConcededAvg = a.defendTeammatePoints / float64(a.defendTeammateGames)
		}
		if a.defendDealerGames > 0 {
			stats.DefendingDealerConcededAvg = a.defendDealerPoints / float64(a.defendDealerGames)
		}
		players = append(players, stats)
		playerIndex[player] = stats
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Player < players[j].Player })

	snapshot := &Snapshot{
		Decks:          decks,
		GeneratedAt:    time.Now().UTC(),
		SkippedRecords: skipped,
		Players:        players,
		Boards:         s.buildBoards(players),
		records:        records,
		playerIndex:    playerIndex,
	}
	snapshot.Global = GlobalStats{
		Decks:          decks,
		TotalGames:     len(records),
		Results:        buildResultBreakdown(resultCounts),
		SkippedRecords: skipped,
	}
	if len(records) > 0 {
		snapshot.Global.AveragePoints = float64(totalPoints) / float64(len(records))
	}

	s.logger.InfoContext(ctx, "aggregation snapshot computed",
		"decks", decks,
		"games", len(records),
		"players", len(players),
		"skipped_records", skipped,
	)

	return snapshot, nil
}

func (s *StatsService) buildBoards(players []playerstats.Stats) []leaderboard.Board {
	boards := make([]leaderboard.Board, len(leaderboard.AllCategories))

	workers := pool.New().WithMaxGoroutines(4)
	for i, category := range leaderboard.AllCategories {
		workers.Go(func() {
			boards[i] = leaderboard.Build(
				category,
				s.cfg.MinSampleSize,
				s.candidates(category, players),
				s.cfg.Indicators,
			)
		})
	}
	workers.Wait()

	return boards
}

func (s *StatsService) candidates(category leaderboard.Category, players []playerstats.Stats) []leaderboard.Candidate {
	out := make([]leaderboard.Candidate, 0, len(players))
	for _, stats := range players {
		var value float64
		var games int

		switch category {
		case leaderboard.CategoryAttackingPoints:
			value, games = stats.AttackingAvgPoints, stats.AttackingGames
		case leaderboard.CategoryDefendingConceded:
			value, games = stats.DefendingConcededAvg, stats.DefendingGames
		case leaderboard.CategoryDefendingConcededTeammate:
			value, games = stats.DefendingTeammateConcededAvg, stats.DefendingTeammateGames
		case leaderboard.CategoryDefendingConcededDealer:
			value, games = stats.DefendingDealerConcededAvg, stats.DefendingDealerGames
		case leaderboard.CategoryLevelChange:
			value, games = stats.AvgLevelChange, stats.LevelChangeGames
		case leaderboard.CategoryWinRate:
			value, games = stats.WinRate, stats.GamesPlayed
		case leaderboard.CategoryTotalWins:
			value, games = float64(stats.Wins), stats.GamesPlayed
		default:
			continue
		}

		// Rate and average boards need a minimum sample to mean anything;
		// count boards include everyone who played at all.
		if category.RateBased() && games < s.cfg.MinSampleSize {
			continue
		}

		out = append(out, leaderboard.Candidate{
			Player: stats.Player,
			Value:  value,
			Games:  games,
		})
	}
	return out
}

func buildResultBreakdown(counts map[string]int) []ResultCount {
	out := make([]ResultCount, 0, len(counts))
	for raw, count := range counts {
		result, err := gamerecord.ParseResult(raw)
		color := ""
		if err == nil {
			color = result.Color()
		}
		out = append(out, ResultCount{Result: raw, Count: count, Color: color})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Result < out[j].Result
	})
	return out
}
