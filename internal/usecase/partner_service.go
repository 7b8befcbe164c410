package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/tractorstats/tractor-stats/internal/domain/scoring"
	"github.com/tractorstats/tractor-stats/internal/platform/logging"
)

// PartnerEntry ranks another player by the subject's average level change
// across their shared games.
type PartnerEntry struct {
	Rank           int
	Player         string
	AvgLevelChange float64
	Games          int
	Indicator      scoring.Indicator
}

type PartnerRankings struct {
	Player    string
	Decks     int
	Teammates []PartnerEntry
	Opponents []PartnerEntry
}

// PartnerService derives, for one player, how every frequent teammate and
// opponent correlates with the player's level movement.
type PartnerService struct {
	stats  *StatsService
	logger *logging.Logger
}

func NewPartnerService(stats *StatsService, logger *logging.Logger) *PartnerService {
	if logger == nil {
		logger = logging.Default()
	}

	return &PartnerService{
		stats:  stats,
		logger: logger,
	}
}

func (s *PartnerService) Partners(ctx context.Context, decks int, player string) (PartnerRankings, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PartnerService.Partners")
	defer span.End()

	if player == "" {
		return PartnerRankings{}, fmt.Errorf("%w: player is required", ErrInvalidInput)
	}

	snapshot, err := s.stats.Snapshot(ctx, decks)
	if err != nil {
		return PartnerRankings{}, err
	}
	if _, ok := snapshot.playerIndex[player]; !ok {
		return PartnerRankings{}, fmt.Errorf("%w: player=%s decks=%d", ErrNotFound, player, decks)
	}

	type partnerAccumulator struct {
		levelSum int
		games    int
	}
	teammates := make(map[string]*partnerAccumulator)
	opponents := make(map[string]*partnerAccumulator)

	for _, record := range snapshot.records {
		subjectSide, ok := record.SideOf(player)
		if !ok {
			continue
		}
		change := record.LevelChangeFor(player)

		for _, other := range record.Participants() {
			if other == player {
				continue
			}
			otherSide, _ := record.SideOf(other)
			bucket := opponents
			if otherSide == subjectSide {
				bucket = teammates
			}
			a, ok := bucket[other]
			if !ok {
				a = &partnerAccumulator{}
				bucket[other] = a
			}
			a.levelSum += change
			a.games++
		}
	}

	minGames := s.stats.cfg.MinSampleSize
	build := func(bucket map[string]*partnerAccumulator, bestFirst bool) []PartnerEntry {
		entries := make([]PartnerEntry, 0, len(bucket))
		values := make(map[string]float64, len(bucket))
		for other, a := range bucket {
			if a.games < minGames {
				continue
			}
			avg := float64(a.levelSum) / float64(a.games)
			values[other] = avg
			entries = append(entries, PartnerEntry{
				Player:         other,
				AvgLevelChange: avg,
				Games:          a.games,
			})
		}

		// Best teammates float up; toughest opponents (lowest average) lead
		// the opponent board. Level change is favorable when high in both.
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].AvgLevelChange != entries[j].AvgLevelChange {
				if bestFirst {
					return entries[i].AvgLevelChange > entries[j].AvgLevelChange
				}
				return entries[i].AvgLevelChange < entries[j].AvgLevelChange
			}
			return entries[i].Player < entries[j].Player
		})

		scores := scoring.Normalize(values)
		for i := range entries {
			if i > 0 && entries[i-1].AvgLevelChange == entries[i].AvgLevelChange {
				entries[i].Rank = entries[i-1].Rank
			} else {
				entries[i].Rank = i + 1
			}
			entries[i].Indicator = s.stats.cfg.Indicators.Classify(scores[entries[i].Player], true)
		}
		return entries
	}

	return PartnerRankings{
		Player:    player,
		Decks:     decks,
		Teammates: build(teammates, true),
		Opponents: build(opponents, false),
	}, nil
}
