package leaderboard

import (
	"sort"

	"github.com/tractorstats/tractor-stats/internal/domain/scoring"
)

type Category string

const (
	CategoryAttackingPoints           Category = "attacking_points"
	CategoryDefendingConceded         Category = "defending_conceded"
	CategoryDefendingConcededTeammate Category = "defending_conceded_teammate"
	CategoryDefendingConcededDealer   Category = "defending_conceded_dealer"
	CategoryLevelChange               Category = "level_change"
	CategoryWinRate                   Category = "win_rate"
	CategoryTotalWins                 Category = "total_wins"
)

// AllCategories in display order.
var AllCategories = []Category{
	CategoryAttackingPoints,
	CategoryDefendingConceded,
	CategoryDefendingConcededTeammate,
	CategoryDefendingConcededDealer,
	CategoryLevelChange,
	CategoryWinRate,
	CategoryTotalWins,
}

var categoryTitles = map[Category]string{
	CategoryAttackingPoints:           "avg. collected when attacking",
	CategoryDefendingConceded:         "avg. opponents collected when defending",
	CategoryDefendingConcededTeammate: "avg. opponents collected defending (teammate)",
	CategoryDefendingConcededDealer:   "avg. opponents collected defending (dealer)",
	CategoryLevelChange:               "avg. level change",
	CategoryWinRate:                   "win rate",
	CategoryTotalWins:                 "total wins",
}

// higherIsBetter: conceded-points categories rank ascending, everything else
// descending.
var categoryHigherIsBetter = map[Category]bool{
	CategoryAttackingPoints:           true,
	CategoryDefendingConceded:         false,
	CategoryDefendingConcededTeammate: false,
	CategoryDefendingConcededDealer:   false,
	CategoryLevelChange:               true,
	CategoryWinRate:                   true,
	CategoryTotalWins:                 true,
}

// rateBased categories exclude players below the minimum sample size;
// count-based ones include every participating player.
var categoryRateBased = map[Category]bool{
	CategoryAttackingPoints:           true,
	CategoryDefendingConceded:         true,
	CategoryDefendingConcededTeammate: true,
	CategoryDefendingConcededDealer:   true,
	CategoryLevelChange:               true,
	CategoryWinRate:                   true,
	CategoryTotalWins:                 false,
}

func ValidCategory(c Category) bool {
	_, ok := categoryTitles[c]
	return ok
}

func (c Category) Title() string {
	return categoryTitles[c]
}

func (c Category) HigherIsBetter() bool {
	return categoryHigherIsBetter[c]
}

func (c Category) RateBased() bool {
	return categoryRateBased[c]
}

// Entry is one ranked row. Rank uses competition ranking: equal values share
// a rank and the next distinct value skips ahead, while iteration order stays
// deterministic with player id as the tiebreak.
type Entry struct {
	Rank      int
	Player    string
	Value     float64
	Games     int
	Indicator scoring.Indicator
}

type Board struct {
	Category       Category
	Title          string
	HigherIsBetter bool
	MinSampleSize  int
	Entries        []Entry
}

// Candidate is an unranked metric value for one player.
type Candidate struct {
	Player string
	Value  float64
	Games  int
}

// Build sorts candidates in the category's direction (player id ascending as
// tiebreak), assigns competition ranks, and attaches indicators computed
// against the full candidate population.
func Build(category Category, minSampleSize int, candidates []Candidate, indicators scoring.IndicatorConfig) Board {
	board := Board{
		Category:       category,
		Title:          category.Title(),
		HigherIsBetter: category.HigherIsBetter(),
		MinSampleSize:  minSampleSize,
	}

	population := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		population[c.Player] = c.Value
	}
	scores := scoring.Normalize(population)

	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Value != ranked[j].Value {
			if board.HigherIsBetter {
				return ranked[i].Value > ranked[j].Value
			}
			return ranked[i].Value < ranked[j].Value
		}
		return ranked[i].Player < ranked[j].Player
	})

	board.Entries = make([]Entry, 0, len(ranked))
	for i, c := range ranked {
		rank := i + 1
		if i > 0 && ranked[i-1].Value == c.Value {
			rank = board.Entries[i-1].Rank
		}
		board.Entries = append(board.Entries, Entry{
			Rank:      rank,
			Player:    c.Player,
			Value:     c.Value,
			Games:     c.Games,
			Indicator: indicators.Classify(scores[c.Player], board.HigherIsBetter),
		})
	}

	return board
}
