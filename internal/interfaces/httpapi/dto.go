package httpapi

import (
	"context"

	"github.com/tractorstats/tractor-stats/internal/domain/leaderboard"
	"github.com/tractorstats/tractor-stats/internal/domain/playerstats"
	"github.com/tractorstats/tractor-stats/internal/domain/scoring"
	"github.com/tractorstats/tractor-stats/internal/usecase"
)

type resultCountDTO struct {
	Result string `json:"result"`
	Count  int    `json:"count"`
	Color  string `json:"color,omitempty"`
}

type globalStatsDTO struct {
	Decks          int              `json:"decks"`
	TotalGames     int              `json:"totalGames"`
	AveragePoints  float64          `json:"averagePoints"`
	SkippedRecords int              `json:"skippedRecords"`
	Results        []resultCountDTO `json:"results"`
}

type playerStatsDTO struct {
	Player                       string  `json:"player"`
	GamesPlayed                  int     `json:"gamesPlayed"`
	Wins                         int     `json:"wins"`
	WinRate                      float64 `json:"winRate"`
	AttackingAvgPoints           float64 `json:"attackingAvgPoints"`
	AttackingGames               int     `json:"attackingGames"`
	DefendingConcededAvg         float64 `json:"defendingConcededAvg"`
	DefendingGames               int     `json:"defendingGames"`
	DefendingTeammateConcededAvg float64 `json:"defendingTeammateConcededAvg"`
	DefendingTeammateGames       int     `json:"defendingTeammateGames"`
	DefendingDealerConcededAvg   float64 `json:"defendingDealerConcededAvg"`
	DefendingDealerGames         int     `json:"defendingDealerGames"`
	AvgLevelChange               float64 `json:"avgLevelChange"`
}

type leaderboardEntryDTO struct {
	Rank      int               `json:"rank"`
	Player    string            `json:"player"`
	Value     float64           `json:"value"`
	Games     int               `json:"games"`
	Indicator scoring.Indicator `json:"indicator"`
}

type leaderboardDTO struct {
	Category       string                `json:"category"`
	Title          string                `json:"title"`
	HigherIsBetter bool                  `json:"higherIsBetter"`
	MinSampleSize  int                   `json:"minSampleSize"`
	Entries        []leaderboardEntryDTO `json:"entries"`
}

type partnerEntryDTO struct {
	Rank           int               `json:"rank"`
	Player         string            `json:"player"`
	AvgLevelChange float64           `json:"avgLevelChange"`
	Games          int               `json:"games"`
	Indicator      scoring.Indicator `json:"indicator"`
}

type partnerRankingsDTO struct {
	Player    string            `json:"player"`
	Decks     int               `json:"decks"`
	Teammates []partnerEntryDTO `json:"teammates"`
	Opponents []partnerEntryDTO `json:"opponents"`
}

func globalStatsToDTO(ctx context.Context, v usecase.GlobalStats) globalStatsDTO {
	ctx, span := startSpan(ctx, "httpapi.globalStatsToDTO")
	defer span.End()

	results := make([]resultCountDTO, 0, len(v.Results))
	for _, item := range v.Results {
		results = append(results, resultCountDTO{
			Result: item.Result,
			Count:  item.Count,
			Color:  item.Color,
		})
	}

	return globalStatsDTO{
		Decks:          v.Decks,
		TotalGames:     v.TotalGames,
		AveragePoints:  v.AveragePoints,
		SkippedRecords: v.SkippedRecords,
		Results:        results,
	}
}

func playerStatsToDTO(ctx context.Context, v playerstats.Stats) playerStatsDTO {
	ctx, span := startSpan(ctx, "httpapi.playerStatsToDTO")
	defer span.End()

	return playerStatsDTO{
		Player:                       v.Player,
		GamesPlayed:                  v.GamesPlayed,
		Wins:                         v.Wins,
		WinRate:                      v.WinRate,
		AttackingAvgPoints:           v.AttackingAvgPoints,
		AttackingGames:               v.AttackingGames,
		DefendingConcededAvg:         v.DefendingConcededAvg,
		DefendingGames:               v.DefendingGames,
		DefendingTeammateConcededAvg: v.DefendingTeammateConcededAvg,
		DefendingTeammateGames:       v.DefendingTeammateGames,
		DefendingDealerConcededAvg:   v.DefendingDealerConcededAvg,
		DefendingDealerGames:         v.DefendingDealerGames,
		AvgLevelChange:               v.AvgLevelChange,
	}
}

func leaderboardToDTO(ctx context.Context, v leaderboard.Board) leaderboardDTO {
	ctx, span := startSpan(ctx, "httpapi.leaderboardToDTO")
	defer span.End()

	entries := make([]leaderboardEntryDTO, 0, len(v.Entries))
	for _, entry := range v.Entries {
		entries = append(entries, leaderboardEntryDTO{
			Rank:      entry.Rank,
			Player:    entry.Player,
			Value:     entry.Value,
			Games:     entry.Games,
			Indicator: entry.Indicator,
		})
	}

	return leaderboardDTO{
		Category:       string(v.Category),
		Title:          v.Title,
		HigherIsBetter: v.HigherIsBetter,
		MinSampleSize:  v.MinSampleSize,
		Entries:        entries,
	}
}

func partnerRankingsToDTO(ctx context.Context, v usecase.PartnerRankings) partnerRankingsDTO {
	ctx, span := startSpan(ctx, "httpapi.partnerRankingsToDTO")
	defer span.End()

	return partnerRankingsDTO{
		Player:    v.Player,
		Decks:     v.Decks,
		Teammates: partnerEntriesToDTO(v.Teammates),
		Opponents: partnerEntriesToDTO(v.Opponents),
	}
}

func partnerEntriesToDTO(entries []usecase.PartnerEntry) []partnerEntryDTO {
	out := make([]partnerEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, partnerEntryDTO{
			Rank:           entry.Rank,
			Player:         entry.Player,
			AvgLevelChange: entry.AvgLevelChange,
			Games:          entry.Games,
			Indicator:      entry.Indicator,
		})
	}
	return out
}
