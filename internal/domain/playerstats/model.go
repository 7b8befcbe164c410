package playerstats

// Stats is the derived per-player metric set for one deck mode. It is a pure
// function of the record set it was computed from and is never mutated in
// place; refreshing means recomputing from source records.
type Stats struct {
	Player      string
	GamesPlayed int
	Wins        int
	WinRate     float64

	// Average card points collected by the player's side while attacking.
	AttackingAvgPoints float64
	AttackingGames     int

	// Average card points conceded to the attackers while defending,
	// overall and broken down by defender role.
	DefendingConcededAvg         float64
	DefendingGames               int
	DefendingTeammateConcededAvg float64
	DefendingTeammateGames       int
	DefendingDealerConcededAvg   float64
	DefendingDealerGames         int

	// Average signed level movement per game from the player's perspective.
	AvgLevelChange   float64
	LevelChangeGames int
}
