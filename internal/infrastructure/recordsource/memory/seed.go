package memory

import "github.com/tractorstats/tractor-stats/internal/domain/gamerecord"

func result(raw string) gamerecord.Result {
	parsed, err := gamerecord.ParseResult(raw)
	if err != nil {
		panic(err)
	}
	return parsed
}

// SeedRecords is a small session of plausible hands covering both deck modes,
// enough for every leaderboard to have ranked rows at the default sample size.
func SeedRecords() []gamerecord.Record {
	return []gamerecord.Record{
		{ID: "seed-001", Decks: 2, Attackers: []string{"wen", "li"}, Defenders: []string{"zhang", "chen"}, Points: 80, Result: result("A+1")},
		{ID: "seed-002", Decks: 2, Attackers: []string{"zhang", "chen"}, Defenders: []string{"wen", "li"}, Points: 35, Result: result("D+1")},
		{ID: "seed-003", Decks: 2, Attackers: []string{"wen", "zhang"}, Defenders: []string{"li", "chen"}, Points: 105, Result: result("A+2")},
		{ID: "seed-004", Decks: 2, Attackers: []string{"li", "chen"}, Defenders: []string{"zhang", "wen"}, Points: 55, Result: result("Draw")},
		{ID: "seed-005", Decks: 2, Attackers: []string{"chen", "wen"}, Defenders: []string{"li", "zhang"}, Points: 20, Result: result("D+2")},
		{ID: "seed-006", Decks: 2, Attackers: []string{"li", "zhang"}, Defenders: []string{"chen", "wen"}, Points: 90, Result: result("A+1")},
		{ID: "seed-007", Decks: 2, Attackers: []string{"wen", "li"}, Defenders: []string{"chen", "zhang"}, Points: 65, Result: result("Draw")},
		{ID: "seed-008", Decks: 2, Attackers: []string{"zhang", "wen"}, Defenders: []string{"chen", "li"}, Points: 130, Result: result("A+3")},
		{ID: "seed-009", Decks: 2, Attackers: []string{"chen", "li"}, Defenders: []string{"wen", "zhang"}, Points: 45, Result: result("D+1")},
		{ID: "seed-010", Decks: 2, Attackers: []string{"li", "wen"}, Defenders: []string{"zhang", "chen"}, Points: 75, Result: result("A+1")},

		{ID: "seed-011", Decks: 3, Attackers: []string{"wen", "li", "zhang"}, Defenders: []string{"chen", "yu", "hao"}, Points: 150, Result: result("A+2")},
		{ID: "seed-012", Decks: 3, Attackers: []string{"chen", "yu", "hao"}, Defenders: []string{"wen", "li", "zhang"}, Points: 60, Result: result("D+1")},
		{ID: "seed-013", Decks: 3, Attackers: []string{"wen", "yu", "chen"}, Defenders: []string{"hao", "li", "zhang"}, Points: 95, Result: result("Draw")},
		{ID: "seed-014", Decks: 3, Attackers: []string{"li", "hao", "zhang"}, Defenders: []string{"yu", "wen", "chen"}, Points: 180, Result: result("A+3")},
		{ID: "seed-015", Decks: 3, Attackers: []string{"yu", "wen", "chen"}, Defenders: []string{"zhang", "li", "hao"}, Points: 40, Result: result("D+2")},
		{ID: "seed-016", Decks: 3, Attackers: []string{"hao", "zhang", "li"}, Defenders: []string{"wen", "chen", "yu"}, Points: 120, Result: result("A+1")},
		{ID: "seed-017", Decks: 3, Attackers: []string{"chen", "li", "yu"}, Defenders: []string{"hao", "wen", "zhang"}, Points: 85, Result: result("D+1")},
		{ID: "seed-018", Decks: 3, Attackers: []string{"wen", "hao", "yu"}, Defenders: []string{"li", "chen", "zhang"}, Points: 160, Result: result("A+2")},
		{ID: "seed-019", Decks: 3, Attackers: []string{"zhang", "chen", "wen"}, Defenders: []string{"yu", "hao", "li"}, Points: 70, Result: result("Draw")},
		{ID: "seed-020", Decks: 3, Attackers: []string{"li", "yu", "hao"}, Defenders: []string{"chen", "zhang", "wen"}, Points: 110, Result: result("A+1")},
	}
}
