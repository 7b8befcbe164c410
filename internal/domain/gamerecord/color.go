package gamerecord

// Display colors for result distribution charts. Attacker wins shade blue,
// defender wins shade red, deeper the more levels changed hands.
var (
	attackerWinColors = map[int]string{
		1: "#CCE5FF", 2: "#99CCFF", 3: "#66B2FF",
		4: "#3399FF", 5: "#0080FF", 6: "#0066CC",
	}
	defenderWinColors = map[int]string{
		1: "#FFCCCC", 2: "#FF9999", 3: "#FF6666",
		4: "#FF3333", 5: "#FF0000", 6: "#CC0000",
	}
)

const (
	drawColor    = "#808080"
	defaultColor = "#CCCCCC"
)

func (r Result) Color() string {
	switch r.Outcome {
	case OutcomeDraw:
		return drawColor
	case OutcomeAttackersWin:
		if color, ok := attackerWinColors[r.Levels]; ok {
			return color
		}
		return attackerWinColors[5]
	case OutcomeDefendersWin:
		if color, ok := defenderWinColors[r.Levels]; ok {
			return color
		}
		return defenderWinColors[5]
	default:
		return defaultColor
	}
}
