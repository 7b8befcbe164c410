package gamerecord

import (
	"fmt"
	"strconv"
	"strings"
)

// Deck modes played by the group. Other deck counts fail validation.
const (
	DecksTwo   = 2
	DecksThree = 3
)

var DeckModes = []int{DecksTwo, DecksThree}

const (
	MaxAttackers = 5
	MaxDefenders = 4
)

// PointsUnknown marks a record whose score column could not be parsed.
// Validation rejects it so the aggregator counts the record as skipped
// instead of folding a bogus zero into the averages.
const PointsUnknown = -1

type Outcome string

const (
	OutcomeDraw         Outcome = "draw"
	OutcomeAttackersWin Outcome = "attackers"
	OutcomeDefendersWin Outcome = "defenders"
)

// Result is the level outcome of one hand: a draw, or one side climbing
// Levels levels. The wire form is "Draw", "A+n" or "D+n".
type Result struct {
	Outcome Outcome
	Levels  int
}

func ParseResult(raw string) (Result, error) {
	value := strings.TrimSpace(raw)
	switch {
	case value == "":
		return Result{}, fmt.Errorf("result is empty")
	case strings.EqualFold(value, "Draw"):
		return Result{Outcome: OutcomeDraw}, nil
	case strings.HasPrefix(value, "A+"), strings.HasPrefix(value, "D+"):
		levels, err := strconv.Atoi(value[2:])
		if err != nil || levels < 1 {
			return Result{}, fmt.Errorf("invalid level count in result %q", raw)
		}
		outcome := OutcomeAttackersWin
		if value[0] == 'D' {
			outcome = OutcomeDefendersWin
		}
		return Result{Outcome: outcome, Levels: levels}, nil
	default:
		return Result{}, fmt.Errorf("unrecognized result %q", raw)
	}
}

func (r Result) String() string {
	switch r.Outcome {
	case OutcomeAttackersWin:
		return fmt.Sprintf("A+%d", r.Levels)
	case OutcomeDefendersWin:
		return fmt.Sprintf("D+%d", r.Levels)
	case OutcomeDraw:
		return "Draw"
	default:
		return ""
	}
}

// LevelChange is the signed level movement from the attacking side's
// perspective: positive when the attackers climb, negative when the
// defenders do.
func (r Result) LevelChange() int {
	switch r.Outcome {
	case OutcomeAttackersWin:
		return r.Levels
	case OutcomeDefendersWin:
		return -r.Levels
	default:
		return 0
	}
}

type Side string

const (
	SideAttacking Side = "attacking"
	SideDefending Side = "defending"
)

// Record is one completed hand. Attackers and Defenders hold player names in
// seat order; the first defender is the dealer. Points is the card-point
// total collected by the attacking side. Records are immutable once loaded.
type Record struct {
	ID        string
	Decks     int
	Attackers []string
	Defenders []string
	Points    int
	Result    Result
}

func (r Record) Validate() error {
	if r.Decks != DecksTwo && r.Decks != DecksThree {
		return fmt.Errorf("deck count must be %d or %d, got %d", DecksTwo, DecksThree, r.Decks)
	}
	if len(r.Attackers) == 0 {
		return fmt.Errorf("at least one attacker is required")
	}
	if len(r.Attackers) > MaxAttackers {
		return fmt.Errorf("at most %d attackers are allowed, got %d", MaxAttackers, len(r.Attackers))
	}
	if len(r.Defenders) == 0 {
		return fmt.Errorf("at least one defender is required")
	}
	if len(r.Defenders) > MaxDefenders {
		return fmt.Errorf("at most %d defenders are allowed, got %d", MaxDefenders, len(r.Defenders))
	}
	if r.Points < 0 {
		return fmt.Errorf("points must be a non-negative number")
	}
	if r.Result.Outcome == "" {
		return fmt.Errorf("result is required")
	}

	seen := make(map[string]struct{}, len(r.Attackers)+len(r.Defenders))
	for _, name := range r.Participants() {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("player name cannot be blank")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("player %q appears twice in one record", name)
		}
		seen[name] = struct{}{}
	}

	return nil
}

// Dealer returns the dealer seat (first defender).
func (r Record) Dealer() string {
	if len(r.Defenders) == 0 {
		return ""
	}
	return r.Defenders[0]
}

func (r Record) Participants() []string {
	out := make([]string, 0, len(r.Attackers)+len(r.Defenders))
	out = append(out, r.Attackers...)
	out = append(out, r.Defenders...)
	return out
}

// SideOf reports which side the player sat on in this record.
func (r Record) SideOf(player string) (Side, bool) {
	for _, name := range r.Attackers {
		if name == player {
			return SideAttacking, true
		}
	}
	for _, name := range r.Defenders {
		if name == player {
			return SideDefending, true
		}
	}
	return "", false
}

// LevelChangeFor is the signed level movement from the player's perspective,
// or zero when the player did not take part.
func (r Record) LevelChangeFor(player string) int {
	side, ok := r.SideOf(player)
	if !ok {
		return 0
	}
	change := r.Result.LevelChange()
	if side == SideDefending {
		return -change
	}
	return change
}

// Won reports whether the player's side gained levels in this record.
// Draws count as played but not won.
func (r Record) Won(player string) bool {
	return r.LevelChangeFor(player) > 0
}
