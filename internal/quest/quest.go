// Package quest projects weekly quests and their rewards from reconciled
// progress. Everything here is a pure function of its input.
package quest

import (
	"fmt"
	"math"
)

// Difficulty scales the reward of a quest.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Multiplier returns the reward multiplier. Unknown tiers count as medium.
func (d Difficulty) Multiplier() float64 {
	switch d {
	case Easy:
		return 0.8
	case Hard:
		return 1.5
	default:
		return 1.0
	}
}

// Size is the number of quests the projector produces.
const Size = 4

// defaultRewardTarget is used for reward math when a quest has no target.
const defaultRewardTarget = 60

// Quest is one projected weekly quest.
type Quest struct {
	ID         string
	Title      string
	Target     int
	Progress   int
	Difficulty Difficulty
	Coins      int
	XP         int
	Completed  bool
}

// Percent returns progress against target, clamped to [0, 100].
func (q Quest) Percent() float64 {
	if q.Target <= 0 {
		return 0
	}
	return math.Min(100, math.Max(0, float64(q.Progress)/float64(q.Target)*100))
}

// Provided is a quest supplied by the backend. Zero rewards are computed.
type Provided struct {
	ID         string
	Title      string
	Target     int
	Progress   int
	Difficulty Difficulty
	Coins      int
	XP         int
	Completed  bool
}

// Input is everything the projector reads.
type Input struct {
	CycleProgressPercent float64
	TotalStudiedMinutes  int
	SessionsCompleted    int

	// LowestSubject is empty when there are no subjects.
	LowestSubjectName    string
	LowestSubjectMinutes int

	Provided []Provided
}

// Rewards computes coins and xp for a target at a difficulty:
// coins = max(5, round(ceil(target/5) * multiplier)), xp = coins * 10.
func Rewards(target int, d Difficulty) (coins, xp int) {
	if target <= 0 {
		target = defaultRewardTarget
	}
	base := math.Ceil(float64(target) / 5)
	// Round half up, matching how rewards are shown elsewhere.
	coins = max(5, int(math.Floor(base*d.Multiplier()+0.5)))
	return coins, coins * 10
}

func generate(key, title string, target, progress int, d Difficulty) Quest {
	coins, xp := Rewards(target, d)
	return Quest{
		ID:         "local-" + key,
		Title:      title,
		Target:     target,
		Progress:   progress,
		Difficulty: d,
		Coins:      coins,
		XP:         xp,
		Completed:  progress >= target,
	}
}

// Project returns at most Size quests: the generated ones first, then
// backend quests filling the remaining slots. Titles are unique.
func Project(in Input) []Quest {
	cycleDone := 0
	if in.CycleProgressPercent >= 100 {
		cycleDone = 1
	}

	candidates := []Quest{
		generate("complete-cycle", "Complete 1 cycle", 1, cycleDone, Medium),
		generate("study-300", "Study 300 min this week", 300, in.TotalStudiedMinutes, Medium),
	}
	if in.LowestSubjectName != "" {
		candidates = append(candidates, generate("focus-subject",
			fmt.Sprintf("Study %s for 120 min", in.LowestSubjectName),
			120, in.LowestSubjectMinutes, Hard))
	}
	candidates = append(candidates, generate("sessions-6", "Complete 6 study sessions", 6, in.SessionsCompleted, Easy))

	for _, p := range in.Provided {
		candidates = append(candidates, fromProvided(p))
	}

	seen := make(map[string]bool)
	out := make([]Quest, 0, Size)
	for _, q := range candidates {
		if q.Title == "" || seen[q.Title] {
			continue
		}
		seen[q.Title] = true
		out = append(out, q)
		if len(out) == Size {
			break
		}
	}
	return out
}

func fromProvided(p Provided) Quest {
	d := p.Difficulty
	if d == "" {
		d = Medium
	}
	q := Quest{
		ID:         p.ID,
		Title:      p.Title,
		Target:     p.Target,
		Progress:   p.Progress,
		Difficulty: d,
		Coins:      p.Coins,
		XP:         p.XP,
		Completed:  p.Completed || (p.Target > 0 && p.Progress >= p.Target),
	}
	if q.Coins == 0 {
		q.Coins, _ = Rewards(p.Target, d)
	}
	if q.XP == 0 {
		q.XP = q.Coins * 10
	}
	return q
}
