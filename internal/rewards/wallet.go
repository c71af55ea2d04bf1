package rewards

import "math"

// baseXP is the XP needed to leave level 1.
const baseXP = 100

// XPForLevel returns the XP needed to advance from level to level+1:
// ceil(100 * 1.25^(level-1)).
func XPForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return int(math.Ceil(baseXP * math.Pow(1.25, float64(level-1))))
}

// milestoneLevels grant a one-off coin bonus.
var milestoneLevels = map[int]bool{
	10: true, 50: true, 100: true, 200: true, 500: true,
	1000: true, 2000: true, 5000: true, 10000: true,
}

// IsMilestone reports whether reaching level grants a bonus.
func IsMilestone(level int) bool {
	return milestoneLevels[level]
}

// MilestoneBonus is the coin bonus for a milestone level: one coin per 50
// minutes studied overall.
func MilestoneBonus(totalMinutes int) int {
	return max(0, totalMinutes/50)
}

// Wallet is the user's currency and experience. XP counts progress within
// the current level.
type Wallet struct {
	Coins int
	XP    int
	Level int
}

// Add grants coins and xp, carrying overflow XP into new levels. It
// returns the number of levels gained.
func (w *Wallet) Add(coins, xp int) int {
	if w.Level < 1 {
		w.Level = 1
	}
	w.Coins += max(0, coins)
	w.XP += max(0, xp)

	gained := 0
	for need := XPForLevel(w.Level); w.XP >= need; need = XPForLevel(w.Level) {
		w.XP -= need
		w.Level++
		gained++
	}
	return gained
}

// Progress returns XP within the level against the XP needed for the next.
func (w Wallet) Progress() (have, need int) {
	return w.XP, XPForLevel(max(1, w.Level))
}
