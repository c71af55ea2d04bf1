package quest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewards(t *testing.T) {
	tests := []struct {
		target    int
		d         Difficulty
		wantCoins int
		wantXP    int
	}{
		{300, Medium, 60, 600},
		{120, Hard, 36, 360},
		{6, Easy, 5, 50},
		{1, Medium, 5, 50},
		{0, Medium, 12, 120},
		{62, Easy, 10, 100}, // ceil(12.4)=13, 13*0.8=10.4
		{13, Hard, 5, 50},   // ceil(2.6)=3, 4.5 rounds to 5
		{35, Hard, 11, 110}, // 7*1.5=10.5 rounds up
	}
	for _, tt := range tests {
		coins, xp := Rewards(tt.target, tt.d)
		if coins != tt.wantCoins || xp != tt.wantXP {
			t.Errorf("Rewards(%d, %s) = %d, %d; want %d, %d", tt.target, tt.d, coins, xp, tt.wantCoins, tt.wantXP)
		}
	}
}

func TestProject_FourGeneratedQuests(t *testing.T) {
	qs := Project(Input{
		CycleProgressPercent: 40,
		TotalStudiedMinutes:  300,
		SessionsCompleted:    2,
		LowestSubjectName:    "History",
		LowestSubjectMinutes: 30,
	})
	require.Len(t, qs, Size)

	assert.Equal(t, "local-complete-cycle", qs[0].ID)
	assert.False(t, qs[0].Completed)

	study := qs[1]
	assert.Equal(t, 300, study.Target)
	assert.Equal(t, 300, study.Progress)
	assert.True(t, study.Completed)
	assert.Equal(t, 60, study.Coins)
	assert.Equal(t, 600, study.XP)

	assert.Equal(t, "Study History for 120 min", qs[2].Title)
	assert.Equal(t, Hard, qs[2].Difficulty)
	assert.Equal(t, 30, qs[2].Progress)

	assert.Equal(t, Easy, qs[3].Difficulty)
	assert.Equal(t, 2, qs[3].Progress)
}

func TestProject_CycleComplete(t *testing.T) {
	qs := Project(Input{CycleProgressPercent: 100})
	assert.True(t, qs[0].Completed)
	assert.Equal(t, 1, qs[0].Progress)
}

func TestProject_NoSubjectsFilledFromProvided(t *testing.T) {
	qs := Project(Input{
		Provided: []Provided{
			{ID: "b1", Title: "Complete 1 cycle", Target: 1},
			{ID: "b2", Title: "Read a chapter", Target: 20, Progress: 20},
			{ID: "b3", Title: "Extra", Target: 10},
		},
	})
	require.Len(t, qs, Size)
	assert.Equal(t, "Read a chapter", qs[3].Title)
	assert.True(t, qs[3].Completed)
	assert.Equal(t, 5, qs[3].Coins)
	assert.Equal(t, 50, qs[3].XP)
}

func TestProject_ProvidedKeepsOwnRewards(t *testing.T) {
	qs := Project(Input{
		LowestSubjectName: "Math",
		Provided:          []Provided{{Title: "Bonus", Target: 50, Coins: 99}},
	})
	require.Len(t, qs, Size)
	for _, q := range qs {
		assert.NotEqual(t, "Bonus", q.Title, "four generated quests leave no slot")
	}

	qs = Project(Input{Provided: []Provided{{Title: "Bonus", Target: 50, Coins: 99}}})
	require.Len(t, qs, Size)
	assert.Equal(t, 99, qs[3].Coins)
	assert.Equal(t, 990, qs[3].XP)
}

func TestProject_DropsUntitled(t *testing.T) {
	qs := Project(Input{Provided: []Provided{{Target: 5}}})
	assert.Len(t, qs, 3)
}

func TestQuestPercent(t *testing.T) {
	assert.Equal(t, 50.0, Quest{Target: 10, Progress: 5}.Percent())
	assert.Equal(t, 100.0, Quest{Target: 10, Progress: 50}.Percent())
	assert.Equal(t, 0.0, Quest{}.Percent())
}
