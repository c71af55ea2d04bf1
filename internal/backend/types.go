package backend

// StartRequest is the body of POST /study/start.
type StartRequest struct {
	SubjectID string `json:"subject_id"`
}

// StartResponse is the body returned by POST /study/start.
type StartResponse struct {
	ID        string `json:"id"`
	SubjectID string `json:"subject_id,omitempty"`
	StartTime string `json:"start_time,omitempty"`
}

// EndRequest is the body of POST /study/end.
type EndRequest struct {
	SessionID string `json:"session_id"`
	SubjectID string `json:"subject_id,omitempty"`
	Duration  int    `json:"duration"`
	Skipped   bool   `json:"skipped"`
}

// EndResponse is the body returned by POST /study/end.
type EndResponse struct {
	OK          bool   `json:"ok"`
	SessionID   string `json:"session_id"`
	CoinsEarned int    `json:"coins_earned"`
	XPEarned    int    `json:"xp_earned"`
	Skipped     bool   `json:"skipped"`
}

// SubjectStats is one subject in the stats snapshot.
type SubjectStats struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	TimeGoal    int    `json:"time_goal"`
	TimeStudied int    `json:"time_studied"`
}

// Stats is the body returned by GET /stats.
type Stats struct {
	Subjects            []SubjectStats `json:"subjects"`
	CycleProgress       float64        `json:"cycle_progress"`
	SessionsCompleted   int            `json:"sessions_completed"`
	TotalStudiedMinutes int            `json:"total_studied_minutes"`
	Level               int            `json:"level"`
	XP                  int            `json:"xp"`
	Coins               int            `json:"coins"`
}

// Settings is the body returned by GET /settings.
type Settings struct {
	StudyDuration int `json:"study_duration"`
	BreakDuration int `json:"break_duration"`
}

// Subject is one entry of GET /subjects.
type Subject struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	TimeGoal int    `json:"time_goal"`
}

// Quest is one entry of GET /quests.
type Quest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Target      int    `json:"target"`
	Progress    int    `json:"progress"`
	Difficulty  string `json:"difficulty,omitempty"`
	CoinsReward int    `json:"coins_reward,omitempty"`
	XPReward    int    `json:"xp_reward,omitempty"`
	Completed   bool   `json:"completed"`
}

// PingRequest is the body of POST /presence/ping.
type PingRequest struct {
	Active bool `json:"active"`
}

// TimerStateRequest is the body of POST /study/timer/state.
type TimerStateRequest struct {
	State       string `json:"state"`
	SecondsLeft int    `json:"seconds_left"`
	SubjectID   string `json:"subject_id,omitempty"`
}

// LevelBonusRequest is the body of POST /rewards/level-bonus.
type LevelBonusRequest struct {
	Level      int `json:"level"`
	BonusCoins int `json:"bonus_coins"`
}

// Paths of the backend endpoints.
const (
	PathStudyStart    = "/study/start"
	PathStudyEnd      = "/study/end"
	PathStats         = "/stats"
	PathSettings      = "/settings"
	PathSubjects      = "/subjects"
	PathQuests        = "/quests"
	PathPresenceOpen  = "/presence/open"
	PathPresencePing  = "/presence/ping"
	PathPresenceLeave = "/presence/leave"
	PathTimerState    = "/study/timer/state"
	PathLevelBonus    = "/rewards/level-bonus"
)
