package engine

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/focuscycle/internal/backend"
	"github.com/abhisek/focuscycle/internal/progress"
	"github.com/abhisek/focuscycle/internal/quest"
	"github.com/abhisek/focuscycle/internal/rewards"
	"github.com/abhisek/focuscycle/internal/store"
	"github.com/abhisek/focuscycle/internal/timer"
)

// refresh reads every authoritative source in parallel.
func (e *Engine) refresh() tea.Cmd {
	api := e.deps.API
	if api == nil {
		return nil
	}
	return tea.Batch(
		e.fetch(func(ctx context.Context) tea.Msg {
			s, err := api.Stats(ctx)
			return statsLoadedMsg{Stats: s, Err: err}
		}),
		e.fetch(func(ctx context.Context) tea.Msg {
			s, err := api.Settings(ctx)
			return settingsLoadedMsg{Settings: s, Err: err}
		}),
		e.fetch(func(ctx context.Context) tea.Msg {
			s, err := api.Subjects(ctx)
			return subjectsLoadedMsg{Subjects: s, Err: err}
		}),
		e.fetch(func(ctx context.Context) tea.Msg {
			q, err := api.Quests(ctx)
			return questsLoadedMsg{Quests: q, Err: err}
		}),
	)
}

func (e *Engine) fetch(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	timeout := e.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return fn(ctx)
	}
}

func (e *Engine) handleStats(msg statsLoadedMsg) tea.Cmd {
	if msg.Err != nil {
		e.log.Warn().Err(msg.Err).Msg("refresh stats")
		e.notify(failure("Could not refresh progress", msg.Err))
		return nil
	}
	s := msg.Stats

	minutes := make(map[string]int, len(s.Subjects))
	subjects := make([]progress.Subject, 0, len(s.Subjects))
	for _, sub := range s.Subjects {
		minutes[sub.ID] = sub.TimeStudied
		subjects = append(subjects, progress.Subject{
			ID:          sub.ID,
			Name:        sub.Name,
			Color:       sub.Color,
			GoalMinutes: sub.TimeGoal,
		})
	}
	if len(subjects) > 0 {
		e.tracker.SetSubjects(subjects)
		e.ensureSubject()
	}
	e.tracker.ApplySnapshot(progress.Snapshot{
		Minutes:           minutes,
		SessionsCompleted: s.SessionsCompleted,
		FetchedAt:         e.source.Now(),
	})

	var up *rewards.LevelUp
	if s.Level > 0 {
		if e.seeded {
			up = e.rewards.Sync(context.Background(), rewards.Wallet{Coins: s.Coins, XP: s.XP, Level: s.Level}, e.tracker.TotalStudied())
		} else {
			e.rewards.Restore(&store.WalletData{Coins: s.Coins, XP: s.XP, Level: s.Level})
			e.seeded = true
		}
	}

	e.reproject()
	e.saveSnapshot()
	e.log.Debug().
		Int("subjects", len(subjects)).
		Float64("cycle_progress", e.tracker.CycleProgressPercent()).
		Msg("stats refreshed")
	return e.levelUp(up)
}

func (e *Engine) handleSettings(msg settingsLoadedMsg) tea.Cmd {
	if msg.Err != nil {
		e.log.Warn().Err(msg.Err).Msg("refresh settings")
		return nil
	}
	e.machine.SetDurations(timer.Durations{
		FocusMinutes: msg.Settings.StudyDuration,
		BreakMinutes: msg.Settings.BreakDuration,
	})
	return nil
}

func (e *Engine) handleSubjects(msg subjectsLoadedMsg) tea.Cmd {
	if msg.Err != nil {
		e.log.Warn().Err(msg.Err).Msg("refresh subjects")
		return nil
	}
	if len(msg.Subjects) == 0 {
		return nil
	}
	subjects := make([]progress.Subject, 0, len(msg.Subjects))
	for _, sub := range msg.Subjects {
		subjects = append(subjects, progress.Subject{
			ID:          sub.ID,
			Name:        sub.Name,
			Color:       sub.Color,
			GoalMinutes: sub.TimeGoal,
		})
	}
	e.tracker.SetSubjects(subjects)
	e.ensureSubject()
	e.reproject()
	return nil
}

func (e *Engine) handleQuests(msg questsLoadedMsg) tea.Cmd {
	if msg.Err != nil {
		e.log.Debug().Err(msg.Err).Msg("refresh quests")
		return nil
	}
	e.provided = make([]quest.Provided, 0, len(msg.Quests))
	for _, q := range msg.Quests {
		e.provided = append(e.provided, providedQuest(q))
	}
	e.reproject()
	return nil
}

func providedQuest(q backend.Quest) quest.Provided {
	return quest.Provided{
		ID:         q.ID,
		Title:      q.Title,
		Target:     q.Target,
		Progress:   q.Progress,
		Difficulty: quest.Difficulty(q.Difficulty),
		Coins:      q.CoinsReward,
		XP:         q.XPReward,
		Completed:  q.Completed,
	}
}
