package engine

import (
	"context"
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/focuscycle/internal/backend"
	"github.com/abhisek/focuscycle/internal/clock"
	"github.com/abhisek/focuscycle/internal/ledger"
	"github.com/abhisek/focuscycle/internal/rewards"
	"github.com/abhisek/focuscycle/internal/store"
	"github.com/abhisek/focuscycle/internal/timer"
)

// apply runs the side effects of one transition.
func (e *Engine) apply(eff timer.Effect) tea.Cmd {
	var cmds []tea.Cmd
	if eff.Close != nil {
		if !eff.Close.Skipped {
			e.crediting[eff.Close.SessionID] = true
		}
		cmds = append(cmds, e.closeCmd(ledger.CloseRequest(*eff.Close)))
	}
	if eff.Open != nil {
		cmds = append(cmds, e.openCmd(*eff.Open))
	}
	if eff.Visual != nil {
		e.creditVisual(*eff.Visual)
	}
	if eff.Withheld {
		e.notify(Notice{
			Level: NoticeWarn,
			Text:  "Block finished but not credited: the session never opened",
		})
	}
	if eff.BreakOver {
		e.notify(Notice{Level: NoticeInfo, Text: "Break over. Press enter to start the next block"})
	}
	cmds = append(cmds, e.clockCmd(eff.Clock))
	return tea.Batch(cmds...)
}

func (e *Engine) clockCmd(action timer.ClockAction) tea.Cmd {
	switch action {
	case timer.ClockStart:
		if e.ticker != nil {
			return nil
		}
		e.ticker = e.source.Start()
		return e.waitTick(e.ticker)
	case timer.ClockStop:
		e.stopTicker()
	}
	return nil
}

func (e *Engine) stopTicker() {
	if e.ticker != nil {
		e.ticker.Stop()
		e.ticker = nil
	}
}

// waitTick blocks a command goroutine on the next pulse of t. A stopped
// ticker yields no message.
func waitTick(t *clock.Ticker) tea.Cmd {
	return func() tea.Msg {
		at, ok := t.Wait()
		if !ok {
			return nil
		}
		return tickMsg{Gen: t.Generation(), At: at}
	}
}

func (e *Engine) handleTick(msg tickMsg) tea.Cmd {
	if e.ticker == nil || msg.Gen != e.ticker.Generation() {
		e.log.Debug().Uint64("gen", msg.Gen).Msg("stale tick dropped")
		return nil
	}

	eff := e.machine.Tick()
	if st := e.machine.State(); st.Phase == timer.PhaseFocus && st.Session != nil {
		if secs := st.Session.ElapsedSecs; secs > 0 && secs%touchEvery == 0 {
			e.touch()
		}
	}

	cmd := e.apply(eff)
	if e.ticker != nil && e.ticker.Generation() == msg.Gen {
		return tea.Batch(cmd, e.waitTick(e.ticker))
	}
	return cmd
}

func (e *Engine) openCmd(req timer.OpenRequest) tea.Cmd {
	l := e.deps.Ledger
	clk := e.source.Clock()
	timeout := e.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		id, err := l.OpenSession(ctx, req.SubjectID)
		return sessionOpenedMsg{
			Token:     req.Token,
			SubjectID: req.SubjectID,
			SessionID: id,
			At:        clk.Now(),
			Err:       err,
		}
	}
}

func (e *Engine) closeCmd(req ledger.CloseRequest) tea.Cmd {
	l := e.deps.Ledger
	timeout := e.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		reward, err := l.CloseSession(ctx, req)
		return sessionClosedMsg{Req: req, Reward: reward, Err: err}
	}
}

func (e *Engine) handleOpened(msg sessionOpenedMsg) tea.Cmd {
	if msg.Err != nil {
		e.log.Warn().Err(msg.Err).Str("subject_id", msg.SubjectID).Msg("open session failed")
		e.notify(failure("Could not start a study session", msg.Err))
		return e.apply(e.machine.OpenFailed(msg.Token))
	}

	eff := e.machine.OpenResolved(msg.Token, msg.SessionID, msg.SubjectID, msg.At)

	open := store.OpenSession{
		SessionID: msg.SessionID,
		SubjectID: msg.SubjectID,
		StartedAt: msg.At,
		UpdatedAt: msg.At,
	}
	if s := e.machine.State().Session; s != nil && s.ID == msg.SessionID {
		open.ElapsedSecs = s.ElapsedSecs
	}
	e.track(open)
	e.recordEvent(store.SessionEventData{
		Action:    store.ActionOpen,
		SessionID: msg.SessionID,
		SubjectID: msg.SubjectID,
	})
	e.log.Debug().Str("session_id", msg.SessionID).Str("subject_id", msg.SubjectID).Msg("session opened")
	return e.apply(eff)
}

func (e *Engine) handleClosed(msg sessionClosedMsg) tea.Cmd {
	req := msg.Req
	delete(e.crediting, req.SessionID)
	if msg.Err != nil {
		if errors.Is(msg.Err, ledger.ErrAlreadyClosed) {
			e.log.Debug().Str("session_id", req.SessionID).Msg("close already sent")
			return nil
		}
		e.log.Warn().Err(msg.Err).Str("session_id", req.SessionID).Msg("close session failed")
		e.recordEvent(store.SessionEventData{
			Action:    store.ActionFailed,
			SessionID: req.SessionID,
			SubjectID: req.SubjectID,
			Minutes:   req.Minutes,
			Skipped:   req.Skipped,
			Detail:    msg.Err.Error(),
		})
		if req.Skipped {
			e.notify(failure("Could not close the session", msg.Err))
		} else {
			e.notify(failure("Block finished but was not saved", msg.Err))
		}
		return nil
	}

	now := e.source.Now()
	e.forget(req.SessionID)
	e.recordEvent(store.SessionEventData{
		Action:    store.ActionClose,
		SessionID: req.SessionID,
		SubjectID: req.SubjectID,
		Minutes:   req.Minutes,
		Skipped:   req.Skipped,
		Coins:     msg.Reward.Coins,
		XP:        msg.Reward.XP,
		Timestamp: now,
	})

	credited := !req.Skipped && req.Minutes > 0
	if credited {
		e.tracker.CreditBlock(req.SubjectID, req.SessionID, req.Minutes, now)
	}

	var up *rewards.LevelUp
	if msg.Reward.Coins > 0 || msg.Reward.XP > 0 {
		up = e.rewards.Credit(context.Background(), rewards.Award{
			SessionID: req.SessionID,
			SubjectID: req.SubjectID,
			Minutes:   req.Minutes,
			Coins:     msg.Reward.Coins,
			XP:        msg.Reward.XP,
			AwardedAt: now,
		}, e.tracker.TotalStudied())
	}

	if credited {
		e.reproject()
		e.saveSnapshot()
		e.notify(Notice{Level: NoticeSuccess, Text: e.blockText(req, msg.Reward)})
	}
	return e.levelUp(up)
}

func (e *Engine) blockText(req ledger.CloseRequest, r ledger.Reward) string {
	name := req.SubjectID
	if s, ok := e.tracker.Subject(req.SubjectID); ok {
		name = s.Name
	}
	if r.Coins == 0 && r.XP == 0 {
		return fmt.Sprintf("Block complete: +%d min %s", req.Minutes, name)
	}
	return fmt.Sprintf("Block complete: +%d min %s, +%d coins, +%d xp", req.Minutes, name, r.Coins, r.XP)
}

// levelUp announces a level change and posts the milestone bonus.
func (e *Engine) levelUp(up *rewards.LevelUp) tea.Cmd {
	if up == nil {
		return nil
	}
	text := fmt.Sprintf("Level up! You reached level %d", up.To)
	if up.BonusCoins > 0 {
		text += fmt.Sprintf(" and earned a %d coin milestone bonus", up.BonusCoins)
	}
	e.notify(Notice{Level: NoticeSuccess, Text: text})
	e.log.Info().Int("from", up.From).Int("to", up.To).Int("bonus", up.BonusCoins).Msg("level up")

	if up.BonusCoins == 0 || e.deps.API == nil {
		return nil
	}
	api, log := e.deps.API, e.log
	req := backend.LevelBonusRequest{Level: up.To, BonusCoins: up.BonusCoins}
	timeout := e.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := api.LevelBonus(ctx, req); err != nil {
			log.Warn().Err(err).Int("level", req.Level).Msg("post level bonus")
		}
		return nil
	}
}

func (e *Engine) creditVisual(v timer.VisualCredit) {
	e.tracker.CreditVisual(v.SubjectID, v.Minutes, e.source.Now())
	e.recordEvent(store.SessionEventData{
		Action:    store.ActionVisual,
		SubjectID: v.SubjectID,
		Minutes:   v.Minutes,
	})
	e.reproject()
	e.saveSnapshot()
	e.notify(Notice{Level: NoticeInfo, Text: fmt.Sprintf("Block marked complete (+%d min, not saved to the ledger)", v.Minutes)})
}
