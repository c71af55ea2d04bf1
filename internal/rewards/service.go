// Package rewards tracks coins, experience and levels, detects level-ups
// and milestone bonuses, and records every grant to the event log.
package rewards

import (
	"context"
	"time"

	"github.com/abhisek/focuscycle/internal/store"
	"github.com/jonboulle/clockwork"
)

// Award is what one committed session earned.
type Award struct {
	SessionID string
	SubjectID string
	Minutes   int
	Coins     int
	XP        int
	AwardedAt time.Time
}

// LevelUp describes a level change worth celebrating.
type LevelUp struct {
	From       int
	To         int
	Milestone  bool
	BonusCoins int
}

// Service manages the wallet and award tracking.
type Service struct {
	wallet    Wallet
	announced int
	eventRepo store.EventRepo
	clock     clockwork.Clock

	// SessionAwards accumulates awards granted since the program started.
	SessionAwards []Award
}

// NewService creates a Service. eventRepo may be nil.
func NewService(eventRepo store.EventRepo, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		wallet:    Wallet{Level: 1},
		announced: 1,
		eventRepo: eventRepo,
		clock:     clock,
	}
}

// Wallet returns the current wallet.
func (s *Service) Wallet() Wallet {
	return s.wallet
}

// Sync adopts the wallet from an authoritative stats snapshot. A level
// above the last announced one is reported.
func (s *Service) Sync(ctx context.Context, w Wallet, totalMinutes int) *LevelUp {
	if w.Level < 1 {
		w.Level = 1
	}
	s.wallet = w
	return s.checkLevel(ctx, totalMinutes)
}

// Credit applies an award from a committed session.
func (s *Service) Credit(ctx context.Context, a Award, totalMinutes int) *LevelUp {
	if a.AwardedAt.IsZero() {
		a.AwardedAt = s.clock.Now()
	}
	s.wallet.Add(a.Coins, a.XP)
	s.SessionAwards = append(s.SessionAwards, a)
	s.persist(ctx, store.RewardEventData{
		Kind:      store.RewardSession,
		SessionID: a.SessionID,
		Coins:     a.Coins,
		XP:        a.XP,
		Level:     s.wallet.Level,
		Timestamp: a.AwardedAt,
	})
	return s.checkLevel(ctx, totalMinutes)
}

// Earned sums coins and xp of the accumulated awards.
func (s *Service) Earned() (coins, xp int) {
	for _, a := range s.SessionAwards {
		coins += a.Coins
		xp += a.XP
	}
	return coins, xp
}

// SnapshotData builds the wallet for snapshot persistence.
func (s *Service) SnapshotData() *store.WalletData {
	return &store.WalletData{Coins: s.wallet.Coins, XP: s.wallet.XP, Level: s.wallet.Level}
}

// Restore loads a persisted wallet without announcing a level-up.
func (s *Service) Restore(d *store.WalletData) {
	if d == nil {
		return
	}
	s.wallet = Wallet{Coins: d.Coins, XP: d.XP, Level: max(1, d.Level)}
	s.announced = s.wallet.Level
}

func (s *Service) checkLevel(ctx context.Context, totalMinutes int) *LevelUp {
	if s.wallet.Level <= s.announced {
		return nil
	}
	up := &LevelUp{From: s.announced, To: s.wallet.Level}
	for lvl := up.From + 1; lvl <= up.To; lvl++ {
		if IsMilestone(lvl) {
			up.Milestone = true
		}
	}
	s.announced = s.wallet.Level

	now := s.clock.Now()
	s.persist(ctx, store.RewardEventData{Kind: store.RewardLevelUp, Level: up.To, Timestamp: now})
	if up.Milestone {
		up.BonusCoins = MilestoneBonus(totalMinutes)
		s.wallet.Coins += up.BonusCoins
		s.persist(ctx, store.RewardEventData{
			Kind:      store.RewardMilestone,
			Coins:     up.BonusCoins,
			Level:     up.To,
			Timestamp: now,
		})
	}
	return up
}

func (s *Service) persist(ctx context.Context, data store.RewardEventData) {
	if s.eventRepo == nil {
		return
	}
	_ = s.eventRepo.AppendRewardEvent(ctx, data)
}
