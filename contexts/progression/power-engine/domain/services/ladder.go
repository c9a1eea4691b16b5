package services

import (
	"fmt"
	"math"
	"sort"

	"powertrack/contexts/progression/power-engine/domain/entities"
	domainerrors "powertrack/contexts/progression/power-engine/domain/errors"
)

var defaultTiers = []entities.TierThreshold{
	{TierID: entities.TierBase, Name: "Base Form", PointsRequired: 0, Rank: 0},
	{TierID: entities.Tier1, Name: "Super Saiyan", PointsRequired: 500, Rank: 1},
	{TierID: entities.Tier2, Name: "Super Saiyan 2", PointsRequired: 1500, Rank: 2},
	{TierID: entities.Tier3, Name: "Super Saiyan 3", PointsRequired: 3500, Rank: 3},
	{TierID: entities.Tier4, Name: "Super Saiyan God", PointsRequired: 7000, Rank: 4},
	{TierID: entities.Tier5, Name: "Super Saiyan Blue", PointsRequired: 12000, Rank: 5},
	{TierID: entities.Tier6, Name: "Ultra Instinct", PointsRequired: 20000, Rank: 6},
}

// Ladder is the ordered transformation table. The zero value behaves as the
// default ladder.
type Ladder struct {
	tiers []entities.TierThreshold
}

func DefaultLadder() Ladder {
	return Ladder{tiers: append([]entities.TierThreshold(nil), defaultTiers...)}
}

// NewLadder validates that tiers start at zero and strictly ascend.
func NewLadder(tiers []entities.TierThreshold) (Ladder, error) {
	if len(tiers) == 0 {
		return Ladder{}, fmt.Errorf("%w: ladder is empty", domainerrors.ErrInvalidPolicy)
	}
	if tiers[0].PointsRequired != 0 {
		return Ladder{}, fmt.Errorf("%w: first tier must require 0 points", domainerrors.ErrInvalidPolicy)
	}
	items := make([]entities.TierThreshold, len(tiers))
	for i, tier := range tiers {
		if i > 0 && tier.PointsRequired <= tiers[i-1].PointsRequired {
			return Ladder{}, fmt.Errorf("%w: tier %s is not above %s", domainerrors.ErrInvalidPolicy, tier.TierID, tiers[i-1].TierID)
		}
		tier.Rank = i
		items[i] = tier
	}
	return Ladder{tiers: items}, nil
}

func (l Ladder) entries() []entities.TierThreshold {
	if len(l.tiers) == 0 {
		return defaultTiers
	}
	return l.tiers
}

func (l Ladder) Tiers() []entities.TierThreshold {
	return append([]entities.TierThreshold(nil), l.entries()...)
}

// TierFor returns the highest tier whose requirement is <= total.
func (l Ladder) TierFor(total int64) entities.TierThreshold {
	tiers := l.entries()
	idx := sort.Search(len(tiers), func(i int) bool {
		return tiers[i].PointsRequired > total
	})
	if idx == 0 {
		return tiers[0]
	}
	return tiers[idx-1]
}

func (l Ladder) Lookup(id entities.TierID) (entities.TierThreshold, bool) {
	for _, tier := range l.entries() {
		if tier.TierID == id {
			return tier, true
		}
	}
	return entities.TierThreshold{}, false
}

func (l Ladder) Next(total int64) (entities.TierThreshold, bool) {
	tiers := l.entries()
	current := l.TierFor(total)
	if current.Rank+1 >= len(tiers) {
		return entities.TierThreshold{}, false
	}
	return tiers[current.Rank+1], true
}

func (l Ladder) PointsToNext(total int64) int64 {
	next, ok := l.Next(total)
	if !ok {
		return 0
	}
	return next.PointsRequired - total
}

// Progress is the percentage of the way from the current tier to the next,
// clamped to [0, 100] and rounded to one decimal. The top tier reports 100.
func (l Ladder) Progress(total int64) float64 {
	current := l.TierFor(total)
	next, ok := l.Next(total)
	if !ok {
		return 100
	}
	span := float64(next.PointsRequired - current.PointsRequired)
	pct := float64(total-current.PointsRequired) / span * 100
	pct = math.Max(0, math.Min(100, pct))
	return math.Round(pct*10) / 10
}

// Crossed reports the upward tier change between two totals, if any.
func (l Ladder) Crossed(oldTotal int64, newTotal int64) *entities.TransformationEvent {
	before := l.TierFor(oldTotal)
	after := l.TierFor(newTotal)
	if after.Rank <= before.Rank {
		return nil
	}
	return &entities.TransformationEvent{
		NewTier:        after.TierID,
		NewTierName:    after.Name,
		NewTotalPoints: newTotal,
	}
}

// UnlockedBetween lists every tier passed when moving from oldTotal to
// newTotal, lowest first. A single large award can skip several tiers.
func (l Ladder) UnlockedBetween(oldTotal int64, newTotal int64) []entities.TierThreshold {
	before := l.TierFor(oldTotal)
	after := l.TierFor(newTotal)
	if after.Rank <= before.Rank {
		return nil
	}
	tiers := l.entries()
	return append([]entities.TierThreshold(nil), tiers[before.Rank+1:after.Rank+1]...)
}
