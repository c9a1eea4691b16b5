package entities

type TierID string

const (
	TierBase TierID = "base"
	Tier1    TierID = "tier1"
	Tier2    TierID = "tier2"
	Tier3    TierID = "tier3"
	Tier4    TierID = "tier4"
	Tier5    TierID = "tier5"
	Tier6    TierID = "tier6"
)

type TierThreshold struct {
	TierID         TierID
	Name           string
	PointsRequired int64
	Rank           int
}

// TransformationEvent is produced by a commit that moves a user to a higher
// tier. It is reported to the caller and published, never stored.
type TransformationEvent struct {
	NewTier        TierID `json:"new_tier"`
	NewTierName    string `json:"new_tier_name"`
	NewTotalPoints int64  `json:"new_total_points"`
}
