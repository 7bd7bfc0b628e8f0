package domain

import "time"

// Winner values for a resolved market. WinnerUnset means the market has not
// been resolved yet.
const (
	WinnerUnset = 0
	Option1     = 1
	Option2     = 2
)

// ValidOption reports whether option names one of the two outcomes.
func ValidOption(option int) bool {
	return option == Option1 || option == Option2
}

// Market is a single binary-outcome question with a stake deadline.
//
// The stake fields describe the displayed book: Option1Stakes and
// Option2Stakes include market-owned counter-liquidity, and
// Option1Stakes + Option2Stakes == TotalStaked at all times. The Injected
// fields record how much of each side is market-owned; reward accounting
// works on the net (user-contributed) pools only.
type Market struct {
	ID            int64     `json:"id"`
	Question      string    `json:"question"`
	Option1       string    `json:"option1"`
	Option2       string    `json:"option2"`
	Creator       string    `json:"creator"`
	EndTime       time.Time `json:"end_time"`
	TotalStaked   float64   `json:"total_staked"`
	Option1Stakes float64   `json:"option1_stakes"`
	Option2Stakes float64   `json:"option2_stakes"`

	Option1Injected float64 `json:"option1_injected"`
	Option2Injected float64 `json:"option2_injected"`

	Resolved       bool       `json:"resolved"`
	Winner         int        `json:"winner"`
	ResolutionTime *time.Time `json:"resolution_time,omitempty"`
	Disputed       bool       `json:"disputed"`
	DisputeEndTime *time.Time `json:"dispute_end_time,omitempty"`

	// Adjudicated is set once any dispute on this market has been
	// adjudicated; from that point claims no longer wait for the dispute
	// window to elapse.
	Adjudicated bool `json:"adjudicated"`

	// SlashedBonds accumulates bonds retained from invalid disputes.
	SlashedBonds float64 `json:"slashed_bonds"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OptionStakes returns the displayed stake total for the given option.
func (m Market) OptionStakes(option int) float64 {
	if option == Option1 {
		return m.Option1Stakes
	}
	return m.Option2Stakes
}

// NetStakes returns the user-contributed stake total for the given option,
// excluding market-owned counter-liquidity.
func (m Market) NetStakes(option int) float64 {
	if option == Option1 {
		return m.Option1Stakes - m.Option1Injected
	}
	return m.Option2Stakes - m.Option2Injected
}

// Ended reports whether the staking deadline has passed at the given time.
func (m Market) Ended(now time.Time) bool {
	return !now.Before(m.EndTime)
}

// InDisputePeriod reports whether the market is resolved and the dispute
// window is still open at the given time.
func (m Market) InDisputePeriod(now time.Time) bool {
	return m.Resolved && m.DisputeEndTime != nil && now.Before(*m.DisputeEndTime)
}

// Finalized reports whether the outcome can no longer change: resolved,
// undisputed, and either past the dispute window or already adjudicated.
func (m Market) Finalized(now time.Time) bool {
	if !m.Resolved || m.Disputed {
		return false
	}
	if m.Adjudicated {
		return true
	}
	return m.DisputeEndTime != nil && !now.Before(*m.DisputeEndTime)
}
