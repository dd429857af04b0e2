package entity

// PoliceResult is the outcome of a police inspection, fixed at the moment
// the police inspects.
type PoliceResult string

const (
	PoliceResultNone        PoliceResult = "none"
	PoliceResultWerewolf    PoliceResult = "werewolf"
	PoliceResultNotWerewolf PoliceResult = "not_werewolf"
)

// RoundState holds the transient, per-night-cycle selections. One instance
// per session; all transient fields are reset to their empty form at the
// start of each new night cycle.
type RoundState struct {
	PhaseStarted bool

	// WolfTargets is keyed by werewolf participant id, one entry per wolf,
	// last-write-wins per wolf.
	WolfTargets map[string]string

	DoctorSaveTarget string // "" = none

	PoliceInspectTarget string // "" = none
	PoliceInspectResult PoliceResult

	// ResolvedDeaths is the set of participants killed at reveal, computed once.
	ResolvedDeaths map[string]bool
}

// NewRoundState returns a fresh round state for the start of a night cycle.
func NewRoundState() *RoundState {
	return &RoundState{
		PhaseStarted:        false,
		WolfTargets:         make(map[string]string),
		DoctorSaveTarget:    "",
		PoliceInspectTarget: "",
		PoliceInspectResult: PoliceResultNone,
		ResolvedDeaths:      make(map[string]bool),
	}
}

// WolfTargetSet returns the deduplicated multi-wolf target set T.
func (rs *RoundState) WolfTargetSet() map[string]bool {
	set := make(map[string]bool, len(rs.WolfTargets))
	for _, target := range rs.WolfTargets {
		if target != "" {
			set[target] = true
		}
	}
	return set
}
