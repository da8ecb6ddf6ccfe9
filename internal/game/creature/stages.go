package creature

// Stage limits.
const (
	MinStage = -6
	MaxStage = 6
)

// Stages holds the in-battle stage of every staged stat.
//
// Invariant: every entry is within [MinStage, MaxStage].
type Stages [numStats]int

// Get returns the current stage of stat.
func (s *Stages) Get(stat Stat) int {
	return s[stat]
}

// Apply adds delta to stat, clamped to the stage range, and returns the change
// that actually took effect.
//
// Postcondition: MinStage <= s.Get(stat) <= MaxStage.
func (s *Stages) Apply(stat Stat, delta int) int {
	applied := ClampStageDelta(s[stat], delta)
	s[stat] += applied
	return applied
}

// Set forces stat to stage, clamped to the stage range.
func (s *Stages) Set(stat Stat, stage int) {
	s[stat] = clampStage(stage)
}

// PositiveTotal returns the sum of every raised stage.
func (s *Stages) PositiveTotal() int {
	total := 0
	for _, v := range s {
		if v > 0 {
			total += v
		}
	}
	return total
}

// ClampStageDelta returns the portion of delta that can be applied to a stat
// currently at stage without leaving the stage range.
//
// Postcondition: MinStage <= stage+result <= MaxStage when stage is in range.
func ClampStageDelta(stage, delta int) int {
	return clampStage(stage+delta) - stage
}

func clampStage(v int) int {
	if v < MinStage {
		return MinStage
	}
	if v > MaxStage {
		return MaxStage
	}
	return v
}

// StageMultiplier returns the factor a stat stage applies to Attack, Defense,
// SpAttack, SpDefense or Speed: (2+s)/2 when raised and 2/(2-s) when lowered.
func StageMultiplier(stage int) float64 {
	stage = clampStage(stage)
	if stage >= 0 {
		return float64(2+stage) / 2
	}
	return 2 / float64(2-stage)
}

// AccuracyMultiplier returns the factor a combined accuracy stage applies to
// hit chance: (3+s)/3 when raised and 3/(3-s) when lowered.
func AccuracyMultiplier(stage int) float64 {
	stage = clampStage(stage)
	if stage >= 0 {
		return float64(3+stage) / 3
	}
	return 3 / float64(3-stage)
}
