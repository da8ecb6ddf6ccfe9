package battle

import (
	"fmt"

	"go.uber.org/zap"
)

// ExperienceDivisor and TrainerBonus shape the experience yield of a
// defeated opponent: baseYield * level / ExperienceDivisor, times
// TrainerBonus in trainer battles.
const (
	ExperienceDivisor = 7
	TrainerBonus      = 1.5
)

// EvolutionPrompt asks the host to offer an evolution after the battle.
type EvolutionPrompt struct {
	Slot    int
	Name    string
	Species int
}

// ExperienceYield returns the experience a defeated battler of baseYield
// and level is worth in a battle of kind k.
func ExperienceYield(baseYield, level int, k Kind) int {
	total := baseYield * level / ExperienceDivisor
	if k == Trainer {
		total = int(float64(total) * TrainerBonus)
	}
	return total
}

// awardExperience splits the yield of opposing slot o among the player
// slots that fought it and are still standing, then drops its record.
func (s *Session) awardExperience(o int) {
	defer s.ctx.forgetOpponent(o)
	exp := s.deps.Experience
	fainted := s.parties[OpponentSide].Slots[o]
	if exp == nil || s.ctx.Kind == Link || fainted == nil || fainted.Species == nil {
		return
	}
	var earners []int
	for _, p := range s.ctx.Credited(o) {
		if in := s.parties[PlayerSide].Slots[p]; in != nil && !in.Fainted() {
			earners = append(earners, p)
		}
	}
	if len(earners) == 0 {
		return
	}
	total := ExperienceYield(fainted.Species.BaseExperience, fainted.Level, s.ctx.Kind)
	share := max(1, total/len(earners))
	for _, p := range earners {
		in := s.parties[PlayerSide].Slots[p]
		level, leveled := exp.AddExperience(in, share)
		s.say(PlayerSide, fmt.Sprintf("%s gained %d Exp. Points!", in.Name(), share))
		exp.AddEffortValues(in, fainted.Species.EffortYield)
		if !leveled {
			continue
		}
		s.say(PlayerSide, fmt.Sprintf("%s grew to level %d!", in.Name(), level))
		if sp, ok := exp.EvolutionTarget(in); ok {
			s.promptEvolution(p, in.Name(), sp)
		}
	}
	s.logger.Debug("experience awarded", zap.Int("opponent_slot", o), zap.Int("total", total), zap.Ints("earners", earners))
}

func (s *Session) promptEvolution(slot int, name string, species int) {
	for i, e := range s.evolutions {
		if e.Slot == slot {
			s.evolutions[i].Species = species
			return
		}
	}
	s.evolutions = append(s.evolutions, EvolutionPrompt{Slot: slot, Name: name, Species: species})
}
