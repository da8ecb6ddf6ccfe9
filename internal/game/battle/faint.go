package battle

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// faintCheck processes every fainted active: it clears the status, settles
// experience credit, cancels the owner's pending action and announces the
// faint. While the battle is still running each side with a fainted active
// is asked for a replacement; hazards on entry may cause further faints, so
// the routine repeats until both actives stand or the battle is decided.
func (s *Session) faintCheck(ctx context.Context) error {
	for {
		down := s.processFaints()
		if !down[PlayerSide] && !down[OpponentSide] {
			return nil
		}
		s.checkDefeat()
		if s.decided {
			return nil
		}
		if err := s.present.Play(ctx); err != nil {
			return fmt.Errorf("presenting faint: %w", err)
		}
		for side, fainted := range down {
			if !fainted {
				continue
			}
			if err := s.replace(ctx, side); err != nil {
				return err
			}
		}
		s.refreshCredit()
	}
}

// processFaints handles newly fainted actives and reports which sides need
// a replacement.
func (s *Session) processFaints() [2]bool {
	var down [2]bool
	for side := range s.parties {
		p := s.parties[side]
		in := p.ActiveSlot()
		if in == nil || !in.Fainted() {
			continue
		}
		down[side] = true
		if s.processed[side][p.Active] {
			continue
		}
		s.processed[side][p.Active] = true
		in.CureStatus()
		in.ResetBattle()
		if !s.acted[side] {
			s.cancelled[side] = true
		}
		s.present.Enqueue(Event{Kind: EventFaint, Side: side, Name: in.Name(), Text: fmt.Sprintf("%s fainted!", in.Name())})
		s.logger.Info("battler fainted", zap.Int("side", side), zap.String("name", in.Name()), zap.Int("turn", s.ctx.Turn))
		if side == PlayerSide {
			s.ctx.forgetPlayer(p.Active)
		} else {
			s.awardExperience(p.Active)
		}
	}
	return down
}

// replace asks side for a new active and sends it out. An invalid choice is
// replaced by the first healthy slot and reported as a diagnostic.
func (s *Session) replace(ctx context.Context, side int) error {
	p := s.parties[side]
	i, err := s.sides[side].RequestReplacement(ctx, s.View(side))
	if err != nil {
		return fmt.Errorf("requesting replacement from %s: %w", s.sides[side].Name(), err)
	}
	if err := CheckReplacement(p, i); err != nil {
		fallback, ok := p.FirstHealthy()
		if !ok {
			return nil
		}
		s.diagnose(DiagInvalidReplacement, "%s: %v, sending out slot %d", s.sides[side].Name(), err, fallback)
		i = fallback
	}
	p.Active = i
	in := p.ActiveSlot()
	in.ResetBattle()
	s.processed[side][i] = false
	s.sendOutEvent(side, in)
	s.enterField(side)
	return nil
}
