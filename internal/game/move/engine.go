package move

import (
	"slices"

	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/dice"
	"github.com/cory-johannsen/monbattle/internal/game/weather"
	"go.uber.org/zap"
)

// Input is everything one move use is resolved against. User and Target are
// never modified.
type Input struct {
	Move     *Definition
	Struggle bool
	User     *creature.Instance
	Target   *creature.Instance
	Field    Field
	// Continuation marks the forced follow-up turn of a charging or
	// rampaging move. Continuation turns do not spend PP.
	Continuation bool
}

// Engine resolves move uses into Results.
type Engine struct {
	moves    *Registry
	statuses *condition.Registry
	logger   *zap.Logger
}

// NewEngine creates an Engine over the given catalogues.
//
// Precondition: moves and statuses must be non-nil. A nil logger is replaced with zap.NewNop().
func NewEngine(moves *Registry, statuses *condition.Registry, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{moves: moves, statuses: statuses, logger: logger}
}

// Moves returns the move catalogue the engine resolves against.
func (e *Engine) Moves() *Registry { return e.moves }

// Statuses returns the status catalogue the engine resolves against.
func (e *Engine) Statuses() *condition.Registry { return e.statuses }

// Resolve runs the fixed pipeline for one move use: action gate, confusion,
// accuracy, failure predicate, hit count, the per-hit loop, and aggregation.
//
// Precondition: in.User and in.Target are non-nil; in.Move is non-nil unless in.Struggle.
// Postcondition: in.User and in.Target are unchanged; exactly one Outcome is set.
func (e *Engine) Resolve(in Input, roll *dice.Roller) *Results {
	def := in.Move
	if in.Struggle || def == nil {
		def = Struggle
	}
	c := &Ctx{
		Move:   def,
		User:   in.User.Clone(),
		Target: in.Target.Clone(),
		Field:  in.Field,
		Roll:   roll,
		engine: e,
		res:    &Results{MoveID: def.ID, Struggle: def.ID == StruggleID, Effectiveness: NormalEffect},
	}
	if c.Field.Weather == nil {
		c.Field.Weather = &weather.Definition{ID: weather.Clear, Name: "Clear Sky"}
	}
	if c.res.Struggle {
		c.hooks = &Hooks{}
	} else {
		c.hooks = e.moves.HooksFor(def)
	}

	e.run(c, in.Continuation)
	e.aggregate(c)

	e.logger.Debug("move resolved",
		zap.String("move", def.Name),
		zap.String("user", in.User.Name()),
		zap.String("target", in.Target.Name()),
		zap.String("outcome", c.res.Outcome.String()),
		zap.Int("hits", c.res.Hits),
		zap.Int("target_damage", c.targetDamage),
		zap.Int("user_damage", c.userDamage),
	)
	return c.res
}

func (e *Engine) run(c *Ctx, continuation bool) {
	def, h, r := c.Move, c.hooks, c.res
	v := &c.User.Battle.Volatile

	if e.gate(c) {
		return
	}
	if !r.Struggle {
		v.LastMove = def.ID
	}
	r.ConsumesPP = !r.Struggle && !continuation
	if !def.Protect {
		v.ProtectStreak = 0
	}

	if def.Charge != nil {
		if v.ChargingMove != def.ID && (h.SkipCharge == nil || !h.SkipCharge(c)) {
			v.ChargingMove = def.ID
			v.SemiInvulnerable = def.Charge.SemiInvulnerable
			c.Note(def.Charge.Message)
			r.Outcome = Succeeded
			return
		}
		v.ChargingMove = 0
		v.SemiInvulnerable = false
	}

	c.Note("{user} used {move}!")

	if def.Target == Opponent && !e.connects(c) {
		e.endRampage(c, false)
		return
	}
	v.TakingAim = 0

	if e.fails(c) || (h.Fail != nil && h.Fail(c)) {
		if r.Effectiveness == Immune {
			c.Note("It doesn't affect {target}...")
		} else {
			c.Note("But it failed!")
		}
		r.Outcome = Failed
		if def.Protect {
			v.ProtectStreak = 0
		}
		e.endRampage(c, false)
		return
	}

	hits := 1
	switch {
	case h.Hits != nil:
		hits = h.Hits(c)
	case !def.Hits.IsZero():
		hits = rollHits(c.Roll, def.Hits)
	}
	if hits < 1 {
		hits = 1
	}
	r.HitsPlanned = hits

	for c.Hit = 0; c.Hit < hits; c.Hit++ {
		e.hit(c)
		r.Hits++
		if c.User.Fainted() || c.Target.Fainted() {
			break
		}
	}

	r.Outcome = Succeeded
	if def.Category == Status && !c.changed {
		r.Outcome = Failed
		if len(r.Stages) == 0 {
			c.Note("But it failed!")
		}
	}
	if def.Protect {
		if r.Outcome == Succeeded {
			v.ProtectStreak++
		} else {
			v.ProtectStreak = 0
		}
	}
	if def.Recharge && r.Outcome == Succeeded {
		v.Recharging = true
	}
	e.endRampage(c, true)
}

// gate applies the recharge, flinch, sleep, freeze, paralysis, confusion,
// infatuation, taunt and heal-block checks. It reports whether the user is
// stopped from acting.
func (e *Engine) gate(c *Ctx) bool {
	def, h := c.Move, c.hooks
	u := c.User
	v := &u.Battle.Volatile

	if v.Recharging {
		v.Recharging = false
		return c.block(BlockedRecharge, "{user} must recharge!")
	}
	if v.Flinched {
		return c.block(BlockedFlinch, "{user} flinched and couldn't move!")
	}
	switch u.Status {
	case condition.Asleep:
		if u.SleepTurns <= 0 {
			c.SetStatus(User, condition.None, 0)
			c.Note(condition.Message(e.statuses.MustGet(condition.Asleep).CureMessage, u.Name()))
			break
		}
		u.SleepTurns--
		if !h.WhileAsleep {
			return c.block(BlockedSleep, condition.Message(e.statuses.MustGet(condition.Asleep).BlockedMessage, u.Name()))
		}
	case condition.Frozen:
		if !def.Thaws {
			return c.block(BlockedFreeze, condition.Message(e.statuses.MustGet(condition.Frozen).BlockedMessage, u.Name()))
		}
		c.SetStatus(User, condition.None, 0)
		c.Note(condition.Message(e.statuses.MustGet(condition.Frozen).CureMessage, u.Name()))
	case condition.Paralysed:
		sd := e.statuses.MustGet(condition.Paralysed)
		p := sd.BlockChance
		if p == 0 {
			p = 0.25
		}
		if c.Roll.Chance("paralysis", p) {
			return c.block(BlockedParalysis, condition.Message(sd.BlockedMessage, u.Name()))
		}
	}

	if v.Confusion > 0 {
		if v.Confusion == 1 {
			v.Confusion = 0
			c.Note("{user} snapped out of its confusion!")
		} else {
			v.Confusion--
			c.Note("{user} is confused!")
			if c.Roll.Chance("confusion", 1.0/3.0) {
				ratio := float64(u.EffectiveStat(creature.Attack)) / float64(u.EffectiveStat(creature.Defense))
				spread := float64(c.Roll.Between("damage spread", MinSpread, MaxSpread)) / 100
				c.DealDamage(User, max(1, RawDamage(u.Level, ConfusionHitPower, ratio, spread)))
				return c.block(BlockedConfusion, "It hurt itself in its confusion!")
			}
		}
	}
	if v.Infatuated {
		c.Note("{user} is in love with {target}!")
		if c.Roll.Chance("infatuation", 0.5) {
			return c.block(BlockedInfatuation, "{user} is immobilized by love!")
		}
	}
	if v.Taunt > 0 && def.Category == Status {
		return c.block(BlockedTaunt, "{user} can't use {move} after the taunt!")
	}
	if v.HealBlock > 0 && def.Heal > 0 {
		return c.block(BlockedHealBlock, "{user} can't use {move} because of Heal Block!")
	}
	return false
}

// block records a stopped turn. Blocked turns spend no PP and interrupt any
// charge or rampage in progress.
func (c *Ctx) block(b Block, note string) bool {
	c.res.Block = b
	c.res.Outcome = Failed
	c.res.ConsumesPP = false
	c.Note(note)
	v := &c.User.Battle.Volatile
	v.ChargingMove = 0
	v.SemiInvulnerable = false
	v.ThrashTurns, v.ThrashMove = 0, 0
	return true
}

// connects runs the protection, semi-invulnerability and accuracy checks.
func (e *Engine) connects(c *Ctx) bool {
	def, h := c.Move, c.hooks
	tv := &c.Target.Battle.Volatile
	uv := &c.User.Battle.Volatile

	if tv.Protected {
		c.Note("{target} protected itself!")
		c.res.Outcome = Failed
		return false
	}
	if tv.SemiInvulnerable && uv.TakingAim == 0 && !slices.Contains(def.Reaches, tv.ChargingMove) {
		c.miss()
		return false
	}

	acc := def.Accuracy
	if h.Accuracy != nil {
		acc = h.Accuracy(c, acc)
	}
	if def.InstantKO {
		if c.Target.Level > c.User.Level {
			return true // the failure predicate reports it
		}
		acc = 30 + c.User.Level - c.Target.Level
	}
	if acc <= 0 || uv.TakingAim > 0 {
		return true
	}
	if !def.InstantKO {
		evasion := c.Target.Battle.Stages.Get(creature.Evasion)
		if tv.Identified && evasion > 0 {
			evasion = 0
		}
		stage := c.User.Battle.Stages.Get(creature.Accuracy) - evasion
		acc = roundHalf(float64(acc) * creature.AccuracyMultiplier(stage) * c.Field.Weather.Accuracy())
	}
	if c.Roll.Roll("accuracy", 100) < acc {
		return true
	}
	c.miss()
	return false
}

func (c *Ctx) miss() {
	c.res.Outcome = Missed
	c.Note("{user}'s attack missed!")
}

// fails evaluates the data-driven failure predicates.
func (e *Engine) fails(c *Ctx) bool {
	def, f := c.Move, c.Field
	u, t := c.User, c.Target

	if def.IsDamaging() && def.Type != creature.Typeless {
		if eff := c.Effectiveness(); eff == 0 {
			c.res.Effectiveness = Immune
			return true
		}
	}
	if def.InstantKO && t.Level > u.Level {
		return true
	}
	if def.Weather != nil && f.WeatherID() == *def.Weather {
		return true
	}
	if def.Hazard != NoHazard && f.TargetHazards.Layers(def.Hazard) >= MaxHazardLayers[def.Hazard] {
		return true
	}
	if def.TrickRoom && f.TrickRoom {
		return true
	}
	if def.Protect {
		if f.TargetActed {
			return true
		}
		if streak := u.Battle.Volatile.ProtectStreak; streak > 0 {
			if !c.Roll.Chance("protect streak", 1/float64(int(1)<<min(streak, 8))) {
				return true
			}
		}
	}
	if def.Category == Status && def.Heal > 0 && len(def.UserStats) == 0 && u.Health >= u.MaxHealth() {
		return true
	}
	if def.Category == Status && def.Target == Opponent && len(def.Statuses) > 0 && def.Statuses[0].Chance == 0 {
		if !c.CanInflict(Target, def.Statuses[0].Status) && len(def.TargetStats) == 0 {
			return true
		}
	}
	if def.Category == Status && def.ConfusionChance >= 1 && len(def.TargetStats) == 0 && t.Battle.Volatile.Confusion > 0 {
		return true
	}
	return false
}

// hit computes one hit: damage, then the secondary effects.
func (e *Engine) hit(c *Ctx) {
	dealt := 0
	if c.Move.IsDamaging() {
		dealt = e.damage(c)
	}
	e.secondary(c, dealt)
	if c.hooks.Effect != nil {
		c.hooks.Effect(c, dealt)
	}
}

func (e *Engine) damage(c *Ctx) int {
	def, h := c.Move, c.hooks
	t := c.Target

	amount, overridden := 0, false
	if h.Damage != nil {
		amount, overridden = h.Damage(c)
	}
	if !overridden {
		switch {
		case def.FixedDamage > 0:
			amount = def.FixedDamage
		case def.InstantKO:
			amount = t.Health
			c.Note("It's a one-hit KO!")
		default:
			amount = e.formula(c)
		}
	}
	if amount <= 0 {
		return 0
	}
	if amount >= t.Health {
		switch {
		case t.Battle.Volatile.Bracing:
			amount = t.Health - 1
			c.Note("{target} endured the hit!")
		case h.LeaveOne:
			amount = t.Health - 1
		}
	}
	return c.DealDamage(Target, amount)
}

// formula computes the standard damage formula for the current hit.
func (e *Engine) formula(c *Ctx) int {
	def, h, r := c.Move, c.hooks, c.res
	u, t := c.User, c.Target

	power := def.Power
	if h.Power != nil {
		power = h.Power(c, power)
	}
	if power <= 0 {
		return 0
	}

	critStage := def.CritStage
	if u.Battle.Volatile.CritBoost {
		critStage += 2
	}
	crit := c.Roll.Chance("critical", CritChance(critStage))

	atkStat, defStat := creature.Attack, creature.Defense
	if def.Category == Special {
		atkStat, defStat = creature.SpAttack, creature.SpDefense
	}
	atkStage := u.Battle.Stages.Get(atkStat)
	defStage := t.Battle.Stages.Get(defStat)
	if crit {
		atkStage = max(atkStage, 0)
		defStage = min(defStage, 0)
	}
	w := c.Field.Weather
	attack := float64(u.Stats.Get(atkStat)) * creature.StageMultiplier(atkStage) * w.StatMultiplier(u.Types(), atkStat)
	defense := float64(t.Stats.Get(defStat)) * creature.StageMultiplier(defStage) * w.StatMultiplier(t.Types(), defStat)
	if defense < 1 {
		defense = 1
	}

	mod := 1.0
	if !h.NoSpread {
		mod *= float64(c.Roll.Between("damage spread", MinSpread, MaxSpread)) / 100
	}
	if def.Type != creature.Typeless && u.HasType(def.Type) {
		mod *= STABMultiplier
	}
	eff := 1.0
	if def.Type != creature.Typeless {
		eff = c.Effectiveness()
	}
	mod *= eff
	if c.Hit == 0 {
		r.Effectiveness = TierOf(eff)
	}
	if crit {
		mod *= CritMultiplier
		r.Critical = true
	}
	if def.Category == Physical && u.Status == condition.Burn {
		mod *= BurnMultiplier
	}
	mod *= w.PowerMultiplier(def.Type)

	dmg := RawDamage(u.Level, power, attack/defense, mod)
	if dmg < 1 && eff > 0 {
		dmg = 1
	}
	return dmg
}

// secondary applies the data-table effects of one hit.
func (e *Engine) secondary(c *Ctx, dealt int) {
	def, h, r := c.Move, c.hooks, c.res
	u, t := c.User, c.Target
	reachesTarget := def.Target == Opponent && !t.Fainted() && (!def.IsDamaging() || dealt > 0)

	if dealt > 0 && def.Type == creature.Fire && t.Status == condition.Frozen {
		c.SetStatus(Target, condition.None, 0)
	}

	skipData := h.SkipDataEffects != nil && h.SkipDataEffects(c)
	if !skipData {
		if reachesTarget || def.Target != Opponent {
			for _, sc := range def.TargetStats {
				if sc.Chance == 0 || c.Roll.Chance("target stat", sc.Chance) {
					c.ChangeStage(Target, sc.Stat, sc.Delta)
				}
			}
		}
		if !def.IsDamaging() || dealt > 0 {
			for _, sc := range def.UserStats {
				if sc.Chance == 0 || c.Roll.Chance("user stat", sc.Chance) {
					c.ChangeStage(User, sc.Stat, sc.Delta)
				}
			}
		}
	}

	if reachesTarget {
		for _, st := range def.Statuses {
			if !c.CanInflict(Target, st.Status) {
				continue
			}
			if st.Chance == 0 || c.Roll.Chance("status", st.Chance) {
				c.Inflict(Target, st.Status)
				break
			}
		}
		if def.FlinchChance > 0 && !c.Field.TargetActed && c.Roll.Chance("flinch", def.FlinchChance) {
			c.AddVolatile(Target, condition.Flinch, 1)
		}
		if def.ConfusionChance > 0 && (def.ConfusionChance >= 1 || c.Roll.Chance("confusion chance", def.ConfusionChance)) {
			c.AddVolatile(Target, condition.Confusion, 0)
		}
	}

	fieldReach := def.Target == FieldWide && !t.Fainted()
	for _, ve := range def.Volatiles {
		if ve.Side == Target && !reachesTarget && !fieldReach {
			continue
		}
		if ve.Chance > 0 && !c.Roll.Chance(ve.Kind.String(), ve.Chance) {
			continue
		}
		turns := 0
		if !ve.Turns.IsZero() {
			turns = c.Roll.RollRange(ve.Kind.String()+" turns", ve.Turns)
		}
		c.AddVolatile(ve.Side, ve.Kind, turns)
	}

	if !def.Recoil.IsZero() && (dealt > 0 || def.Recoil.DamageFraction == 0) {
		n := roundHalf(float64(dealt)*def.Recoil.DamageFraction) +
			roundHalf(float64(u.MaxHealth())*def.Recoil.MaxHealthFraction) +
			def.Recoil.Absolute
		if n < 1 {
			n = 1
		}
		c.DealDamage(User, n)
	}
	if def.Drain > 0 && dealt > 0 {
		c.Restore(User, max(1, roundHalf(float64(dealt)*def.Drain)))
	}
	heal := def.Heal
	if h.HealFraction != nil {
		heal = h.HealFraction(c, heal)
	}
	if heal > 0 {
		c.Restore(User, max(1, roundHalf(float64(u.MaxHealth())*heal)))
	}
	if def.CureUser && u.Status != condition.None {
		c.SetStatus(User, condition.None, 0)
	}
	if def.UserFaints {
		c.DealDamage(User, u.Health)
	}

	if def.Weather != nil && r.Weather == nil {
		id := *def.Weather
		r.Weather = &id
		c.changed = true
	}
	if def.Hazard != NoHazard && r.Hazard == NoHazard {
		r.Hazard = def.Hazard
		c.changed = true
	}
	if def.ClearHazards {
		r.ClearHazards = true
		c.changed = true
	}
	if def.TrickRoom {
		r.TrickRoom = true
		c.changed = true
	}
}

// endRampage advances a rampaging move. A rampage that completes confuses the
// user; one that is interrupted ends without confusion.
func (e *Engine) endRampage(c *Ctx, landed bool) {
	if !c.Move.Rampage {
		return
	}
	v := &c.User.Battle.Volatile
	if !landed {
		v.ThrashTurns, v.ThrashMove = 0, 0
		return
	}
	if v.ThrashMove != c.Move.ID {
		v.ThrashMove = c.Move.ID
		v.ThrashTurns = c.Roll.Between("rampage turns", 2, 3) - 1
		return
	}
	v.ThrashTurns--
	if v.ThrashTurns <= 0 {
		v.ThrashTurns, v.ThrashMove = 0, 0
		if c.AddVolatile(User, condition.Confusion, 0) {
			c.Note("{user} became confused due to fatigue!")
		}
	}
}

// aggregate settles the per-side health totals and copies the user's
// bookkeeping onto the results.
func (e *Engine) aggregate(c *Ctx) {
	r := c.res
	r.User = e.settle(c, User, c.userDamage, c.userHeal)
	r.Target = e.settle(c, Target, c.targetDamage, c.targetHeal)

	u := c.User
	v := &u.Battle.Volatile
	r.Counters = Counters{
		SleepTurns:       u.SleepTurns,
		Confusion:        v.Confusion,
		ThrashTurns:      v.ThrashTurns,
		ThrashMove:       v.ThrashMove,
		ChargingMove:     v.ChargingMove,
		SemiInvulnerable: v.SemiInvulnerable,
		Recharging:       v.Recharging,
		LastMove:         v.LastMove,
		ProtectStreak:    v.ProtectStreak,
		TakingAim:        v.TakingAim,
	}
}

// settle collapses a side's damage and healing into one HealthChange. Both
// being present is an authoring defect; damage wins and a warning is logged.
func (e *Engine) settle(c *Ctx, s Side, damage, heal int) HealthChange {
	switch {
	case damage > 0 && heal > 0:
		e.logger.Warn("move produced damage and healing on one side; applying damage",
			zap.String("move", c.Move.Name),
			zap.String("side", s.String()),
			zap.Int("damage", damage),
			zap.Int("heal", heal),
		)
		return Damage(damage)
	case damage > 0:
		return Damage(damage)
	case heal > 0:
		return Healing(heal)
	}
	return HealthChange{}
}

// rollHits draws a hit count. The common 2-5 range uses the weighted
// 3:3:1:1 distribution; any other range is uniform.
func rollHits(roll *dice.Roller, rg dice.Range) int {
	if rg.Min == 2 && rg.Max == 5 {
		switch n := roll.Roll("hits", 8); {
		case n < 3:
			return 2
		case n < 6:
			return 3
		case n < 7:
			return 4
		default:
			return 5
		}
	}
	return roll.RollRange("hits", rg)
}
