package battle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/dice"
	"github.com/cory-johannsen/monbattle/internal/game/inventory"
	"github.com/cory-johannsen/monbattle/internal/game/move"
	"github.com/cory-johannsen/monbattle/internal/game/weather"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
)

// TracerName is the instrumentation scope of battle spans.
const TracerName = "github.com/cory-johannsen/monbattle/internal/game/battle"

// State is a step of the session state machine.
type State int

const (
	StateSetup State = iota
	StateAwaitingActions
	StateOrdering
	StateExecuting
	StateEndOfTurn
	StateTerminated
)

var stateNames = [...]string{"setup", "awaiting_actions", "ordering", "executing", "end_of_turn", "terminated"}

// String returns the state id.
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// TieBreak decides who acts first when two Fight actions share priority and
// effective speed.
type TieBreak int

const (
	// TieRandom flips a fair coin through the battle's dice.
	TieRandom TieBreak = iota
	// TieFirst lets the player side act first.
	TieFirst
)

// ParseTieBreak resolves "random" or "first".
func ParseTieBreak(s string) (TieBreak, error) {
	switch strings.ToLower(s) {
	case "", "random":
		return TieRandom, nil
	case "first":
		return TieFirst, nil
	}
	return 0, fmt.Errorf("battle: unknown tie-break policy %q", s)
}

// Config holds the entrance parameters of one battle.
type Config struct {
	Kind        Kind
	Weather     weather.ID
	Permissions *ItemPermissions // nil uses DefaultPermissions(Kind)
	TieBreak    TieBreak
	BasePayout  int
	Seed        uint64 // 0 draws a fresh seed
	Language    language.Tag
	// Opponent names the opposing trainer in narration; empty for wild battles.
	Opponent string
	// Mirrored is set on the guest of a linked battle, whose opponent side is
	// the host's player side. Speed ties then resolve from the host's view.
	Mirrored bool
}

// Deps are the collaborators a Session borrows.
type Deps struct {
	Engine     *move.Engine
	Weather    *weather.Registry
	Items      *inventory.Registry
	Species    *creature.SpeciesRegistry
	Presenter  Presenter
	Inventory  Inventory  // player side; nil disables item consumption and money
	Experience Experience // nil disables experience
	Source     dice.Source
	Logger     *zap.Logger
	Tracer     trace.Tracer
}

// Session runs one battle. Every rule step runs on the goroutine that called
// Run; only BetweenTurns may be called from elsewhere.
type Session struct {
	cfg     Config
	deps    Deps
	ctx     *Context
	sides   [2]Participant
	parties [2]*creature.Party
	roll    *dice.Roller
	logger  *zap.Logger
	present Presenter
	tracer  trace.Tracer

	state       State
	diagnostics []Diagnostic
	decided     bool
	outcome     Outcome
	caught      *creature.Instance
	evolutions  []EvolutionPrompt

	acted     [2]bool
	cancelled [2]bool
	processed [2][creature.PartySize]bool

	mu      sync.Mutex
	pending []func(*Context, [2]*creature.Party)
}

// NewSession prepares a battle between player and opponent. A nil opponent
// is replaced at setup by a generated placeholder and a diagnostic.
//
// Precondition: deps.Engine and player must be non-nil.
// Postcondition: the session is in StateSetup.
func NewSession(cfg Config, deps Deps, player, opponent Participant) (*Session, error) {
	if deps.Engine == nil {
		return nil, errors.New("battle: move engine must not be nil")
	}
	if player == nil {
		return nil, errors.New("battle: player participant must not be nil")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Weather == nil {
		deps.Weather = weather.NewRegistry()
	}
	if deps.Items == nil {
		deps.Items = inventory.NewRegistry()
	}
	if deps.Presenter == nil {
		deps.Presenter = NopPresenter{}
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer(TracerName)
	}
	if cfg.Seed == 0 {
		cfg.Seed = dice.NewSeed()
	}
	src := deps.Source
	if src == nil {
		src = dice.NewSeededSource(cfg.Seed)
	}
	if cfg.Language == language.Und {
		cfg.Language = language.English
	}

	s := &Session{
		cfg:     cfg,
		deps:    deps,
		sides:   [2]Participant{player, opponent},
		present: deps.Presenter,
		tracer:  deps.Tracer,
	}
	id := uuid.New()
	s.logger = deps.Logger.With(zap.String("battle_id", id.String()))
	s.roll = dice.NewLoggedRoller(src, s.logger)
	s.ctx = newContext(id, cfg.Kind, cfg.Weather, DefaultPermissions(cfg.Kind), cfg.Seed)
	if cfg.Permissions != nil {
		s.ctx.Permissions = *cfg.Permissions
	}
	return s, nil
}

// ID returns the battle id.
func (s *Session) ID() uuid.UUID { return s.ctx.ID }

// Context returns the battle context. It must only be read between turns
// or after Run returns.
func (s *Session) Context() *Context { return s.ctx }

// State returns the current state machine step.
func (s *Session) State() State { return s.state }

// BetweenTurns queues a synchronous mutation applied after the current
// turn's end-of-turn step completes. It is safe to call from any goroutine.
func (s *Session) BetweenTurns(fn func(*Context, [2]*creature.Party)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, fn)
}

// Run plays the battle to completion.
//
// Postcondition: on success the session is in StateTerminated and the
// returned Result carries every recovered diagnostic. Participant and
// presenter errors, and contract breaches, abort the battle with an error.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "battle.Run", trace.WithAttributes(
		attribute.String("battle.id", s.ctx.ID.String()),
		attribute.String("battle.kind", s.cfg.Kind.String()),
	))
	defer span.End()

	if err := s.run(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("battle aborted", zap.Error(err), zap.Int("turn", s.ctx.Turn))
		return nil, err
	}
	res, err := s.finish(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("battle.outcome", res.Outcome.String()),
		attribute.Int("battle.turns", res.Turns),
	)
	return res, nil
}

func (s *Session) run(ctx context.Context) error {
	if err := s.setup(ctx); err != nil {
		return err
	}
	for !s.decided {
		if err := s.turn(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) transition(to State) {
	s.logger.Debug("battle state", zap.String("from", s.state.String()), zap.String("to", to.String()), zap.Int("turn", s.ctx.Turn))
	s.state = to
}

func (s *Session) diagnose(code, format string, args ...any) {
	d := Diagnostic{Code: code, Message: fmt.Sprintf(format, args...)}
	s.diagnostics = append(s.diagnostics, d)
	s.logger.Warn("battle configuration error", zap.String("code", d.Code), zap.String("detail", d.Message), zap.Int("turn", s.ctx.Turn))
}

func (s *Session) active(side int) *creature.Instance {
	return s.parties[side].ActiveSlot()
}

func (s *Session) say(side int, text string) {
	s.present.Enqueue(Event{Kind: EventText, Side: side, Text: text})
}

// setup builds the rosters, picks the first actives and plays the intro.
func (s *Session) setup(ctx context.Context) error {
	s.transition(StateSetup)
	if !s.cfg.Kind.Valid() {
		s.diagnose(DiagUnknownKind, "unknown battle kind %d, using wild rules", int(s.cfg.Kind))
		s.cfg.Kind = Wild
		s.ctx.Kind = Wild
		if s.cfg.Permissions == nil {
			s.ctx.Permissions = DefaultPermissions(Wild)
		}
	}
	if _, ok := s.deps.Weather.Get(s.cfg.Weather); !ok {
		s.diagnose(DiagUnknownWeather, "unknown weather %d, using clear sky", int(s.cfg.Weather))
		s.ctx.InitialWeather, s.ctx.Weather = weather.Clear, weather.Clear
	}
	if s.sides[OpponentSide] == nil || s.sides[OpponentSide].Party() == nil || len(s.sides[OpponentSide].Party().Members()) == 0 {
		p, err := newPlaceholder(s.deps.Species, s.deps.Engine.Moves(), s.roll)
		if err != nil {
			return fmt.Errorf("generating placeholder opponent: %w", err)
		}
		s.diagnose(DiagPlaceholder, "no opponent roster supplied, generated %s", p.party.Slots[0].Name())
		s.sides[OpponentSide] = p
	}
	for side := range s.sides {
		s.parties[side] = s.sides[side].Party()
		if s.parties[side] == nil {
			s.parties[side] = &creature.Party{}
		}
		p := s.parties[side]
		i, ok := p.FirstHealthy()
		if !ok {
			s.diagnose(DiagNoHealthySlot, "%s has no healthy roster slot, using index 0", s.sides[side].Name())
			i = 0
		}
		p.Active = i
		if in := p.ActiveSlot(); in != nil {
			in.ResetBattle()
		}
	}

	foe := s.active(OpponentSide)
	switch {
	case foe == nil:
	case s.ctx.Kind == Wild:
		s.say(OpponentSide, fmt.Sprintf("A wild %s appeared!", foe.Name()))
	default:
		s.say(OpponentSide, fmt.Sprintf("%s wants to battle!", s.opponentName()))
	}
	for side := range s.sides {
		if in := s.active(side); in != nil && !(side == OpponentSide && s.ctx.Kind == Wild) {
			s.sendOutEvent(side, in)
		}
	}
	if wdef, ok := s.deps.Weather.Get(s.ctx.Weather); ok && wdef.ID != weather.Clear && wdef.StartMessage != "" {
		s.present.Enqueue(Event{Kind: EventWeather, Text: wdef.StartMessage})
	}
	s.refreshCredit()
	s.checkDefeat()
	if err := s.present.Play(ctx); err != nil {
		return fmt.Errorf("presenting intro: %w", err)
	}
	return nil
}

func (s *Session) opponentName() string {
	if s.cfg.Opponent != "" {
		return s.cfg.Opponent
	}
	return s.sides[OpponentSide].Name()
}

func (s *Session) sendOutEvent(side int, in *creature.Instance) {
	text := fmt.Sprintf("Go! %s!", in.Name())
	if side == OpponentSide {
		text = fmt.Sprintf("%s sent out %s!", s.opponentName(), in.Name())
	}
	s.present.Enqueue(Event{Kind: EventSendOut, Side: side, Name: in.Name(), Text: text, After: in.Health, Max: in.MaxHealth()})
}

// turn runs one full turn: action collection, ordering, execution and the
// end-of-turn step.
func (s *Session) turn(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "battle.Turn", trace.WithAttributes(attribute.Int("battle.turn", s.ctx.Turn)))
	defer span.End()

	if s.ctx.Turn > 0 && s.ctx.Weather != weather.Clear {
		if wdef, ok := s.deps.Weather.Get(s.ctx.Weather); ok && wdef.ContinueMessage != "" {
			s.present.Enqueue(Event{Kind: EventWeather, Text: wdef.ContinueMessage})
		}
	}

	s.transition(StateAwaitingActions)
	if err := s.present.Play(ctx); err != nil {
		return fmt.Errorf("presenting turn start: %w", err)
	}
	acts, err := s.collect(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}

	s.transition(StateOrdering)
	order := s.order(acts)

	s.transition(StateExecuting)
	s.acted = [2]bool{}
	s.cancelled = [2]bool{}
	for _, side := range order {
		if s.cancelled[side] {
			s.logger.Debug("action cancelled", zap.Int("side", side), zap.String("action", acts[side].String()))
			continue
		}
		s.logger.Debug("executing action", zap.Int("side", side), zap.Int("turn", s.ctx.Turn), zap.String("action", acts[side].String()))
		if err := s.execute(side, acts[side]); err != nil {
			return err
		}
		s.acted[side] = true
		s.refreshCredit()
		if !s.decided {
			if err := s.faintCheck(ctx); err != nil {
				return err
			}
		}
		if err := s.present.Play(ctx); err != nil {
			return fmt.Errorf("presenting action: %w", err)
		}
		if s.decided {
			return nil
		}
	}

	s.transition(StateEndOfTurn)
	if err := s.endOfTurn(ctx); err != nil {
		return err
	}
	if err := s.present.Play(ctx); err != nil {
		return fmt.Errorf("presenting end of turn: %w", err)
	}
	s.applyBetweenTurns()
	return nil
}

func (s *Session) applyBetweenTurns() {
	s.mu.Lock()
	fns := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, fn := range fns {
		fn(s.ctx, s.parties)
	}
	if len(fns) > 0 {
		s.logger.Info("applied between-turn mutations", zap.Int("count", len(fns)), zap.Int("turn", s.ctx.Turn))
		s.checkDefeat()
	}
}

// View builds what side may see when choosing.
func (s *Session) View(side int) View {
	v := View{
		BattleID:    s.ctx.ID,
		Side:        side,
		Kind:        s.ctx.Kind,
		Turn:        s.ctx.Turn,
		Weather:     s.ctx.Weather,
		Permissions: s.ctx.Permissions,
		CanFlee:     s.ctx.Kind == Wild,
		Own:         s.parties[side],
		Moves:       s.deps.Engine.Moves(),
		Items:       s.deps.Items,
	}
	if side == PlayerSide {
		v.Bag = s.deps.Inventory
	} else {
		v.Permissions = ItemPermissions{HPRestoration: s.ctx.Kind == Trainer}
	}
	if foe := s.active(other(side)); foe != nil {
		v.Foe = foe.Clone()
	}
	v.FoeRemaining = s.parties[other(side)].HealthyCount()
	return v
}

// collect requests both actions concurrently and validates them.
func (s *Session) collect(ctx context.Context) ([2]Action, error) {
	var acts [2]Action
	views := [2]View{s.View(PlayerSide), s.View(OpponentSide)}
	g, gctx := errgroup.WithContext(ctx)
	for side := range s.sides {
		if a, ok := s.forcedAction(side); ok {
			acts[side] = a
			continue
		}
		g.Go(func() error {
			a, err := s.sides[side].RequestAction(gctx, views[side])
			if err != nil {
				return fmt.Errorf("requesting action from %s: %w", s.sides[side].Name(), err)
			}
			acts[side] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return acts, err
	}
	for side := range acts {
		if err := s.validate(side, views[side], &acts[side]); err != nil {
			return acts, err
		}
	}
	return acts, nil
}

// forcedAction returns the follow-up a recharging, charging or rampaging
// battler is locked into.
func (s *Session) forcedAction(side int) (Action, bool) {
	in := s.active(side)
	if in == nil {
		return Action{}, false
	}
	v := &in.Battle.Volatile
	id := 0
	switch {
	case v.Recharging:
		id = v.LastMove
	case v.ChargingMove != 0:
		id = v.ChargingMove
	case v.ThrashMove != 0 && v.ThrashTurns > 0:
		id = v.ThrashMove
	}
	if id == 0 {
		return Action{}, false
	}
	return Action{Kind: Fight, MoveSlot: in.MoveIndex(id), forcedMove: id, continuation: true}, true
}

// validate re-checks an action at the engine boundary. A Fight on a move
// without PP is a contract breach; any other illegal choice is replaced by a
// fallback and reported as a diagnostic.
func (s *Session) validate(side int, v View, a *Action) error {
	if a.continuation {
		return nil
	}
	in := s.active(side)
	if a.Kind == Fight && !a.Struggle {
		if a.MoveSlot < 0 || a.MoveSlot >= creature.MaxMoves || in.Moves[a.MoveSlot].Empty() || in.Moves[a.MoveSlot].PP <= 0 {
			return fmt.Errorf("%w: %s chose move slot %d without PP", ErrContractBreach, s.sides[side].Name(), a.MoveSlot)
		}
		vol := &in.Battle.Volatile
		if vol.Encore > 0 && vol.EncoreMove != 0 {
			if i := in.MoveIndex(vol.EncoreMove); i >= 0 && in.Moves[i].PP > 0 {
				a.MoveSlot = i
			}
		}
	}
	if err := CheckAction(v, *a); err != nil {
		s.diagnose(DiagIllegalAction, "%s: %v", s.sides[side].Name(), err)
		*a = s.fallbackAction(v)
	}
	return nil
}

// fallbackAction picks the first legal move, or struggle.
func (s *Session) fallbackAction(v View) Action {
	in := v.Active()
	for _, i := range in.UsableMoves() {
		if a := FightAction(i); CheckAction(v, a) == nil {
			return a
		}
	}
	return StruggleAction()
}

// checkDefeat decides the battle when a side has no healthy slot left.
// A player wipe takes precedence over a simultaneous opponent wipe.
func (s *Session) checkDefeat() {
	if s.decided {
		return
	}
	switch {
	case s.parties[PlayerSide].IsDefeated():
		s.decide(Loss)
	case s.parties[OpponentSide].IsDefeated():
		s.decide(Win)
	}
}

func (s *Session) decide(o Outcome) {
	if s.decided {
		return
	}
	s.decided = true
	s.outcome = o
	s.logger.Info("battle decided", zap.String("outcome", o.String()), zap.Int("turn", s.ctx.Turn))
}

// refreshCredit records that the current actives faced each other.
func (s *Session) refreshCredit() {
	p, o := s.active(PlayerSide), s.active(OpponentSide)
	if p == nil || o == nil || p.Fainted() || o.Fainted() {
		return
	}
	s.ctx.Fought(s.parties[OpponentSide].Active, s.parties[PlayerSide].Active)
}
