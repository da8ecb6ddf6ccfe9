package participant

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/monbattle/internal/game/battle"
	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/inventory"
	"go.uber.org/zap"
)

// Human is a participant driven by a person at a Console. Every choice is
// checked with battle.CheckAction before it is returned; illegal input is
// explained and the prompt repeats.
type Human struct {
	name    string
	party   *creature.Party
	console Console
	logger  *zap.Logger
}

// NewHuman creates a Human playing party through console.
//
// Precondition: party and console must not be nil. A nil logger is replaced
// with zap.NewNop().
func NewHuman(name string, party *creature.Party, console Console, logger *zap.Logger) *Human {
	if party == nil || console == nil {
		panic("participant.NewHuman: party and console must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Human{name: name, party: party, console: console, logger: logger}
}

func (h *Human) Name() string           { return h.name }
func (h *Human) Party() *creature.Party { return h.party }

// Console returns the console the human plays through.
func (h *Human) Console() Console { return h.console }

func (h *Human) RequestAction(ctx context.Context, v battle.View) (battle.Action, error) {
	active := v.Active()
	if active == nil {
		return battle.Action{}, errors.New("participant: no active battler to command")
	}
	if err := h.showStatus(v); err != nil {
		return battle.Action{}, err
	}
	for {
		if err := ctx.Err(); err != nil {
			return battle.Action{}, err
		}
		line, err := h.ask(fmt.Sprintf("What will %s do? ", active.Name()))
		if err != nil {
			return battle.Action{}, err
		}
		a, chosen, err := h.interpret(v, Parse(line))
		if err != nil {
			if werr := h.console.WriteLine(err.Error()); werr != nil {
				return battle.Action{}, werr
			}
			continue
		}
		if !chosen {
			continue
		}
		if err := battle.CheckAction(v, a); err != nil {
			h.logger.Debug("rejected console choice", zap.String("input", line), zap.Error(err))
			if werr := h.console.WriteLine("You can't do that: " + reason(err)); werr != nil {
				return battle.Action{}, werr
			}
			continue
		}
		return a, nil
	}
}

func (h *Human) RequestReplacement(ctx context.Context, v battle.View) (int, error) {
	if err := h.listParty(v.Own); err != nil {
		return 0, err
	}
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		line, err := h.ask("Send out which member? ")
		if err != nil {
			return 0, err
		}
		i, err := memberIndex(v.Own, strings.Fields(line))
		if err == nil {
			err = battle.CheckReplacement(v.Own, i)
		}
		if err != nil {
			if werr := h.console.WriteLine("You can't do that: " + reason(err)); werr != nil {
				return 0, werr
			}
			continue
		}
		return i, nil
	}
}

func (h *Human) ask(prompt string) (string, error) {
	if err := h.console.WritePrompt(prompt); err != nil {
		return "", err
	}
	line, err := h.console.ReadLine()
	if err != nil {
		return "", fmt.Errorf("reading choice: %w", err)
	}
	return line, nil
}

// interpret turns one command into an action. chosen is false for commands
// that only print information.
func (h *Human) interpret(v battle.View, cmd Command) (a battle.Action, chosen bool, err error) {
	if cmd.Name == "" {
		return a, false, nil
	}
	if n, convErr := strconv.Atoi(cmd.Name); convErr == nil {
		return battle.FightAction(n - 1), true, nil
	}
	name, ok := resolve(cmd.Name)
	if !ok {
		return a, false, errUnknownVerb
	}
	switch name {
	case verbFight:
		if len(cmd.Args) == 0 {
			if len(v.Active().UsableMoves()) == 0 {
				return battle.StruggleAction(), true, nil
			}
			return a, false, h.listMoves(v)
		}
		slot, err := moveSlot(v, cmd.Args)
		return battle.FightAction(slot), err == nil, err
	case verbSwitch:
		if len(cmd.Args) == 0 {
			return a, false, h.listParty(v.Own)
		}
		i, err := memberIndex(v.Own, cmd.Args)
		return battle.SwitchAction(i), err == nil, err
	case verbItem, verbBall:
		a, err := itemAction(v, cmd.Args)
		return a, err == nil, err
	case verbRun:
		return battle.FleeAction(), true, nil
	case verbParty:
		return a, false, h.listParty(v.Own)
	case verbBag:
		return a, false, h.listBag(v)
	case verbHelp:
		for _, vb := range verbs {
			if err := h.console.WriteLine("  " + vb.help); err != nil {
				return a, false, err
			}
		}
	}
	return a, false, nil
}

func (h *Human) showStatus(v battle.View) error {
	self := v.Active()
	lines := []string{fmt.Sprintf("-- Turn %d --", v.Turn)}
	if v.Foe != nil {
		lines = append(lines, fmt.Sprintf("Foe: %s", describe(v.Foe)))
	}
	lines = append(lines, fmt.Sprintf("You: %s", describe(self)))
	for _, l := range lines {
		if err := h.console.WriteLine(l); err != nil {
			return err
		}
	}
	return nil
}

func (h *Human) listMoves(v battle.View) error {
	active := v.Active()
	for i, m := range active.Moves {
		if m.Empty() {
			continue
		}
		name := fmt.Sprintf("move %d", m.ID)
		detail := ""
		if v.Moves != nil {
			if def, ok := v.Moves.Get(m.ID); ok {
				name = def.Name
				detail = fmt.Sprintf(" %s/%s", def.Type, def.Category)
			}
		}
		if err := h.console.WriteLine(fmt.Sprintf("  %d. %-14s PP %d/%d%s", i+1, name, m.PP, m.MaxPP, detail)); err != nil {
			return err
		}
	}
	return nil
}

func (h *Human) listParty(p *creature.Party) error {
	for i, in := range p.Slots {
		if in == nil {
			continue
		}
		mark := " "
		if i == p.Active {
			mark = "*"
		}
		if err := h.console.WriteLine(fmt.Sprintf(" %s%d. %s", mark, i+1, describe(in))); err != nil {
			return err
		}
	}
	return nil
}

func (h *Human) listBag(v battle.View) error {
	if v.Bag == nil || v.Items == nil {
		return h.console.WriteLine("You have no bag.")
	}
	shown := 0
	for _, it := range v.Items.All() {
		n := v.Bag.Quantity(it.ID)
		if n <= 0 || !v.Permissions.Allows(it.Category) {
			continue
		}
		if err := h.console.WriteLine(fmt.Sprintf("  %-14s x%d", it.Name, n)); err != nil {
			return err
		}
		shown++
	}
	if shown == 0 {
		return h.console.WriteLine("Nothing in the bag can be used here.")
	}
	return nil
}

func describe(in *creature.Instance) string {
	s := fmt.Sprintf("%s Lv%d %d/%d HP", in.Name(), in.Level, in.Health, in.MaxHealth())
	if in.Fainted() {
		return s + " (fainted)"
	}
	if in.Status != condition.None {
		s += " " + strings.ToUpper(in.Status.String())
	}
	return s
}

// moveSlot resolves a 1-based slot number or a move name.
func moveSlot(v battle.View, args []string) (int, error) {
	if n, err := strconv.Atoi(args[0]); err == nil && len(args) == 1 {
		return n - 1, nil
	}
	want := strings.Join(args, " ")
	active := v.Active()
	for i, m := range active.Moves {
		if m.Empty() || v.Moves == nil {
			continue
		}
		if def, ok := v.Moves.Get(m.ID); ok && strings.EqualFold(def.Name, want) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%s doesn't know %q", active.Name(), want)
}

// memberIndex resolves a 1-based roster number or a member name.
func memberIndex(p *creature.Party, args []string) (int, error) {
	if len(args) == 0 {
		return -1, errors.New("name a party member")
	}
	if n, err := strconv.Atoi(args[0]); err == nil && len(args) == 1 {
		return n - 1, nil
	}
	want := strings.Join(args, " ")
	for i, in := range p.Slots {
		if in != nil && strings.EqualFold(in.Name(), want) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("no party member called %q", want)
}

// itemAction resolves "<item name> [member] [move]". Member and move are
// 1-based; the member defaults to the active slot.
func itemAction(v battle.View, args []string) (battle.Action, error) {
	if v.Items == nil {
		return battle.Action{}, errors.New("no items can be used here")
	}
	nums := make([]int, 0, 2)
	for len(args) > 1 && len(nums) < 2 {
		n, err := strconv.Atoi(args[len(args)-1])
		if err != nil {
			break
		}
		nums = append([]int{n}, nums...)
		args = args[:len(args)-1]
	}
	if len(args) == 0 {
		return battle.Action{}, errors.New("name an item")
	}
	it, ok := v.Items.ByName(strings.Join(args, " "))
	if !ok {
		return battle.Action{}, fmt.Errorf("no item called %q", strings.Join(args, " "))
	}
	if it.Category == inventory.Ball {
		return battle.BallAction(it.ID), nil
	}
	target, moveIdx := v.Own.Active, -1
	if len(nums) > 0 {
		target = nums[0] - 1
	}
	if len(nums) > 1 {
		moveIdx = nums[1] - 1
	}
	if it.NeedMove && moveIdx < 0 {
		return battle.Action{}, fmt.Errorf("choose a move: item %s <member> <move>", it.Name)
	}
	return battle.ItemAction(it.ID, target, moveIdx), nil
}

// reason strips the sentinel prefix from a legality error.
func reason(err error) string {
	return strings.TrimPrefix(err.Error(), battle.ErrIllegalAction.Error()+": ")
}
