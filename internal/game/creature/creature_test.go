package creature_test

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func testSpecies(types ...creature.Type) *creature.Species {
	return &creature.Species{
		ID:        1,
		Name:      "Testmon",
		Types:     types,
		BaseStats: creature.Stats{HP: 100, Attack: 100, Defense: 100, SpAttack: 100, SpDefense: 100, Speed: 100},
		CatchRate: 45,
	}
}

func newInstance(t *testing.T, level int) *creature.Instance {
	t.Helper()
	in, err := creature.NewInstance(testSpecies(creature.Normal), level, creature.Stats{}, creature.Stats{})
	require.NoError(t, err)
	return in
}

func TestEffectiveness(t *testing.T) {
	assert.Equal(t, 2.0, creature.Effectiveness(creature.Water, creature.Fire))
	assert.Equal(t, 4.0, creature.Effectiveness(creature.Ice, creature.Dragon, creature.Flying))
	assert.Equal(t, 0.25, creature.Effectiveness(creature.Fire, creature.Water, creature.Rock))
	assert.Equal(t, 0.0, creature.Effectiveness(creature.Ground, creature.Flying, creature.Steel))
	assert.Equal(t, 1.0, creature.Effectiveness(creature.Typeless, creature.Ghost))
	assert.Equal(t, 1.0, creature.Effectiveness(creature.Normal, creature.Water))
}

func TestParseType(t *testing.T) {
	ty, err := creature.ParseType("psychic")
	require.NoError(t, err)
	assert.Equal(t, creature.Psychic, ty)
	_, err = creature.ParseType("sound")
	assert.Error(t, err)
}

func TestCalcStats(t *testing.T) {
	base := creature.Stats{HP: 108, Attack: 130, Defense: 95, SpAttack: 80, SpDefense: 85, Speed: 102}
	perfect := creature.Stats{HP: 31, Attack: 31, Defense: 31, SpAttack: 31, SpDefense: 31, Speed: 31}
	evs := creature.Stats{HP: 252, Attack: 252}
	got := creature.CalcStats(base, 100, perfect, evs)
	assert.Equal(t, 420, got.HP)
	assert.Equal(t, 359, got.Attack)

	flat := creature.CalcStats(creature.Stats{HP: 100, Attack: 100}, 50, creature.Stats{}, creature.Stats{})
	assert.Equal(t, 160, flat.HP)
	assert.Equal(t, 105, flat.Attack)
}

func TestStageMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, creature.StageMultiplier(0))
	assert.Equal(t, 1.5, creature.StageMultiplier(1))
	assert.Equal(t, 4.0, creature.StageMultiplier(6))
	assert.Equal(t, 0.25, creature.StageMultiplier(-6))
	assert.InDelta(t, 4.0/3.0, creature.AccuracyMultiplier(1), 1e-9)
	assert.Equal(t, 0.75, creature.AccuracyMultiplier(-1))
	assert.Equal(t, 4.0, creature.StageMultiplier(9), "out-of-range stages are clamped")
}

func TestProperty_StagesStayClamped(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		var st creature.Stages
		stats := creature.StagedStats()
		n := rapid.IntRange(1, 50).Draw(rt, "n")
		for i := 0; i < n; i++ {
			stat := stats[rapid.IntRange(0, len(stats)-1).Draw(rt, "stat")]
			delta := rapid.IntRange(-12, 12).Draw(rt, "delta")
			before := st.Get(stat)
			applied := st.Apply(stat, delta)
			after := st.Get(stat)
			if after < creature.MinStage || after > creature.MaxStage {
				rt.Fatalf("stage %s = %d out of range", stat, after)
			}
			if after-before != applied {
				rt.Fatalf("reported delta %d but stage moved %d", applied, after-before)
			}
		}
	})
}

func TestInstance_DamageAndHealClamp(t *testing.T) {
	in := newInstance(t, 50)
	require.Equal(t, 160, in.MaxHealth())

	assert.Equal(t, 60, in.TakeDamage(60))
	assert.Equal(t, 100, in.Health)
	assert.Equal(t, 60, in.Heal(500))
	assert.Equal(t, 160, in.Health)
	assert.Equal(t, 160, in.TakeDamage(999))
	assert.True(t, in.Fainted())
	assert.Zero(t, in.TakeDamage(1))
}

func TestProperty_InstanceHealthStaysInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sp := testSpecies(creature.Fire)
		in, err := creature.NewInstance(sp, rapid.IntRange(1, 100).Draw(rt, "level"), creature.Stats{}, creature.Stats{})
		if err != nil {
			rt.Fatal(err)
		}
		ops := rapid.SliceOf(rapid.IntRange(-300, 300)).Draw(rt, "ops")
		for _, op := range ops {
			if op < 0 {
				in.TakeDamage(-op)
			} else {
				in.Heal(op)
			}
			if in.Health < 0 || in.Health > in.MaxHealth() {
				rt.Fatalf("health %d outside [0,%d]", in.Health, in.MaxHealth())
			}
		}
	})
}

func TestInstance_EffectiveStatUsesStage(t *testing.T) {
	in := newInstance(t, 50)
	in.Battle.Stages.Apply(creature.Attack, 2)
	assert.Equal(t, 210, in.EffectiveStat(creature.Attack))
	in.Battle.Stages.Apply(creature.Defense, -1)
	assert.Equal(t, 70, in.EffectiveStat(creature.Defense))
}

func TestInstance_ResetBattleRestartsToxicCounter(t *testing.T) {
	in := newInstance(t, 10)
	in.SetStatus(condition.BadlyPoisoned, 0)
	in.Battle.BadlyPoisonedCounter = 5
	in.Battle.Volatile.Apply(condition.Confusion, 3)
	in.ResetBattle()
	assert.Equal(t, 1, in.Battle.BadlyPoisonedCounter)
	assert.False(t, in.Battle.Volatile.Has(condition.Confusion))
}

func TestInstance_Clone(t *testing.T) {
	in := newInstance(t, 20)
	in.SetMove(0, 33, 35)
	cp := in.Clone()
	cp.Moves[0].PP = 1
	cp.Health = 1
	assert.Equal(t, 35, in.Moves[0].PP)
	assert.NotEqual(t, 1, in.Health)
	assert.Same(t, in.Species, cp.Species)
}

func TestParty(t *testing.T) {
	a, b, c := newInstance(t, 5), newInstance(t, 6), newInstance(t, 7)
	p, err := creature.NewParty(a, b, c)
	require.NoError(t, err)

	assert.Same(t, a, p.ActiveSlot())
	assert.Same(t, c, p.Last())
	assert.Equal(t, 3, p.HealthyCount())
	assert.ErrorIs(t, p.CanSwitchTo(0), creature.ErrSlotActive)
	assert.ErrorIs(t, p.CanSwitchTo(4), creature.ErrSlotEmpty)
	assert.ErrorIs(t, p.CanSwitchTo(6), creature.ErrSlotOutOfRange)

	b.TakeDamage(b.Health)
	assert.ErrorIs(t, p.CanSwitchTo(1), creature.ErrSlotFainted)
	require.NoError(t, p.CanSwitchTo(2))

	a.Battle.Stages.Apply(creature.Speed, 2)
	p.SwitchTo(2)
	assert.Same(t, c, p.ActiveSlot())
	assert.Zero(t, a.Battle.Stages.Get(creature.Speed), "outgoing slot loses its stages")

	a.TakeDamage(a.Health)
	assert.False(t, p.IsDefeated())
	c.TakeDamage(c.Health)
	assert.True(t, p.IsDefeated())
	_, ok := p.FirstHealthy()
	assert.False(t, ok)
}

func TestNewParty_TooManyMembers(t *testing.T) {
	members := make([]*creature.Instance, creature.PartySize+1)
	_, err := creature.NewParty(members...)
	assert.Error(t, err)
}

func TestLoadSpeciesDirectory(t *testing.T) {
	dir := t.TempDir()
	content := `
- id: 4
  name: Charmander
  types: [fire]
  base_stats: {hp: 39, attack: 52, defense: 43, sp_attack: 60, sp_defense: 50, speed: 65}
  catch_rate: 45
  weight: 8.5
  base_experience: 65
  effort_yield: {speed: 1}
  female_ratio: 0.125
  evolution: {species: 5, level: 16}
  moves: [10, 45]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "species.yaml"), []byte(content), 0o644))
	reg, err := creature.LoadSpeciesDirectory(dir)
	require.NoError(t, err)

	sp, ok := reg.Get(4)
	require.True(t, ok)
	assert.Equal(t, []creature.Type{creature.Fire}, sp.Types)
	assert.Equal(t, 16, sp.Evolution.Level)
	byName, ok := reg.ByName("charmander")
	require.True(t, ok)
	assert.Same(t, sp, byName)
}

func TestLoadSpeciesDirectory_RejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("- id: 9\n  name: X\n  types: []\n"), 0o644))
	_, err := creature.LoadSpeciesDirectory(dir)
	assert.Error(t, err)
}

func TestLoadTeamsFS(t *testing.T) {
	fsys := fstest.MapFS{
		"teams/t.yaml": {Data: []byte(`
- id: rival
  name: Rival
  kind: trainer
  policy: basic_trainer
  payout: 20
  members:
    - {species: 1, level: 5, nickname: Bud}
    - {species: 1, level: 7, moves: [45]}
`)},
	}
	teams, err := creature.LoadTeamsFS(fsys, "teams")
	require.NoError(t, err)
	team, ok := teams.Get("rival")
	require.True(t, ok)

	species := creature.NewSpeciesRegistry()
	sp := testSpecies(creature.Normal)
	sp.Moves = []int{33}
	require.NoError(t, species.Register(sp))

	taught := map[int][]int{}
	party, err := team.Build(species, func(in *creature.Instance, ids []int) error {
		taught[in.Level] = ids
		return nil
	})
	require.NoError(t, err)
	require.Len(t, party.Members(), 2)
	assert.Equal(t, "Bud", party.Slots[0].Name())
	assert.Equal(t, []int{33}, taught[5])
	assert.Equal(t, []int{45}, taught[7])
	assert.Equal(t, 0, party.Active)
}

func TestTeam_BuildUnknownSpecies(t *testing.T) {
	team := &creature.Team{ID: "x", Members: []creature.TeamMember{{Species: 99, Level: 5}}}
	_, err := team.Build(creature.NewSpeciesRegistry(), nil)
	assert.Error(t, err)
}

func TestTeam_ValidateRejectsEmptyRoster(t *testing.T) {
	assert.Error(t, (&creature.Team{ID: "empty"}).Validate())
}
