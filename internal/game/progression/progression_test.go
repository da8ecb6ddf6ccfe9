package progression_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/monbattle/content"
	"github.com/cory-johannsen/monbattle/internal/game/battle"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/progression"
)

var _ battle.Experience = (*progression.Leveler)(nil)

func TestExperienceAt_LevelHundredThresholds(t *testing.T) {
	want := map[progression.GrowthRate]int{
		progression.MediumFast:  1_000_000,
		progression.Fast:        800_000,
		progression.MediumSlow:  1_059_860,
		progression.Slow:        1_250_000,
		progression.Erratic:     600_000,
		progression.Fluctuating: 1_640_000,
	}
	for g, exp := range want {
		assert.Equal(t, exp, g.ExperienceAt(creature.MaxLevel), g.String())
		assert.Zero(t, g.ExperienceAt(creature.MinLevel), g.String())
	}
	assert.Equal(t, 9, progression.MediumSlow.ExperienceAt(2))
}

func TestProperty_ExperienceCurvesNeverDecrease(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		g := progression.GrowthRate(rapid.IntRange(0, 5).Draw(rt, "rate"))
		level := rapid.IntRange(creature.MinLevel, creature.MaxLevel-1).Draw(rt, "level")
		if g.ExperienceAt(level+1) < g.ExperienceAt(level) {
			rt.Fatalf("%s: threshold drops from level %d to %d", g, level, level+1)
		}
		if got := g.LevelFor(g.ExperienceAt(level)); got < level {
			rt.Fatalf("%s: LevelFor(threshold of %d) = %d", g, level, got)
		}
	})
}

func TestParseGrowthRate(t *testing.T) {
	g, err := progression.ParseGrowthRate("")
	require.NoError(t, err)
	assert.Equal(t, progression.MediumFast, g)
	g, err = progression.ParseGrowthRate("MediumSlow")
	require.NoError(t, err)
	assert.Equal(t, progression.MediumSlow, g)
	_, err = progression.ParseGrowthRate("glacial")
	assert.Error(t, err)
}

func loadSpecies(t testing.TB) *creature.SpeciesRegistry {
	t.Helper()
	reg, err := creature.LoadSpeciesFS(content.FS, content.SpeciesDir)
	require.NoError(t, err)
	return reg
}

func instance(t testing.TB, reg *creature.SpeciesRegistry, id, level int) *creature.Instance {
	t.Helper()
	sp, ok := reg.Get(id)
	require.True(t, ok)
	in, err := creature.NewInstance(sp, level, creature.Stats{}, creature.Stats{})
	require.NoError(t, err)
	return in
}

func TestAddExperience_LevelsAcrossThresholds(t *testing.T) {
	reg := loadSpecies(t)
	in := instance(t, reg, 19, 5) // medium_fast
	hpBefore := in.MaxHealth()
	l := progression.New(nil)

	level, leveled := l.AddExperience(in, 1)
	assert.False(t, leveled)
	assert.Equal(t, 5, level)
	assert.Equal(t, 126, in.Experience)

	level, leveled = l.AddExperience(in, 512-126)
	assert.True(t, leveled)
	assert.Equal(t, 8, level)
	assert.Greater(t, in.MaxHealth(), hpBefore)
}

func TestAddExperience_StopsAtMaxLevel(t *testing.T) {
	reg := loadSpecies(t)
	in := instance(t, reg, 19, 99)
	l := progression.New(nil)
	level, leveled := l.AddExperience(in, 10_000_000)
	assert.True(t, leveled)
	assert.Equal(t, creature.MaxLevel, level)
	assert.Equal(t, 1_000_000, in.Experience)
	_, leveled = l.AddExperience(in, 10)
	assert.False(t, leveled)
}

func TestAddExperience_WarnsOnUnknownGrowth(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	sp := &creature.Species{ID: 900, Name: "Oddity", Types: []creature.Type{creature.Normal},
		BaseStats: creature.Stats{HP: 50, Attack: 50, Defense: 50, SpAttack: 50, SpDefense: 50, Speed: 50}, CatchRate: 3, Growth: "glacial"}
	in, err := creature.NewInstance(sp, 2, creature.Stats{}, creature.Stats{})
	require.NoError(t, err)

	_, leveled := progression.New(zap.New(core)).AddExperience(in, 27-8)
	assert.True(t, leveled)
	assert.Equal(t, 1, logs.FilterMessage("unknown growth rate, using medium_fast").Len())
}

func TestAddEffortValues_Caps(t *testing.T) {
	reg := loadSpecies(t)
	in := instance(t, reg, 19, 10)
	l := progression.New(nil)
	in.EVs = creature.Stats{Attack: 250, Speed: 250}

	l.AddEffortValues(in, creature.Stats{Attack: 10, Speed: 3})
	assert.Equal(t, progression.MaxEffortPerStat, in.EVs.Attack)
	assert.Equal(t, 253, in.EVs.Speed)

	l.AddEffortValues(in, creature.Stats{HP: 20})
	assert.Equal(t, 2, in.EVs.HP)
	assert.Equal(t, progression.MaxEffortTotal, in.EVs.Total())

	l.AddEffortValues(in, creature.Stats{Defense: 5})
	assert.Zero(t, in.EVs.Defense)
}

func TestEvolutionTargetAndEvolve(t *testing.T) {
	reg := loadSpecies(t)
	l := progression.New(nil)
	in := instance(t, reg, 4, 15)
	_, ok := l.EvolutionTarget(in)
	assert.False(t, ok)

	_, leveled := l.AddExperience(in, progression.MediumSlow.ExperienceAt(16))
	require.True(t, leveled)
	target, ok := l.EvolutionTarget(in)
	require.True(t, ok)
	assert.Equal(t, 5, target)

	attack := in.Stats.Attack
	require.True(t, l.Evolve(in, reg, target))
	assert.Equal(t, "Blazewolf", in.Species.Name)
	assert.Greater(t, in.Stats.Attack, attack)
	assert.False(t, l.Evolve(in, reg, 9999))

	_, ok = l.EvolutionTarget(instance(t, reg, 5, 50))
	assert.False(t, ok)
}
