package weather_test

import (
	"testing"

	"github.com/cory-johannsen/monbattle/content"
	"github.com/cory-johannsen/monbattle/internal/game/condition"
	"github.com/cory-johannsen/monbattle/internal/game/creature"
	"github.com/cory-johannsen/monbattle/internal/game/weather"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDefault(t *testing.T) *weather.Registry {
	t.Helper()
	reg, err := weather.LoadFS(content.FS, content.WeatherDir)
	require.NoError(t, err)
	return reg
}

func TestDefaultCatalogue(t *testing.T) {
	reg := loadDefault(t)
	for id := weather.Clear; id <= weather.Fog; id++ {
		_, ok := reg.Get(id)
		assert.True(t, ok, "weather %d missing", id)
	}
}

func TestSandstorm_Damages(t *testing.T) {
	sand, _ := loadDefault(t).Get(weather.Sandstorm)
	assert.True(t, sand.Damages([]creature.Type{creature.Fire}))
	assert.False(t, sand.Damages([]creature.Type{creature.Rock}))
	assert.False(t, sand.Damages([]creature.Type{creature.Water, creature.Ground}), "one immune type spares a dual-type battler")
	assert.Equal(t, 1.5, sand.StatMultiplier([]creature.Type{creature.Rock}, creature.SpDefense))
	assert.Equal(t, 1.0, sand.StatMultiplier([]creature.Type{creature.Rock}, creature.Defense))
}

func TestSunlight_Modifiers(t *testing.T) {
	sun, _ := loadDefault(t).Get(weather.HarshSunlight)
	assert.Equal(t, 1.5, sun.PowerMultiplier(creature.Fire))
	assert.Equal(t, 0.5, sun.PowerMultiplier(creature.Water))
	assert.Equal(t, 1.0, sun.PowerMultiplier(creature.Grass))
	assert.True(t, sun.PreventsStatus(condition.Frozen))
	assert.False(t, sun.Damages([]creature.Type{creature.Normal}))
}

func TestFog_Accuracy(t *testing.T) {
	reg := loadDefault(t)
	fog, _ := reg.Get(weather.Fog)
	assert.Equal(t, 0.9, fog.Accuracy())
	clear, _ := reg.Get(weather.Clear)
	assert.Equal(t, 1.0, clear.Accuracy())
}

func TestLookup_FallsBackToClear(t *testing.T) {
	def, ok := loadDefault(t).Lookup(weather.ID(42))
	assert.False(t, ok)
	assert.Equal(t, weather.Clear, def.ID)
}
