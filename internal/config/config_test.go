package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CHORELY_JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "chorely.db", cfg.DBPath)
	assert.Equal(t, 168*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 3, cfg.RejectReasonMin)
	assert.True(t, cfg.Catalog.Features.Templates)
	assert.NotEmpty(t, cfg.Catalog.Templates)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("CHORELY_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestOrigins(t *testing.T) {
	cfg := Config{CORSOrigins: "http://a.test, http://b.test,,"}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Origins())
}

func TestParseCatalog(t *testing.T) {
	data := []byte(`
features:
  templates: true
  leaderboard: false
templates:
  - title: Dishes
    reward_kind: fixed
    reward_amount: "2.00"
    recurring: true
    cooldown_days: 1
  - title: Garage
    reward_kind: range
    reward_min: "5"
    reward_max: "15"
`)
	cat, err := ParseCatalog(data)
	require.NoError(t, err)

	assert.True(t, cat.Features.Templates)
	assert.False(t, cat.Features.Leaderboard)
	require.Len(t, cat.Templates, 2)
	assert.Equal(t, "Dishes", cat.Templates[0].Title)
	assert.Equal(t, 1, cat.Templates[0].CooldownDays)
	assert.Equal(t, "range", cat.Templates[1].RewardKind)
}

func TestParseCatalogRejectsBadRange(t *testing.T) {
	data := []byte(`
templates:
  - title: Backwards
    reward_kind: range
    reward_min: "10"
    reward_max: "3"
`)
	_, err := ParseCatalog(data)
	assert.ErrorContains(t, err, "reward_min must be less than reward_max")
}

func TestParseCatalogRejectsUnknownKind(t *testing.T) {
	data := []byte(`
templates:
  - title: Mystery
    reward_kind: bonus
`)
	_, err := ParseCatalog(data)
	assert.ErrorContains(t, err, "unknown reward_kind")
}
