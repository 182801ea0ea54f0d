package injector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/timeline/internal/config"
	"github.com/zeusync/timeline/internal/core/models"
	"github.com/zeusync/timeline/internal/core/observability/log"
	"github.com/zeusync/timeline/internal/core/store"
)

func TestInitializeApp(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = log.LevelError

	app, err := InitializeApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, app.Store)
	assert.Same(t, app.Bus, app.Store.Bus())
	assert.Equal(t, log.LevelError, app.Logger.GetLevel())

	require.NoError(t, store.Put(app.Store, models.NewEntity(), 1, 5))
	assert.Equal(t, uint64(1), app.Store.Metrics().Writes)
}
