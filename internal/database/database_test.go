package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trendbet-bot/internal/config"
	"trendbet-bot/internal/models"
)

func TestConnectSQLiteMigrates(t *testing.T) {
	db, err := ConnectSQLite("file:migrate_test?mode=memory&cache=shared", zap.NewNop())
	require.NoError(t, err)

	for _, m := range []any{&models.User{}, &models.Bet{}, &models.LeaderboardEntry{}, &models.TokenSample{}} {
		assert.True(t, db.Migrator().HasTable(m))
	}
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect(&config.Config{DBDriver: "mongo"}, zap.NewNop())
	assert.Error(t, err)
}
