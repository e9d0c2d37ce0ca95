package config

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/worklog/internal/loggy"
)

func TestTokenObfuscationRoundTrip(t *testing.T) {
	stored, err := obfuscateToken("s3cret-token")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored, "OBFS:"))
	assert.NotContains(t, stored, "s3cret")

	back, err := deobfuscateToken(stored)
	require.NoError(t, err)
	assert.Equal(t, "s3cret-token", back)

	// Values written before obfuscation existed pass through untouched
	plain, err := deobfuscateToken("legacy-plain-value")
	require.NoError(t, err)
	assert.Equal(t, "legacy-plain-value", plain)
}

func newSettingsRepo(t *testing.T) (SettingsRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewSQLSettingsRepository(db, loggy.NewNoopLogger()), mock
}

func TestGetSettingsDecodesStoredToken(t *testing.T) {
	repo, mock := newSettingsRepo(t)

	stored, err := obfuscateToken("tok-1234")
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"key", "value"}).
		AddRow("tracker.base_url", "https://tracker.test").
		AddRow(tokenKey, stored)
	mock.ExpectQuery("SELECT key, value FROM settings").
		WithArgs("tracker.%").
		WillReturnRows(rows)

	settings, err := repo.GetSettings(context.Background(), "tracker.")
	require.NoError(t, err)
	assert.Equal(t, "https://tracker.test", settings["tracker.base_url"])
	assert.Equal(t, "tok-1234", settings[tokenKey])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetSettingUpserts(t *testing.T) {
	repo, mock := newSettingsRepo(t)

	mock.ExpectExec("INSERT INTO settings").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetSetting(context.Background(), "tracker.base_url", "https://tracker.test")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSetting(t *testing.T) {
	repo, mock := newSettingsRepo(t)

	mock.ExpectExec("DELETE FROM settings").
		WithArgs("tracker.base_url").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteSetting(context.Background(), "tracker.base_url"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
