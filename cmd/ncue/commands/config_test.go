package commands

import (
	"ncue-api/internal/portal"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoginRequest(t *testing.T) {
	config := Config{UserId: "S1234567", Password: "secret"}
	req := config.LoginRequest()
	require.True(t, req.Remember)
	require.NotNil(t, req.AutoRelogin)
	require.True(t, *req.AutoRelogin)

	disabled := false
	config.AutoRelogin = &disabled
	req = config.LoginRequest()
	require.False(t, *req.AutoRelogin)
}

func TestClientOptions(t *testing.T) {
	config := Config{
		BaseUrl:        "http://localhost:8080",
		TimeoutSeconds: 5,
		RateLimit:      RateLimitConfig{PerSecond: 2, Burst: 4},
	}
	opts := config.ClientOptions()
	require.Equal(t, "http://localhost:8080", opts.BaseUrl)
	require.Equal(t, 5*time.Second, opts.Timeout)
	require.Equal(t, 2.0, opts.RequestsPerSecond)
	require.Equal(t, 4, opts.Burst)
}

func TestWatcherOptions(t *testing.T) {
	config := Config{
		UserId: "S1234567",
		Watch: WatchConfig{
			Categories: []string{"spiritual", "語文"},
			Keywords:   []string{"正念"},
		},
	}
	opts, err := config.WatcherOptions()
	require.NoError(t, err)
	require.Equal(t, []portal.Category{portal.CategorySpiritual, portal.CategoryLanguage}, opts.Categories)
	require.Nil(t, opts.Notifier)
	require.Equal(t, default_watch_schedule, config.WatchSchedule())
	require.Equal(t, default_watch_database, config.WatchDatabase())

	config.Watch.Categories = []string{"sports"}
	_, err = config.WatcherOptions()
	require.ErrorIs(t, err, portal.ErrInvalidCategory)
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ncue.json5")
	err := os.WriteFile(path, []byte(`{
		// comments are allowed
		user_id: "S1234567",
		password: "secret",
		auto_relogin: false,
		watch: {
			schedule: "*/10 * * * *",
			keywords: ["資訊安全"],
		},
	}`), 0600)
	if err != nil {
		t.Fatal(err)
	}

	config, err := readConfig(path)
	require.NoError(t, err)
	require.Equal(t, "S1234567", config.UserId)
	require.NotNil(t, config.AutoRelogin)
	require.False(t, *config.AutoRelogin)
	require.Equal(t, "*/10 * * * *", config.WatchSchedule())
	require.Equal(t, []string{"資訊安全"}, config.Watch.Keywords)

	config, err = readConfig(filepath.Join(dir, "missing.json5"))
	require.NoError(t, err)
	require.Equal(t, "", config.UserId)
}
