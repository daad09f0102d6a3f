package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl     string   `json:"base_url"`
	UserId      string   `json:"user_id"`
	AutoRelogin bool     `json:"auto_relogin"`
	Keywords    []string `json:"keywords"`
}

func writeFile(t testing.TB, path, contents string) {
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ncue.json5"), `{
		// comments are allowed
		base_url: "http://aps.ncue.edu.tw/app",
		user_id: "s0000000",
		keywords: ["英語"],
	}`)
	writeFile(t, filepath.Join(dir, "ncue.local.json5"), `{
		user_id: "s1234567",
		auto_relogin: true,
	}`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "ncue.json5"))
	require.NoError(t, err)
	require.Equal(t, testConfig{
		BaseUrl:     "http://aps.ncue.edu.tw/app",
		UserId:      "s1234567",
		AutoRelogin: true,
		Keywords:    []string{"英語"},
	}, cfg)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "ncue.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadConfigOnlyLocal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ncue.local.json5"), `{user_id: "s7654321"}`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "ncue.json5"))
	require.NoError(t, err)
	require.Equal(t, "s7654321", cfg.UserId)
}
