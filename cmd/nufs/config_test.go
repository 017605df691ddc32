package main

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/nufs/util"
)

func writeConfig(t *testing.T, body string) string {
	p := filepath.Join(t.TempDir(), "nufs.yaml")
	require.NoError(t, ioutil.WriteFile(p, []byte(body), 0644))
	return p
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("NUFS_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, &Config{LogLevel: "info"}, c)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	p := writeConfig(t, "image: /tmp/a.img\nmountpoint: /mnt/a\ndebugLevel: 5\nfuseDebug: true\n")
	t.Setenv("NUFS_CONFIG_FILE", p)
	t.Setenv("NUFS_MOUNTPOINT", "/mnt/b")
	t.Setenv("NUFS_ALLOW_OTHER", "true")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/a.img", c.Image)
	assert.Equal(t, "/mnt/b", c.Mountpoint, "environment wins")
	assert.Equal(t, uint64(5), c.DebugLevel)
	assert.Equal(t, "info", c.LogLevel)
	assert.True(t, c.FuseDebug)
	assert.True(t, c.AllowOther)
}

func TestLoadConfigStrict(t *testing.T) {
	t.Setenv("NUFS_CONFIG_FILE", writeConfig(t, "imgae: typo\n"))
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigBadEnv(t *testing.T) {
	t.Setenv("NUFS_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("NUFS_DEBUG_LEVEL", "lots")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	defer func() {
		util.Debug = 0
		log.SetLevel(log.InfoLevel)
	}()
	c := &Config{LogLevel: "warn", DebugLevel: 1}
	require.NoError(t, c.SetupLogging())
	assert.Equal(t, uint64(1), util.Debug)
	assert.Equal(t, log.DebugLevel, log.GetLevel(), "DPrintf output needs debug")

	c = &Config{LogLevel: "error"}
	require.NoError(t, c.SetupLogging())
	assert.Equal(t, log.ErrorLevel, log.GetLevel())

	assert.Error(t, (&Config{LogLevel: "loud"}).SetupLogging())
}
