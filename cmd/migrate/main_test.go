package main

import (
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/sms-booking-bot/migrations"
)

func TestParseCommand(t *testing.T) {
	cmd, err := parseCommand(nil)
	require.NoError(t, err)
	assert.Equal(t, "up", cmd.name)

	cmd, err = parseCommand([]string{"force", "3"})
	require.NoError(t, err)
	assert.Equal(t, command{name: "force", version: 3}, cmd)

	_, err = parseCommand([]string{"force"})
	assert.Error(t, err)
	_, err = parseCommand([]string{"force", "x"})
	assert.Error(t, err)
	_, err = parseCommand([]string{"sideways"})
	assert.Error(t, err)
}

func TestEmbeddedMigrationsParse(t *testing.T) {
	src, err := iofs.New(migrations.FS, ".")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)
}
