package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"event-registration-platform/internal/models"
	"event-registration-platform/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAdminKey_FromStdin(t *testing.T) {
	cmd := hashAdminKeyCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("operator-key\n"))
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	line := strings.TrimSpace(out.String())
	require.True(t, strings.HasPrefix(line, "ADMIN_KEY_HASH="))
	ok, err := utils.VerifySecret("operator-key", strings.TrimPrefix(line, "ADMIN_KEY_HASH="))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHashAdminKey_Generate(t *testing.T) {
	cmd := hashAdminKeyCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--generate"})

	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	key := strings.TrimPrefix(lines[0], "ADMIN_KEY=")
	hash := strings.TrimPrefix(lines[1], "ADMIN_KEY_HASH=")

	ok, err := utils.VerifySecret(key, hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHashAdminKey_EmptyInput(t *testing.T) {
	cmd := hashAdminKeyCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("\n"))
	cmd.SetArgs([]string{})

	assert.Error(t, cmd.Execute())
}

func TestOverrideCmd_RequiresTwoArgs(t *testing.T) {
	cmd := overrideCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"MT1"})

	assert.Error(t, cmd.Execute())
}

func TestSampleEvents_AreValid(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := sampleEvents(now)
	require.NotEmpty(t, events)

	published := 0
	for _, e := range events {
		require.NoError(t, e.Validate(), e.Title)
		assert.True(t, e.StartDate.After(now), e.Title)
		if e.Status == models.StatusPublished {
			published++
		}
	}
	assert.Greater(t, published, 1)
}
