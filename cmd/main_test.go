package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keybot/keyhub/internal/config"
	"keybot/keyhub/internal/model"
)

func TestNewClassifier_ConfiguredRulesComeFirst(t *testing.T) {
	c, err := newClassifier(config.KeyFormatConfig{Rules: []config.KeyFormatRule{
		{Platform: "Epic", Pattern: `^[A-Z0-9]{5}-[A-Z0-9]{5}-[A-Z0-9]{5}-[A-Z0-9]{5}$`},
	}})
	require.NoError(t, err)

	p, err := c.Classify("ABCDE-FGHIJ-KLMNO-PQRST")
	require.NoError(t, err)
	assert.Equal(t, model.PlatformEpic, p)

	p, err = c.Classify("abcde-fghij-klmno-pqrst")
	require.NoError(t, err)
	assert.Equal(t, model.PlatformGOG, p, "defaults still apply")
}

func TestNewClassifier_RejectsUnknownPlatform(t *testing.T) {
	_, err := newClassifier(config.KeyFormatConfig{Rules: []config.KeyFormatRule{{Platform: "xbox", Pattern: "^x"}}})
	assert.ErrorIs(t, err, model.ErrInvalidPlatform)
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(config.LogConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = newLogger(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}
