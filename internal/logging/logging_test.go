package logging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/verte-zerg/subcrack/internal/cipher"
	"github.com/verte-zerg/subcrack/internal/mcmc"
)

func TestNewRejectsUnknownSettings(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.Error(t, err)
	_, err = New(Config{Format: "xml"})
	require.Error(t, err)

	logger, err := New(Config{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestSearchObserverFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	obs := SearchObserver{Logger: zap.New(core), Ciphertext: strings.Repeat("ab ", 40)}

	obs.OnProgress(mcmc.Progress{Trial: 0, Iteration: 1000, CurrentKey: cipher.Identity(), CurrentScore: 12.5, BestScore: 20})
	obs.OnTrialDone(mcmc.TrialResult{Trial: 1, BestKey: cipher.Identity(), BestScore: 20})

	entries := logs.All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(1), fields["trial"])
	assert.Equal(t, int64(1000), fields["iteration"])
	assert.Len(t, fields["preview"], previewLen)
	assert.Equal(t, "trial finished", entries[1].Message)
	assert.Equal(t, int64(2), entries[1].ContextMap()["trial"])
}

func TestTrialDoneLogsDecryption(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	obs := SearchObserver{Logger: zap.New(core), Ciphertext: "FAD  OEM"}
	key, err := cipher.ParseKey("BULCYADVRSGWZMXFPQTNOIJKHE")
	require.NoError(t, err)

	obs.OnTrialDone(mcmc.TrialResult{Trial: 0, BestKey: key, BestScore: 3})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "ABC  XYZ", entries[0].ContextMap()["decrypted"])
}
