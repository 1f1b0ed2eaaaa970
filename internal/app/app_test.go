package app

import (
	"context"
	"testing"
	"time"

	"farm-registry/internal/adapters/auth/iam"
	"farm-registry/internal/platform/config"
	"farm-registry/internal/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier(t *testing.T) {
	v, err := Verifier(config.Auth{})
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = Verifier(config.Auth{IAMBaseURL: "http://iam.local"})
	assert.ErrorIs(t, err, iam.ErrNotConfigured)

	v, err = Verifier(config.Auth{IAMBaseURL: "http://iam.local", IAMAPIKey: "k"})
	require.NoError(t, err)
	assert.NotNil(t, v)
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.HTTP.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, logger.Nop()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_ListenErrorIsReturned(t *testing.T) {
	cfg := config.Default()
	cfg.HTTP.Addr = "256.0.0.1:99999"

	err := Run(context.Background(), cfg, logger.Nop())
	assert.Error(t, err)
}
