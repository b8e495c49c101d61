package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgetwin/runtime/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		ListenAuthority:         ":0",
		AskTimeoutMS:            1000,
		ManagedSubscribeEnabled: false,
		GraphEnabled:            true,
		RegistryEnabled:         true,
		LogLevel:                "debug",
		MetricsAuthority:        ":0",
	}
}

func TestInitializeWiresEveryComponentWhenManagedSubscribeDisabled(t *testing.T) {
	deps, err := Initialize(testConfig())
	require.NoError(t, err)
	defer deps.Close()

	assert.NotNil(t, deps.Logger)
	assert.NotNil(t, deps.DI)
	assert.NotNil(t, deps.Registry)
	assert.NotNil(t, deps.DispatchRegistry)
	assert.NotNil(t, deps.Router)
	assert.NotNil(t, deps.Correlator)
	assert.NotNil(t, deps.Graph)
	assert.Nil(t, deps.ManagedSub)
	assert.NotNil(t, deps.Pipeline)
	assert.Empty(t, deps.Pipeline.Stages())
	assert.NotNil(t, deps.Handlers)
	assert.Nil(t, deps.Handlers.ManagedSub)

	require.NoError(t, deps.ShutdownTracing(context.Background()))
}

func TestInitializeSkipsGraphFacadeWhenDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.GraphEnabled = false

	deps, err := Initialize(cfg)
	require.NoError(t, err)
	defer deps.Close()

	assert.Nil(t, deps.Graph)
	assert.Nil(t, deps.Handlers.Graph)
}

func TestInitializeRegistersStubSendersRegardlessOfManagedSubscribe(t *testing.T) {
	deps, err := Initialize(testConfig())
	require.NoError(t, err)
	defer deps.Close()

	_, ok := deps.DispatchRegistry.Get("can")
	assert.True(t, ok)
	_, ok = deps.DispatchRegistry.Get("ble")
	assert.True(t, ok)
	_, ok = deps.DispatchRegistry.Get("mqtt")
	assert.False(t, ok)
}
