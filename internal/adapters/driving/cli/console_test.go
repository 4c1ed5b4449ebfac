package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/messages"
)

func TestConsoleCmd(t *testing.T) {
	assert.Equal(t, "console [question]", consoleCmd.Use)
	assert.NotEmpty(t, consoleCmd.Short)
	assert.Contains(t, consoleCmd.Long, "follow-up")
}

func TestConsoleCmd_RequiresQueryService(t *testing.T) {
	defer resetFlags()

	_, err := run(t, "console")

	assert.EqualError(t, err, "query service not configured")
}

func TestBuildConsole(t *testing.T) {
	t.Run("without documents", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()
		documentReader = nil

		app, err := buildConsole()

		require.NoError(t, err)
		assert.Equal(t, messages.ViewMenu, app.CurrentView())
	})

	t.Run("with documents", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()

		app, err := buildConsole()

		require.NoError(t, err)
		require.NotNil(t, app)
		app.SetDimensions(100, 30)
		assert.Contains(t, app.View(), "Documents")
	})
}
