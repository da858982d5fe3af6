package main

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not registered", name)
	return nil
}

func findStringFlag(t *testing.T, flags []cli.Flag, name string) *cli.StringFlag {
	t.Helper()
	for _, flag := range flags {
		if f, ok := flag.(*cli.StringFlag); ok && f.Name == name {
			return f
		}
	}
	t.Fatalf("string flag %q not found", name)
	return nil
}

func findIntFlag(t *testing.T, flags []cli.Flag, name string) *cli.IntFlag {
	t.Helper()
	for _, flag := range flags {
		if f, ok := flag.(*cli.IntFlag); ok && f.Name == name {
			return f
		}
	}
	t.Fatalf("int flag %q not found", name)
	return nil
}

func TestAppCommands(t *testing.T) {
	app := newApp()

	for _, name := range []string{"index", "ask", "search", "similar", "stats", "clear", "reindex"} {
		t.Run(name+" is registered", func(t *testing.T) {
			cmd := findCommand(t, app, name)
			assert.NotNil(t, cmd.Action)
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	app := newApp()

	t.Run("db has a default path", func(t *testing.T) {
		flag := findStringFlag(t, app.Flags, "db")
		assert.Equal(t, "./engram_db", flag.Value)
		assert.Contains(t, flag.Aliases, "d")
	})

	t.Run("owner has a default", func(t *testing.T) {
		flag := findStringFlag(t, app.Flags, "owner")
		assert.Equal(t, "local", flag.Value)
	})

	t.Run("api-key reads from the environment", func(t *testing.T) {
		flag := findStringFlag(t, app.Flags, "api-key")
		assert.Equal(t, []string{"ENGRAM_API_KEY"}, flag.EnvVars)
	})

	t.Run("host has no default value", func(t *testing.T) {
		flag := findStringFlag(t, app.Flags, "host")
		assert.Empty(t, flag.Value)
		assert.Empty(t, flag.EnvVars)
	})
}

func TestIndexCommandFlags(t *testing.T) {
	cmd := findCommand(t, newApp(), "index")

	t.Run("kind defaults to note", func(t *testing.T) {
		flag := findStringFlag(t, cmd.Flags, "kind")
		assert.Equal(t, "note", flag.Value)
	})

	t.Run("id is optional", func(t *testing.T) {
		flag := findStringFlag(t, cmd.Flags, "id")
		assert.False(t, flag.Required)
		assert.Empty(t, flag.Value)
	})
}

func TestSearchCommandFlags(t *testing.T) {
	cmd := findCommand(t, newApp(), "search")

	t.Run("limit has default value of 5", func(t *testing.T) {
		flag := findIntFlag(t, cmd.Flags, "limit")
		assert.Equal(t, 5, flag.Value)
	})

	t.Run("min-similarity defaults to the ranking floor", func(t *testing.T) {
		var simFlag *cli.Float64Flag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.Float64Flag); ok && f.Name == "min-similarity" {
				simFlag = f
				break
			}
		}
		require.NotNil(t, simFlag)
		assert.InDelta(t, 0.3, simFlag.Value, 1e-6)
	})

	t.Run("hybrid is off by default", func(t *testing.T) {
		var hybridFlag *cli.BoolFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.BoolFlag); ok && f.Name == "hybrid" {
				hybridFlag = f
				break
			}
		}
		require.NotNil(t, hybridFlag)
		assert.False(t, hybridFlag.Value)
	})
}

func TestReindexCommandFlags(t *testing.T) {
	cmd := findCommand(t, newApp(), "reindex")

	t.Run("batch-size has default value of 100", func(t *testing.T) {
		flag := findIntFlag(t, cmd.Flags, "batch-size")
		assert.Equal(t, 100, flag.Value)
	})

	t.Run("max-retries has default value of 3", func(t *testing.T) {
		flag := findIntFlag(t, cmd.Flags, "max-retries")
		assert.Equal(t, 3, flag.Value)
	})
}

// runWithGlobalFlags runs an action against the real global flag set so
// helpers that read flags can be exercised without touching a database.
func runWithGlobalFlags(t *testing.T, args []string, action cli.ActionFunc) {
	t.Helper()
	app := &cli.App{
		Name:   "engram",
		Flags:  newApp().Flags,
		Action: action,
	}
	require.NoError(t, app.Run(append([]string{"engram"}, args...)))
}

func TestResolveAIConfig(t *testing.T) {
	t.Run("defaults apply when no flags are set", func(t *testing.T) {
		t.Setenv("ENGRAM_API_KEY", "")
		runWithGlobalFlags(t, nil, func(c *cli.Context) error {
			cfg := resolveAIConfig(c)
			assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
			assert.Equal(t, "all-minilm", cfg.EmbeddingModel)
			assert.Equal(t, "qwen2.5:3b", cfg.ChatModel)
			assert.Equal(t, 384, cfg.EmbeddingDimensions)
			return nil
		})
	})

	t.Run("host sets both the embedding and chat hosts", func(t *testing.T) {
		runWithGlobalFlags(t, []string{"--host", "http://models.internal:8080"}, func(c *cli.Context) error {
			cfg := resolveAIConfig(c)
			assert.Equal(t, "http://models.internal:8080", cfg.EmbeddingHost)
			assert.Equal(t, "http://models.internal:8080", cfg.ChatHost)
			return nil
		})
	})

	t.Run("model flags override the defaults", func(t *testing.T) {
		args := []string{"--embedding-model", "nomic-embed-text", "--chat-model", "llama3.2:3b"}
		runWithGlobalFlags(t, args, func(c *cli.Context) error {
			cfg := resolveAIConfig(c)
			assert.Equal(t, "nomic-embed-text", cfg.EmbeddingModel)
			assert.Equal(t, "llama3.2:3b", cfg.ChatModel)
			return nil
		})
	})

	t.Run("api key comes from the environment", func(t *testing.T) {
		t.Setenv("ENGRAM_API_KEY", "sk-from-env")
		runWithGlobalFlags(t, nil, func(c *cli.Context) error {
			cfg := resolveAIConfig(c)
			assert.Equal(t, "sk-from-env", cfg.APIKey)
			return nil
		})
	})

	t.Run("api key flag wins over the environment", func(t *testing.T) {
		t.Setenv("ENGRAM_API_KEY", "sk-from-env")
		runWithGlobalFlags(t, []string{"--api-key", "sk-from-flag"}, func(c *cli.Context) error {
			cfg := resolveAIConfig(c)
			assert.Equal(t, "sk-from-flag", cfg.APIKey)
			return nil
		})
	})
}

func TestSetupLogger(t *testing.T) {
	t.Run("default level is info", func(t *testing.T) {
		runWithLoggerSetup(t, nil)
		assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelInfo))
		assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
	})

	t.Run("verbose enables debug", func(t *testing.T) {
		runWithLoggerSetup(t, []string{"--verbose"})
		assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
	})
}

func runWithLoggerSetup(t *testing.T, args []string) {
	t.Helper()
	app := &cli.App{
		Name:   "engram",
		Flags:  newApp().Flags,
		Before: setupLogger,
		Action: func(c *cli.Context) error { return nil },
	}
	require.NoError(t, app.Run(append([]string{"engram"}, args...)))
}

func TestConfirmed(t *testing.T) {
	testCases := []struct {
		input    string
		expected bool
	}{
		{"y", true},
		{"Y", true},
		{"yes", true},
		{"YES\n", true},
		{"  y  ", true},
		{"", false},
		{"n", false},
		{"no", false},
		{"nah", false},
		{"y es", false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, confirmed(tc.input))
		})
	}
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}
