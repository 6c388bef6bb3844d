package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rxdesk/m/internal/database"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSeedAndTables(t *testing.T) {
	t.Setenv("DATABASE_DSN", database.FileDSN(filepath.Join(t.TempDir(), "rx.db")))
	t.Setenv("LOG_LEVEL", "error")

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = run(t, "seed", "--file", filepath.Join("..", "assets", "drugs.csv"))
	require.NoError(t, err)
	assert.Contains(t, out, "loaded ")

	out, err = run(t, "tables")
	require.NoError(t, err)
	assert.Equal(t, "drugs\nsales\nusers\n", out)

	out, err = run(t, "tables", "drugs")
	require.NoError(t, err)
	assert.Contains(t, out, "COLUMN")
	assert.Contains(t, out, "quantity")

	_, err = run(t, "tables", "nope")
	assert.Error(t, err)

	out, err = run(t, "query", "UPDATE drugs SET quantity = ? WHERE name = ?", "7", "Paracetamol")
	require.NoError(t, err)
	assert.Equal(t, "1 rows affected\n", out)

	out, err = run(t, "query", "SELECT quantity FROM drugs WHERE name = 'Paracetamol'")
	require.NoError(t, err)
	assert.Equal(t, "QUANTITY\n7\n", out)
}

func TestFulfillNeedsProviderKey(t *testing.T) {
	t.Setenv("DATABASE_DSN", database.FileDSN(filepath.Join(t.TempDir(), "rx.db")))
	t.Setenv("VISION_PROVIDER", "gemini")
	t.Setenv("GOOGLE_API_KEY", "")

	_, err := run(t, "fulfill", filepath.Join("..", "assets", "drugs.csv"))
	assert.Error(t, err)

	_, err = run(t, "fulfill")
	assert.Error(t, err)
}
