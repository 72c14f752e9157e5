package registry

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registryPath(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..", "configs", "activity-registry.json")
}

func TestLoadRegistry_ShippedFile(t *testing.T) {
	reg, err := LoadRegistry(registryPath(t))
	require.NoError(t, err)

	for _, taskType := range []string{
		"match-candidates",
		"allocate-internships",
		"generate-diversity-report",
		"update-allocation-config",
	} {
		a, ok := reg.Find(taskType)
		require.True(t, ok, taskType)
		assert.NotEmpty(t, a.InputSchema, taskType)
		assert.Greater(t, a.Retries, 0, taskType)
	}

	_, ok := reg.Find("send-email")
	assert.False(t, ok)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed", body: `{"activities": [`},
		{name: "missing task type", body: `{"activities": [{"id": "a"}]}`},
		{name: "duplicate task type", body: `{"activities": [{"id": "a", "taskType": "x"}, {"id": "b", "taskType": "x"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
