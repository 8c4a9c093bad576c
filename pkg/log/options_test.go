package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_Validate(t *testing.T) {
	t.Parallel()

	createTempFile := func(t *testing.T) string {
		t.Helper()
		tempFile := filepath.Join(t.TempDir(), "conflict_file")
		require.NoError(t, os.WriteFile(tempFile, []byte("conflict"), 0644))
		return tempFile
	}

	tests := []struct {
		name        string
		buildOpts   func(t *testing.T) Options
		expectError bool
		errorMsg    string
	}{
		{
			name: "Success_Defaults",
			buildOpts: func(t *testing.T) Options {
				return Options{Name: "test-app"}
			},
		},
		{
			name: "Success_WithValidDir",
			buildOpts: func(t *testing.T) Options {
				return Options{Name: "test-app", Dir: t.TempDir()}
			},
		},
		{
			name: "Error_MissingName",
			buildOpts: func(t *testing.T) Options {
				return Options{MaxAge: 7}
			},
			expectError: true,
			errorMsg:    "application name is empty",
		},
		{
			name: "Error_DirConflictWithFile",
			buildOpts: func(t *testing.T) Options {
				return Options{Name: "test-app", Dir: createTempFile(t)}
			},
			expectError: true,
			errorMsg:    "exists as a regular file",
		},
		{
			name: "Error_NegativeMaxAge",
			buildOpts: func(t *testing.T) Options {
				return Options{Name: "test-app", MaxAge: -1}
			},
			expectError: true,
			errorMsg:    "MaxAge",
		},
		{
			name: "Error_NegativeMaxSizeMB",
			buildOpts: func(t *testing.T) Options {
				return Options{Name: "test-app", MaxSizeMB: -1}
			},
			expectError: true,
			errorMsg:    "MaxSizeMB",
		},
		{
			name: "Error_NegativeMaxBackups",
			buildOpts: func(t *testing.T) Options {
				return Options{Name: "test-app", MaxBackups: -1}
			},
			expectError: true,
			errorMsg:    "MaxBackups",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := tt.buildOpts(t)
			err := opts.Validate()

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProfiles(t *testing.T) {
	t.Parallel()

	prod := NewProductionOptions("resale-watcher")
	assert.Equal(t, InfoLevel, prod.Level)
	assert.True(t, prod.EnableCriticalLog)
	assert.False(t, prod.EnableConsoleLog)
	assert.NoError(t, prod.Validate())

	dev := NewDevelopmentOptions("resale-watcher")
	assert.Equal(t, TraceLevel, dev.Level)
	assert.True(t, dev.EnableConsoleLog)
	assert.NoError(t, dev.Validate())
}
