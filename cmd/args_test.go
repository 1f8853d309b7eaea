package cmd

import (
	"testing"

	"github.com/khrees2412/jobharvest/internal/app"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

// withTempHome points config and database at a throwaway home directory.
func withTempHome(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestInvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"config set without value", []string{"config", "set", "--key", "limit", "--value", ""}},
		{"config set without key", []string{"config", "set", "--key", "", "--value", "10"}},
		{"jobs show with a non-number", []string{"jobs", "show", "abc"}},
		{"jobs show out of range", []string{"jobs", "show", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withTempHome(t)
			_, err := runRoot(t, tt.args...)
			assert.ErrorIs(t, err, app.ErrInvalidArgument)
		})
	}
}
