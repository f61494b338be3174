package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-s", "secret", "-a", ":50051"},
			allowed: []string{"-s"},
			want:    []string{"-s", "secret"},
		},
		{
			name:    "equals form",
			args:    []string{"-config=auth.json", "-a", ":50051"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-config=auth.json"},
		},
		{
			name:    "unknown flags and positionals dropped",
			args:    []string{"-x", "1", "--y=2", "register"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "trailing flag without value",
			args:    []string{"-c"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "next flag is not swallowed as value",
			args:    []string{"-c", "-d", "dsn"},
			allowed: []string{"-c", "-d"},
			want:    []string{"-c", "-d", "dsn"},
		},
		{
			name:    "order and repeats preserved",
			args:    []string{"-c", "one.json", "-a", ":1", "-c", "two.json"},
			allowed: []string{"-c", "-a"},
			want:    []string{"-c", "one.json", "-a", ":1", "-c", "two.json"},
		},
		{
			name:    "empty",
			args:    nil,
			allowed: []string{"-c"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, "/etc/auth.json", ConfigPath([]string{"-c", "/etc/auth.json"}))
	assert.Equal(t, "/etc/auth.json", ConfigPath([]string{"-a", ":1", "-config", "/etc/auth.json"}))
	assert.Equal(t, "/b.json", ConfigPath([]string{"-c=/a.json", "-config", "/b.json"}))
	assert.Empty(t, ConfigPath([]string{"-x", "1"}))
}
