package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "short flag with separate value",
			args:         []string{"-c", "conf.json", "-a", "localhost"},
			allowedFlags: []string{"-c", "-config"},
			want:         []string{"-c", "conf.json"},
		},
		{
			name:         "flag with equals",
			args:         []string{"-config=alt.json", "-a", "localhost"},
			allowedFlags: []string{"-c", "-config"},
			want:         []string{"-config=alt.json"},
		},
		{
			name:         "unknown flags ignored",
			args:         []string{"-x", "1", "-y=2", "positional"},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
		{
			name:         "flag without value at end",
			args:         []string{"-s"},
			allowedFlags: []string{"-s"},
			want:         []string{"-s"},
		},
		{
			name:         "next dash token is not a value",
			args:         []string{"-s", "-a", ":8080"},
			allowedFlags: []string{"-s", "-a"},
			want:         []string{"-s", "-a", ":8080"},
		},
		{
			name:         "repeated flag keeps order",
			args:         []string{"-d", "one", "-d", "two"},
			allowedFlags: []string{"-d"},
			want:         []string{"-d", "one", "-d", "two"},
		},
		{
			name:         "empty args",
			args:         nil,
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestConfigFile(t *testing.T) {
	assert.Equal(t, "/etc/todokeeper.json", ConfigFile([]string{"-c", "/etc/todokeeper.json"}))
	assert.Equal(t, "/tmp/a.json", ConfigFile([]string{"-a", ":8080", "-config", "/tmp/a.json"}))
	assert.Equal(t, "/tmp/2.json", ConfigFile([]string{"-c", "/tmp/1.json", "-config", "/tmp/2.json"}))
	assert.Empty(t, ConfigFile([]string{"-s", "secret"}))
}
