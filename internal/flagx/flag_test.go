package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	serverFlags := []string{"-a", "-d", "-s", "-t", "-o", "-m", "-l"}
	fileFlags := []string{"-c", "-config", "-env"}

	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "server flags picked out of a mixed command line",
			args:    []string{"-c", "taskflow.json", "-a", ":9090", "-env", ".env.prod", "-d", "postgres://db/taskflow"},
			allowed: serverFlags,
			want:    []string{"-a", ":9090", "-d", "postgres://db/taskflow"},
		},
		{
			name:    "file flags picked out of the same command line",
			args:    []string{"-c", "taskflow.json", "-a", ":9090", "-env", ".env.prod"},
			allowed: fileFlags,
			want:    []string{"-c", "taskflow.json", "-env", ".env.prod"},
		},
		{
			name:    "equals form",
			args:    []string{"-config=/etc/taskflow.json", "-l=debug"},
			allowed: fileFlags,
			want:    []string{"-config=/etc/taskflow.json"},
		},
		{
			name:    "equals form keeps a dash-leading value",
			args:    []string{"-s=--not-a-flag"},
			allowed: serverFlags,
			want:    []string{"-s=--not-a-flag"},
		},
		{
			name:    "dangling flag kept without value",
			args:    []string{"-t"},
			allowed: serverFlags,
			want:    []string{"-t"},
		},
		{
			name:    "next flag is not swallowed as a value",
			args:    []string{"-m", "-l", "warn"},
			allowed: serverFlags,
			want:    []string{"-m", "-l", "warn"},
		},
		{
			name:    "positional and unknown tokens dropped",
			args:    []string{"serve", "--verbose", "x"},
			allowed: serverFlags,
			want:    []string{},
		},
		{
			name:    "repeated flag preserved in order",
			args:    []string{"-o", "5", "-o", "15"},
			allowed: serverFlags,
			want:    []string{"-o", "5", "-o", "15"},
		},
		{
			name:    "nil args",
			args:    nil,
			allowed: fileFlags,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("short -c with value", func(t *testing.T) {
		os.Args = []string{"taskflow", "-c", "/etc/taskflow/short.json"}
		assert.Equal(t, "/etc/taskflow/short.json", ConfigFileFlag())
	})

	t.Run("long -config with value", func(t *testing.T) {
		os.Args = []string{"taskflow", "-config", "/etc/taskflow/long.json"}
		assert.Equal(t, "/etc/taskflow/long.json", ConfigFileFlag())
	})

	t.Run("server flags are ignored", func(t *testing.T) {
		os.Args = []string{"taskflow", "-a", ":8080", "-d", "postgres://x"}
		assert.Empty(t, ConfigFileFlag())
	})

	t.Run("multiple flags, last wins", func(t *testing.T) {
		os.Args = []string{"taskflow", "-c", "/path/1.json", "-config", "/path/2.json"}
		assert.Equal(t, "/path/2.json", ConfigFileFlag())
	})
}

func TestEnvFileFlag(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"taskflow", "-c", "conf.json", "-env", "/srv/taskflow/.env"}
	assert.Equal(t, "/srv/taskflow/.env", EnvFileFlag())

	os.Args = []string{"taskflow", "-env=prod.env"}
	assert.Equal(t, "prod.env", EnvFileFlag())

	os.Args = []string{"taskflow"}
	assert.Empty(t, EnvFileFlag())
}
