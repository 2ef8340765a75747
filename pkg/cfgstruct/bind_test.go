// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package cfgstruct_test

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ckpool.org/ckdb/pkg/cfgstruct"
)

func TestBind(t *testing.T) {
	var config struct {
		Name      string `user:"true" help:"instance name" default:"ckdb"`
		SocketDir string `help:"socket directory" default:"/opt/ckdb"`
		KillOld   bool   `help:"kill a running instance" default:"false"`
		Database  struct {
			Host    string        `help:"server address" default:"127.0.0.1"`
			SSLMode string        `help:"sslmode setting" default:"disable"`
			Timeout time.Duration `help:"connect timeout" default:"30s"`
		}
		Workers int `help:"pool size" default:"4"`
	}

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfgstruct.Bind(flags, &config)

	// Defaults land in the struct before parsing.
	assert.Equal(t, "ckdb", config.Name)
	assert.Equal(t, "/opt/ckdb", config.SocketDir)
	assert.Equal(t, "127.0.0.1", config.Database.Host)
	assert.Equal(t, 30*time.Second, config.Database.Timeout)
	assert.Equal(t, 4, config.Workers)

	require.NoError(t, flags.Parse([]string{
		"--socket-dir", "/tmp/test",
		"--kill-old",
		"--database.ssl-mode", "require",
		"--workers=8",
	}))
	assert.Equal(t, "/tmp/test", config.SocketDir)
	assert.True(t, config.KillOld)
	assert.Equal(t, "require", config.Database.SSLMode)
	assert.Equal(t, 8, config.Workers)

	// user annotation survives on the flag.
	name := flags.Lookup("name")
	require.NotNil(t, name)
	assert.Equal(t, []string{"true"}, name.Annotations["user"])
}

func TestBindRejectsNonPointer(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	assert.Panics(t, func() { cfgstruct.Bind(flags, struct{}{}) })
}
