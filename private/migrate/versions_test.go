// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package migrate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ckpool.org/ckdb/private/migrate"
)

func TestTargetVersion(t *testing.T) {
	m := migrate.Migration{
		Table: "versions",
		Steps: []*migrate.Step{
			{Version: 0, Action: migrate.SQL{`SELECT 0`}},
			{Version: 1, Action: migrate.SQL{`SELECT 1`}},
			{Version: 2, Action: migrate.SQL{`SELECT 2`}},
			{Version: 3, Action: migrate.SQL{`SELECT 3`}},
		},
	}

	trimmed := m.TargetVersion(2)
	require.Len(t, trimmed.Steps, 3)
	assert.Equal(t, 2, trimmed.Steps[len(trimmed.Steps)-1].Version)

	// The original migration keeps all steps.
	assert.Len(t, m.Steps, 4)
}

func TestValidateSteps(t *testing.T) {
	ordered := migrate.Migration{
		Table: "versions",
		Steps: []*migrate.Step{
			{Version: 0},
			{Version: 1},
		},
	}
	require.NoError(t, ordered.ValidateSteps())

	unordered := migrate.Migration{
		Table: "versions",
		Steps: []*migrate.Step{
			{Version: 1},
			{Version: 0},
		},
	}
	require.Error(t, unordered.ValidateSteps())
}

func TestValidTableName(t *testing.T) {
	valid := migrate.Migration{Table: "versions"}
	require.NoError(t, valid.ValidTableName())

	invalid := migrate.Migration{Table: "versions; DROP TABLE users"}
	require.Error(t, invalid.ValidTableName())
}
