// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package ckdbdb

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ckpool.org/ckdb/private/migrate"
)

// The schema validity checks need no database connection.

func TestMigrationValid(t *testing.T) {
	migration := (&DB{}).Migration()

	require.NoError(t, migration.ValidTableName())
	require.NoError(t, migration.ValidateSteps())

	for i, step := range migration.Steps {
		assert.Equal(t, i, step.Version, "steps must be contiguous from 0")
		assert.NotEmpty(t, step.Description)
	}
}

func TestMigrationCoversSchema(t *testing.T) {
	migration := (&DB{}).Migration()

	var b strings.Builder
	for _, step := range migration.Steps {
		statements, ok := step.Action.(migrate.SQL)
		require.True(t, ok, "step %d is not plain SQL", step.Version)
		for _, statement := range statements {
			b.WriteString(statement)
			b.WriteString("\n")
		}
	}
	ddl := b.String()

	for _, table := range []string{
		"users", "workers", "payments", "workinfo", "auths", "poolstats", "idcontrol",
	} {
		assert.Contains(t, ddl, "CREATE TABLE "+table+" (", table)
	}

	// The counters that AddUser and Authorise bump are seeded by the
	// migration itself.
	for _, idname := range []string{"'userid'", "'workerid'", "'authid'"} {
		assert.Contains(t, ddl, idname)
	}

	// Live rows rely on the expiry sentinel default.
	assert.Contains(t, ddl, "DEFAULT '6666-06-06 06:06:06+00'")
}
