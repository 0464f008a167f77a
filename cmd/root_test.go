package cmd

import (
	"bytes"
	"testing"

	"github.com/nuts-foundation/nuts-negotiation-service/engine"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(args ...string) error {
	rootCommand := newRootCommand(engine.NewNegotiationServiceEngine())
	out := new(bytes.Buffer)
	rootCommand.SetOut(out)
	rootCommand.SetErr(out)
	rootCommand.SetArgs(args)
	return rootCommand.Execute()
}

func TestRootCommand(t *testing.T) {
	t.Run("migrate needs the postgres store", func(t *testing.T) {
		err := execute("migrate")

		assert.EqualError(t, err, "migrate requires --store=postgres")
	})

	t.Run("invalid config is rejected before running", func(t *testing.T) {
		err := execute("--store", "redis", "migrate")

		assert.EqualError(t, err, `invalid store: "redis", expected memory or postgres`)
	})

	t.Run("missing config file", func(t *testing.T) {
		err := execute("--configfile", "/does/not/exist.yaml", "migrate")

		assert.Error(t, err)
	})
}

func TestRequestIDGenerator(t *testing.T) {
	next := requestIDGenerator()

	first, err := ulid.Parse(next())
	require.NoError(t, err)
	second, err := ulid.Parse(next())
	require.NoError(t, err)

	assert.Equal(t, -1, first.Compare(second))
}
