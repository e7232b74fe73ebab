package command_test

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/token-agent/internal/util/command"
)

func TestNewSubcommandGroup(t *testing.T) {
	ran := false
	sub := &cobra.Command{
		Use: "apply",
		Run: func(_ *cobra.Command, _ []string) {
			ran = true
		},
	}

	group := command.NewSubcommandGroup("db", sub)
	require.Len(t, group.Commands(), 1)

	group.SetArgs([]string{"apply"})
	require.NoError(t, group.Execute())
	assert.True(t, ran)
}
