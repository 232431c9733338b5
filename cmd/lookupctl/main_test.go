package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/location-lookup/internal/usecase/dto"
)

func TestQueryFlags_Params(t *testing.T) {
	cmd := &cobra.Command{Use: "resolve"}
	var flags queryFlags
	flags.bind(cmd)

	require.NoError(t, cmd.ParseFlags([]string{
		"--term", "Praha", "-l", "cs", "--lat", "50.08", "--lon", "14.43",
		"-r", "5", "--type", "city,region", "-n", "3", "--country", "cz",
	}))

	assert.Equal(t, dto.LocationQueryParams{
		Term:       "Praha",
		Locale:     "cs",
		Lat:        "50.08",
		Lon:        "14.43",
		Radius:     "5",
		Type:       "city,region",
		Limit:      "3",
		CountryISO: "cz",
	}, flags.params())
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	root := newRootCmd(&session{})

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"resolve", "search", "ping"})
}

func TestRootCmd_RejectsPositionalArgs(t *testing.T) {
	root := newRootCmd(&session{})
	root.PersistentPreRunE = nil
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"resolve", "Praha"})

	assert.Error(t, root.Execute())
}
