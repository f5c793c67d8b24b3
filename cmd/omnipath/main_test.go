package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnipath-client/pkg/omnipath"
)

func TestBuildParams(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want omnipath.Params
	}{
		{
			name: "single values",
			raw:  []string{"organisms=9606", "genesymbols=yes"},
			want: omnipath.Params{"organisms": "9606", "genesymbols": "yes"},
		},
		{
			name: "comma separated list",
			raw:  []string{"proteins=P00533,O15117"},
			want: omnipath.Params{"proteins": []string{"P00533", "O15117"}},
		},
		{
			name: "repeated key accumulates",
			raw:  []string{"resources=SIGNOR", "resources=PhosphoSite,HPRD"},
			want: omnipath.Params{"resources": []string{"SIGNOR", "PhosphoSite", "HPRD"}},
		},
		{
			name: "empty value kept",
			raw:  []string{"fields="},
			want: omnipath.Params{"fields": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildParams(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildParams_RejectsMalformedPairs(t *testing.T) {
	for _, raw := range []string{"organisms", "=9606"} {
		_, err := buildParams([]string{raw})
		assert.Error(t, err, raw)
	}
}

func TestCommandTree(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"get", "resources", "params", "cache", "config", "version"} {
		assert.True(t, names[want], "missing command %q", want)
	}

	for _, flag := range []string{"config", "url", "cache", "license", "log-level"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), flag)
	}
	for flag, key := range flagOverrides {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), key)
	}
}
