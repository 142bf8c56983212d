// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package geoip

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_EmptyPathDisabled(t *testing.T) {
	g, err := Open("")
	require.NoError(t, err)
	assert.False(t, g.Enabled())
	assert.NoError(t, g.Reload())
	assert.NoError(t, g.Close())
}

func TestOpen_MissingFile(t *testing.T) {
	g, err := Open(filepath.Join(t.TempDir(), "missing.mmdb"))
	assert.Error(t, err)
	require.NotNil(t, g)
	assert.False(t, g.Enabled())
	assert.Equal(t, "", g.LookupCountry("8.8.8.8"))
}

func TestLookupCountry_WithoutDatabase(t *testing.T) {
	var g Lookup

	tests := []struct {
		ip   string
		want string
	}{
		{"127.0.0.1", CountryLocal},
		{"10.0.0.5", CountryLocal},
		{"::1", CountryLocal},
		{"8.8.8.8", ""},
		{"not-an-ip", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			assert.Equal(t, tt.want, g.LookupCountry(tt.ip))
		})
	}
}
