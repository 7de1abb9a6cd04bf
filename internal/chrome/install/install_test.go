package install

import (
	"encoding/json"
	"testing"
)

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testID = "knldjmfmopnpolahpmmgbagdohdnhkik"

func testManifest() Manifest {
	return Manifest{
		Name:           HostName,
		Description:    "Test host",
		Path:           "/opt/everything/everything-host",
		AllowedOrigins: []string{"chrome-extension://" + testID + "/"},
	}
}

func TestMarshal(t *testing.T) {
	buf, err := testManifest().Marshal()
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf, &got))
	assert.Equal(t, "stdio", got["type"])
	assert.Equal(t, HostName, got["name"])
	assert.Equal(t, []interface{}{"chrome-extension://" + testID + "/"}, got["allowed_origins"])
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "com.everythingeverywhere.host.json", testManifest().Filename())
}

func TestValidName(t *testing.T) {
	var tests = []struct {
		name string
		want bool
	}{
		{HostName, true},
		{"host", true},
		{"a_b.c1", true},
		{"Com.Example", false},
		{"a..b", false},
		{".a", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidName(tt.name))
		})
	}
}

func TestExtensionOrigin(t *testing.T) {
	got, err := ExtensionOrigin(testID)
	require.NoError(t, err)
	assert.Equal(t, "chrome-extension://"+testID+"/", got)

	_, err = ExtensionOrigin("not-an-id")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, testManifest().Validate())

	m := testManifest()
	m.Path = "relative/host"
	assert.Error(t, m.Validate())

	m = testManifest()
	m.AllowedOrigins = nil
	assert.Error(t, m.Validate())

	m = testManifest()
	m.AllowedOrigins = []string{"https://example.com/"}
	assert.Error(t, m.Validate())
}
