package compose

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/composed/internal/apperr"
)

const twoServices = `version: "3.9"
services:
  web:
    image: nginx
    container_name: custom
  db:
    image: postgres
volumes:
  data: {}
  cache:
networks:
  front: {}
`

func TestParse(t *testing.T) {
	out := Parse("shop", "/srv/shop/docker-compose.yml", []byte(twoServices))
	require.True(t, out.OK(), "unexpected error: %v", out.Err)

	p := out.Project
	assert.Equal(t, "shop", p.Name)
	assert.Equal(t, "/srv/shop/docker-compose.yml", p.Path)
	assert.Equal(t, "3.9", p.Version)
	assert.Equal(t, []string{"web", "db"}, p.Services.Names())
	assert.Equal(t, []string{"data", "cache"}, p.Volumes)
	assert.Equal(t, []string{"front"}, p.Networks)

	assert.Equal(t, "custom", p.Services[0].ContainerName())
	assert.Empty(t, p.Services[1].ContainerName())
}

func TestParseDefaults(t *testing.T) {
	out := Parse("bare", "/x", []byte("services:\n  app:\n    image: alpine\n"))
	require.True(t, out.OK())
	assert.Equal(t, NoVersion, out.Project.Version)
	assert.Empty(t, out.Project.Volumes)
	assert.NotNil(t, out.Project.Volumes)
	assert.NotNil(t, out.Project.Networks)
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		hasLoc  bool
	}{
		{"empty", "", false},
		{"comment only", "# nothing here\n", false},
		{"null document", "~\n", false},
		{"syntax error", "services:\n  web: image: nginx\n", true},
		{"scalar document", "just a string\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Parse("p", "/p/docker-compose.yml", []byte(tt.content))
			require.False(t, out.OK())
			assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(out.Err))

			var fault *apperr.Error
			require.ErrorAs(t, out.Err, &fault)
			if tt.hasLoc {
				require.NotNil(t, fault.Location)
				assert.Greater(t, fault.Location.Line, 0)
			} else {
				assert.Nil(t, fault.Location)
			}
		})
	}
}

func TestParseServiceKeys(t *testing.T) {
	tests := []struct {
		name    string
		content string
		err     error
		line    int
		column  int
	}{
		{
			name:    "duplicate key",
			content: "services:\n  web:\n    image: a\n  web:\n    image: b\n",
			err:     ErrDuplicateService,
			line:    4,
			column:  3,
		},
		{
			name:    "duplicate flow key",
			content: "services: {web: {image: a}, web: {image: b}}\n",
			err:     ErrDuplicateService,
			line:    1,
			column:  29,
		},
		{
			name:    "path traversal",
			content: "services:\n  ../../../tmp/evil:\n    container_name: real\n",
			err:     ErrInvalidServiceName,
			line:    2,
			column:  3,
		},
		{
			name:    "separator",
			content: "services:\n  web/api: {}\n",
			err:     ErrInvalidServiceName,
			line:    2,
			column:  3,
		},
		{
			name:    "leading dot",
			content: "services:\n  .hidden: {}\n",
			err:     ErrInvalidServiceName,
			line:    2,
			column:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Parse("p", "/p/docker-compose.yml", []byte(tt.content))
			require.False(t, out.OK())
			assert.ErrorIs(t, out.Err, tt.err)
			assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(out.Err))

			var fault *apperr.Error
			require.ErrorAs(t, out.Err, &fault)
			require.NotNil(t, fault.Location)
			assert.Equal(t, tt.line, fault.Location.Line)
			assert.Equal(t, tt.column, fault.Location.Column)
		})
	}
}

func TestValidServiceName(t *testing.T) {
	for _, name := range []string{"web", "db_1", "api.v2", "Worker-2", "9lives"} {
		assert.True(t, ValidServiceName(name), name)
	}
	for _, name := range []string{"", "..", ".env", "-flag", "a/b", `a\b`, "../x", "with space"} {
		assert.False(t, ValidServiceName(name), name)
	}
}

func TestParseSyntaxErrorMessage(t *testing.T) {
	out := Parse("p", "/p/docker-compose.yml", []byte("a: b\nc: d: e\n"))
	require.False(t, out.OK())

	var fault *apperr.Error
	require.ErrorAs(t, out.Err, &fault)
	require.NotNil(t, fault.Location)
	assert.Equal(t, 2, fault.Location.Line)
	assert.Equal(t, 0, fault.Location.Column)
	assert.NotContains(t, fault.Message, "yaml: line")
}

func TestServicesJSONKeepsOrder(t *testing.T) {
	out := Parse("p", "/p", []byte("services:\n  zeta:\n    image: a\n  alpha:\n    image: b\n"))
	require.True(t, out.OK())

	data, err := json.Marshal(out.Project.Services)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":{"image":"a"},"alpha":{"image":"b"}}`, string(data))

	var back Services
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []string{"zeta", "alpha"}, back.Names())
}

func TestParseNonStringKeys(t *testing.T) {
	out := Parse("p", "/p", []byte("services:\n  app:\n    labels:\n      1: one\n"))
	require.True(t, out.OK())

	_, err := json.Marshal(out.Project.Services)
	assert.NoError(t, err)
}
