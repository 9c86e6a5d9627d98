package fieldpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		path     string
		segments []string
		wantErr  string
	}{
		{path: "name", segments: []string{"name"}},
		{path: "partner_id.email", segments: []string{"partner_id", "email"}},
		{path: "partner_id.country_id.code", segments: []string{"partner_id", "country_id", "code"}},
		{path: "_private", segments: []string{"_private"}},
		{path: "", wantErr: "empty path"},
		{path: "partner_id.", wantErr: "empty segment"},
		{path: ".name", wantErr: "empty segment"},
		{path: "partner_id..name", wantErr: "empty segment"},
		{path: "1st", wantErr: "invalid identifier"},
		{path: "partner_id.e-mail", wantErr: "invalid identifier"},
		{path: "{{name}}", wantErr: "invalid identifier"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p, err := Parse(tt.path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.segments, p.Segments)
			assert.Equal(t, tt.path, p.String())
		})
	}
}

func TestPath_Accessors(t *testing.T) {
	p := MustParse("partner_id.country_id.name")

	assert.Equal(t, 2, p.Depth())
	assert.Equal(t, "name", p.Name())
	assert.Equal(t, "partner_id.country_id", p.Parent())
	assert.Equal(t, "partner_id", p.Prefix(1))
	assert.Equal(t, "partner_id.country_id.name", p.Prefix(10))
	assert.Empty(t, p.Prefix(-1))

	root := MustParse("name")
	assert.Equal(t, 0, root.Depth())
	assert.Empty(t, root.Parent())
}

func TestStringHelpers(t *testing.T) {
	assert.Equal(t, "", ParentOf("name"))
	assert.Equal(t, "a", ParentOf("a.b"))
	assert.Equal(t, "a.b", ParentOf("a.b.c"))
	assert.Equal(t, "c", NameOf("a.b.c"))
	assert.Equal(t, "name", NameOf("name"))
	assert.Equal(t, 0, DepthOf("name"))
	assert.Equal(t, 2, DepthOf("a.b.c"))

	// Malformed input never panics.
	assert.Equal(t, "a.", ParentOf("a..b"))
	assert.Equal(t, "", NameOf("a."))
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("") })
}
