package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadataString(t *testing.T) {
	t.Parallel()

	m := Metadata{"source": "Example Feed", "count": 3}
	assert.Equal(t, "Example Feed", m.String("source"))
	assert.Empty(t, m.String("count"))
	assert.Empty(t, m.String("missing"))

	var empty Metadata
	assert.Empty(t, empty.String("source"))
}

func TestMetadataStrings(t *testing.T) {
	t.Parallel()

	m := Metadata{
		"native":  []string{"a", "b"},
		"decoded": []any{"a", 1, "b"},
		"scalar":  "a",
	}
	assert.Equal(t, []string{"a", "b"}, m.Strings("native"))
	assert.Equal(t, []string{"a", "b"}, m.Strings("decoded"))
	assert.Nil(t, m.Strings("scalar"))
	assert.Nil(t, m.Strings("missing"))
}

func TestMetadataBool(t *testing.T) {
	t.Parallel()

	m := Metadata{"frontmatter": true, "layout": "post"}
	assert.True(t, m.Bool("frontmatter"))
	assert.False(t, m.Bool("layout"))
	assert.False(t, m.Bool("missing"))

	var empty Metadata
	assert.False(t, empty.Bool("frontmatter"))
}

func TestArticleOrigin(t *testing.T) {
	t.Parallel()

	withSource := Article{Metadata: Metadata{"source": "Example Feed"}}
	assert.Equal(t, "Example Feed", withSource.Origin())

	assert.Equal(t, "Unknown", Article{}.Origin())
	assert.Equal(t, "Unknown", Article{Metadata: Metadata{"source": ""}}.Origin())
}
