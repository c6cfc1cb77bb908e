package model

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := Truncate(long)
	assert.Len(t, got, DescriptionLimit+len(Ellipsis))
	assert.True(t, strings.HasSuffix(got, Ellipsis))
	assert.Equal(t, long[:DescriptionLimit], strings.TrimSuffix(got, Ellipsis))

	short := "ten chars!"
	assert.Equal(t, short, Truncate(short))

	exact := strings.Repeat("b", DescriptionLimit)
	assert.Equal(t, exact, Truncate(exact))
}

func TestTruncateMultiByte(t *testing.T) {
	s := strings.Repeat("ã", 260)
	got := Truncate(s)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, DescriptionLimit+len(Ellipsis), utf8.RuneCountInString(got))
}

func TestTruncateToNonPositiveLimit(t *testing.T) {
	assert.Equal(t, "abc", TruncateTo("abc", 0))
}

func TestPostingIdentity(t *testing.T) {
	a := Posting{Title: "X", URL: "/a"}
	b := Posting{Title: "X (updated)", URL: "/a", Description: "changed"}
	c := Posting{Title: "X", URL: "/c"}

	assert.True(t, a.SameItem(b))
	assert.False(t, a.SameItem(c))
	assert.True(t, a.Valid())
	assert.False(t, Posting{Title: "X"}.Valid())
	assert.False(t, Posting{URL: "/a"}.Valid())
	assert.False(t, Posting{Title: " \t\n", URL: "/a"}.Valid())
	assert.False(t, Posting{Title: "X", URL: "   "}.Valid())
}
