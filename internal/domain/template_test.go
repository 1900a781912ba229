package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandTemplate(t *testing.T) {
	captures := []string{"9", "foo"}

	t.Run("positional references expand in any order", func(t *testing.T) {
		got := expandTemplate(`($2) "$1"`, "9 - foo", captures)

		assert.Equal(t, `(foo) "9"`, got)
	})

	t.Run("braced references", func(t *testing.T) {
		got := expandTemplate("${1}0", "9 - foo", captures)

		assert.Equal(t, "90", got)
	})

	t.Run("group zero is the whole match", func(t *testing.T) {
		got := expandTemplate("[$0]", "9 - foo", captures)

		assert.Equal(t, "[9 - foo]", got)
	})

	t.Run("out-of-range reference expands to empty string", func(t *testing.T) {
		got := expandTemplate("a$7b", "m", captures)

		assert.Equal(t, "ab", got)
	})

	t.Run("double dollar is a literal dollar", func(t *testing.T) {
		got := expandTemplate("$$1", "m", captures)

		assert.Equal(t, "$1", got)
	})

	t.Run("dollar before non-reference stays literal", func(t *testing.T) {
		assert.Equal(t, "$x", expandTemplate("$x", "m", captures))
		assert.Equal(t, "${", expandTemplate("${", "m", captures))
		assert.Equal(t, "${1", expandTemplate("${1", "m", captures))
	})

	t.Run("trailing dollar stays literal", func(t *testing.T) {
		assert.Equal(t, "end$", expandTemplate("end$", "m", captures))
	})

	t.Run("no references passes through", func(t *testing.T) {
		assert.Equal(t, "plain", expandTemplate("plain", "m", captures))
		assert.Equal(t, "", expandTemplate("", "m", captures))
	})

	t.Run("nil captures only resolve group zero", func(t *testing.T) {
		assert.Equal(t, "m-", expandTemplate("$0-$1", "m", nil))
	})
}
