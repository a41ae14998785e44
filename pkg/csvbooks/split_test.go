package csvbooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSimple(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b", "", "c"}, SplitSimple("a,b,,c"))
	assert.Equal(t, []string{`"x`, ` y"`}, SplitSimple(`"x, y"`))
	assert.Equal(t, []string{""}, SplitSimple(""))
}

func TestSplitQuoted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want []string
	}{
		{"no quotes", "a,b,c", []string{"a", "b", "c"}},
		{"comma inside quotes", `1,"Smith, John",x`, []string{"1", "Smith, John", "x"}},
		{"quotes are dropped", `"a","b"`, []string{"a", "b"}},
		{"trailing empty field", "a,", []string{"a", ""}},
		{"empty line", "", []string{""}},
		{"unterminated quote swallows the rest", `a,"b,c`, []string{"a", "b,c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SplitQuoted(tt.line))
		})
	}
}

func TestParseDialect(t *testing.T) {
	t.Parallel()

	d, err := ParseDialect("")
	require.NoError(t, err)
	assert.Equal(t, DialectQuoted, d)

	d, err = ParseDialect(" Simple ")
	require.NoError(t, err)
	assert.Equal(t, DialectSimple, d)

	_, err = ParseDialect("tsv")
	assert.ErrorIs(t, err, ErrUnknownDialect)
}
