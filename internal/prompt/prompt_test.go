package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	t.Parallel()

	out := Render("Company: {{company}}\nRole: {{role}}\nLeft {{ untouched }}", map[string]string{"company": "Acme", "role": "  "})
	assert.Equal(t, "Company: Acme\nRole: Not specified\nLeft {{ untouched }}", out)
}

func TestRenderDoesNotExpandValues(t *testing.T) {
	t.Parallel()

	out := Render("{{a}} {{b}}", map[string]string{"a": "{{b}}", "b": "x"})
	assert.Equal(t, "{{b}} x", out)
}

func TestIsUnspecified(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"", "  ", "Not specified", "not SPECIFIED", "N/A"} {
		assert.True(t, IsUnspecified(v), v)
	}
	assert.False(t, IsUnspecified("5 years"))
}

func TestJoin(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a\n\nb", Join("a", "", "  ", "b "))
	assert.Equal(t, "", Join("", " "))
}
