//go:build property

package html

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestEscapingProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("escaped text contains no markup characters", prop.ForAll(
		func(s string) bool {
			out := HTML("%v", s).String()
			return !strings.ContainsAny(out, `<>"'`)
		},
		gen.AnyString(),
	))

	properties.Property("raw values pass through unchanged", prop.ForAll(
		func(s string) bool {
			return HTML("%v", Raw(s)).String() == s
		},
		gen.AnyString(),
	))

	properties.Property("sequences concatenate without separators", prop.ForAll(
		func(items []string) bool {
			var want strings.Builder
			for _, item := range items {
				want.WriteString(EscapeString(item))
			}
			return HTML("%v", items).String() == want.String()
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("splitting a format yields one more literal than %v markers", prop.ForAll(
		func(parts []string) bool {
			format := strings.Join(parts, "%v")
			if strings.Contains(strings.Join(parts, ""), "%") {
				return true
			}
			return len(splitFormat(format)) == len(parts) || (len(parts) == 0 && len(splitFormat(format)) == 1)
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
