package match

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestProperty_NoWildcardIsEquality(t *testing.T) {
	m := New()
	rapid.Check(t, func(rt *rapid.T) {
		pattern := rapid.StringMatching(`https://[a-z]{1,6}\.test/[a-z0-9/.()+?-]{0,16}`).Draw(rt, "pattern")
		url := rapid.OneOf(
			rapid.Just(pattern),
			rapid.StringMatching(`https://[a-z]{1,6}\.test/[a-z0-9/.-]{0,16}`),
		).Draw(rt, "url")

		require.Equal(rt, url == pattern, m.Matches(url, pattern))
	})
}

func TestProperty_SingleWildcardMatchesAnyMiddle(t *testing.T) {
	for _, mode := range []Mode{ModeLegacy, ModeGlob} {
		m := New(WithMode(mode))
		rapid.Check(t, func(rt *rapid.T) {
			prefix := rapid.StringMatching(`https://[a-z]{1,6}\.test/[a-z0-9/.-]{0,12}`).Draw(rt, "prefix")
			suffix := rapid.StringMatching(`[a-z0-9/.-]{0,12}`).Draw(rt, "suffix")
			middle := rapid.StringMatching(`[a-zA-Z0-9/.%~_-]{0,24}`).Draw(rt, "middle")

			pattern := prefix + Wildcard + suffix
			require.True(rt, m.Matches(prefix+middle+suffix, pattern),
				"mode %s pattern %q", mode, pattern)
		})
	}
}

func TestProperty_EscapedDotIsLiteral(t *testing.T) {
	m := New()
	rapid.Check(t, func(rt *rapid.T) {
		host := rapid.StringMatching(`[a-z]{1,8}`).Draw(rt, "host")
		sep := rapid.StringMatching(`[a-zA-Z0-9]`).Draw(rt, "sep")

		pattern := "https://" + host + ".test/*"
		url := "https://" + host + sep + "test/page"
		require.False(rt, m.Matches(url, pattern))
	})
}
