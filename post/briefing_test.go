package post

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeBriefing(t *testing.T) {
	t.Run("folds punctuation and keeps first person", func(t *testing.T) {
		got, err := SanitizeBriefing("\n  I’d call it “quiet” — markets flat…\n\nEnd of briefing.  ")
		require.NoError(t, err)
		assert.Equal(t, "I'd call it \"quiet\" - markets flat...\n\nEnd of briefing.", got)
	})

	t.Run("hashtags are not a briefing rule", func(t *testing.T) {
		got, err := SanitizeBriefing("Trending as #ceasefire overnight.")
		require.NoError(t, err)
		assert.Equal(t, "Trending as #ceasefire overnight.", got)
	})

	t.Run("drops characters xml cannot carry", func(t *testing.T) {
		got, err := SanitizeBriefing("Markets flat.\x0bEnd of\x00 briefing.\ufffe\x1b")
		require.NoError(t, err)
		assert.Equal(t, "Markets flat. End of briefing.", got)
	})

	rejections := []struct {
		name string
		raw  string
		kind Kind
	}{
		{"empty", "  \n ", KindEmpty},
		{"only control characters", "\x01\x02 \x0b", KindEmpty},
		{"link", "Full text at https://example.org today.", KindLink},
		{"bare www", "See WWW.example.org.", KindLink},
		{"emoji", "Markets up \U0001F4C8 again.", KindEmoji},
	}
	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SanitizeBriefing(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCompliance))
			assert.Equal(t, tt.kind, RejectionKind(err))
		})
	}
}
