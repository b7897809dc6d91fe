package post

import "strings"

// SanitizeBriefing prepares long-form briefing text for the voice feed.
// The briefing has no tag, hashtag, voice or length rule; it is folded to
// plain ASCII punctuation for the feed parser, stripped of characters XML
// cannot carry, and rejected when it has a link or an emoji, which a speech
// engine would read out verbatim.
func SanitizeBriefing(raw string) (string, error) {
	text := strings.TrimSpace(strings.Map(xmlChar, Fold(raw)))
	if text == "" {
		return "", reject(KindEmpty, "briefing is empty")
	}
	if err := checkLinks(text); err != nil {
		return "", err
	}
	if err := checkEmoji(text); err != nil {
		return "", err
	}
	return text, nil
}

// xmlChar drops runes outside the XML 1.0 Char production. Vertical tab
// and form feed become spaces.
func xmlChar(r rune) rune {
	switch {
	case r == '\v' || r == '\f':
		return ' '
	case r == '\t' || r == '\n' || r == '\r':
		return r
	case r >= 0x20 && r <= 0xD7FF,
		r >= 0xE000 && r <= 0xFFFD,
		r >= 0x10000 && r <= 0x10FFFF:
		return r
	}
	return -1
}
