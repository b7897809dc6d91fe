// Package post turns untrusted model output into a publishable post.
//
// Normalize runs a fixed sequence of stages. Cosmetic problems (curly
// quotes, a missing or mangled tag prefix, excess length) are repaired
// mechanically. Content problems (extra hashtags, links, emoji, first-person
// voice) are hard rejections: the draft is discarded and must be regenerated.
package post

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// asciiFolder maps typographic punctuation to plain ASCII.
var asciiFolder = strings.NewReplacer(
	"“", `"`, "”", `"`, "„", `"`, "«", `"`, "»", `"`,
	"‘", "'", "’", "'", "‚", "'", "′", "'",
	"—", "-", "–", "-", "‒", "-", "−", "-",
	"…", "...",
	"\u00a0", " ", "\u2009", " ", "\u202f", " ",
)

var linkMarkers = []string{"http://", "https://", "www."}

var firstPersonWords = map[string]struct{}{
	"i": {}, "me": {}, "my": {},
	"i'm": {}, "im": {},
	"i've": {}, "ive": {},
}

const (
	emojiLow  = 0x1F300
	emojiHigh = 0x1FAFF
)

// Draft is a raw completion awaiting normalization.
type Draft struct {
	Text string
	Mode Mode
	// Summary is the signal summary the prompt was built from. No rule
	// consults it; it travels with the draft for diagnostics.
	Summary string
}

// Post is a compliant post. The zero value is not publishable; the only
// way to obtain a non-zero Post is Normalizer.Normalize.
type Post struct {
	text      string
	mode      Mode
	profile   string
	truncated bool
}

// Text returns the compliant post text.
func (p Post) Text() string { return p.text }

// Mode returns the mode the post was normalized for.
func (p Post) Mode() Mode { return p.mode }

// Profile returns the name of the profile that produced the post.
func (p Post) Profile() string { return p.profile }

// Truncated reports whether the length rule shortened the text.
func (p Post) Truncated() bool { return p.truncated }

// IsZero reports whether p was never produced by a Normalizer.
func (p Post) IsZero() bool { return p.text == "" }

// Normalizer applies one Profile. It holds no mutable state and is safe for
// concurrent use.
type Normalizer struct {
	profile Profile
}

// NewNormalizer validates profile and returns a Normalizer for it.
func NewNormalizer(profile Profile) (*Normalizer, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &Normalizer{profile: profile}, nil
}

// Profile returns the profile this normalizer enforces.
func (n *Normalizer) Profile() Profile { return n.profile }

// Normalize coerces d into a compliant Post or returns a *ComplianceError.
// Each stage sees only the previous stage's output.
func (n *Normalizer) Normalize(d Draft) (Post, error) {
	text := Fold(d.Text)

	text, err := n.repairPrefix(text, d.Mode)
	if err != nil {
		return Post{}, err
	}

	if err := n.check(text); err != nil {
		return Post{}, err
	}

	prefixLen := utf8.RuneCountInString(n.profile.Prefix(d.Mode))
	out, err := n.truncate(text, prefixLen)
	if err != nil {
		return Post{}, err
	}

	return Post{
		text:      out,
		mode:      d.Mode,
		profile:   n.profile.Name,
		truncated: out != text,
	}, nil
}

// Fold trims surrounding whitespace, composes to NFC and replaces curly
// quotes, dashes, the ellipsis character and non-breaking spaces with ASCII.
func Fold(s string) string {
	s = norm.NFC.String(s)
	s = asciiFolder.Replace(s)
	return strings.TrimSpace(s)
}

// repairPrefix makes text start with exactly the mode's prefix. It never
// duplicates the tag or the marker and is idempotent.
func (n *Normalizer) repairPrefix(text string, mode Mode) (string, error) {
	body := text
	if rest, ok := cutFoldPrefix(body, n.profile.Tag); ok && !continuesTag(n.profile.Tag, rest) {
		body = strings.TrimLeftFunc(rest, unicode.IsSpace)
	}
	if mode == ModeSpecial {
		if rest, ok := cutFoldPrefix(body, n.profile.SpecialMarker); ok {
			body = strings.TrimLeftFunc(rest, unicode.IsSpace)
		}
	}
	if body == "" {
		return "", reject(KindEmpty, "no text after %q", strings.TrimSpace(n.profile.Prefix(mode)))
	}
	return n.profile.Prefix(mode) + body, nil
}

// check runs the hard rejections in order. The first failure wins.
func (n *Normalizer) check(text string) error {
	if err := checkHashtags(text); err != nil {
		return err
	}
	if err := checkLinks(text); err != nil {
		return err
	}
	if err := checkEmoji(text); err != nil {
		return err
	}
	return checkVoice(text)
}

// truncate cuts text at the last whitespace that keeps the result within
// MaxLength once the ellipsis is appended. The cut is never inside the
// prefix and never splits a word.
func (n *Normalizer) truncate(text string, prefixLen int) (string, error) {
	runes := []rune(text)
	limit := n.profile.MaxLength
	if len(runes) <= limit {
		return text, nil
	}

	budget := limit - utf8.RuneCountInString(Ellipsis)
	for cut := budget; cut > prefixLen; cut-- {
		if !unicode.IsSpace(runes[cut]) {
			continue
		}
		out := strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace) + Ellipsis
		// "www" + "..." would read as a link.
		if checkLinks(out) != nil {
			continue
		}
		return out, nil
	}
	return "", reject(KindUnbreakable, "%d characters with no word break before %d", len(runes), limit)
}

func checkHashtags(text string) error {
	for i, tok := range strings.Fields(text) {
		if i == 0 {
			// The repaired prefix guarantees this is the tag.
			continue
		}
		if strings.HasPrefix(tok, "#") {
			return reject(KindHashtag, "extra hashtag %q", tok)
		}
	}
	return nil
}

func checkLinks(text string) error {
	lowered := strings.ToLower(text)
	for _, m := range linkMarkers {
		if strings.Contains(lowered, m) {
			return reject(KindLink, "contains %q", m)
		}
	}
	return nil
}

func checkEmoji(text string) error {
	for _, r := range text {
		if r >= emojiLow && r <= emojiHigh {
			return reject(KindEmoji, "code point U+%04X", r)
		}
	}
	return nil
}

func checkVoice(text string) error {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '.'
	})
	for _, w := range words {
		w = strings.ToLower(strings.Trim(w, "'."))
		if _, ok := firstPersonWords[w]; ok {
			return reject(KindFirstPerson, "first-person %q", w)
		}
		// An apostrophe also separates words: I'd, I'll.
		if !strings.Contains(w, "'") {
			continue
		}
		for _, part := range strings.Split(w, "'") {
			if _, ok := firstPersonWords[strings.Trim(part, ".")]; ok {
				return reject(KindFirstPerson, "first-person %q in %q", part, w)
			}
		}
	}
	return nil
}

// continuesTag reports whether rest extends the tag into a longer word,
// as "ers" does in "#tankers". A glued capital ("#tankLeaders") does not.
func continuesTag(tag, rest string) bool {
	last, _ := utf8.DecodeLastRuneInString(tag)
	if !unicode.IsLetter(last) && !unicode.IsDigit(last) {
		return false
	}
	next, _ := utf8.DecodeRuneInString(rest)
	return unicode.IsLower(next) || unicode.IsDigit(next)
}

// cutFoldPrefix is strings.CutPrefix with ASCII case folding.
func cutFoldPrefix(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}
