package post

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Mode selects the post template and required prefix.
type Mode int

const (
	// ModeNormal is the everyday post.
	ModeNormal Mode = iota
	// ModeSpecial is used on a flagged day and carries the special marker.
	ModeSpecial
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeSpecial:
		return "special"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Built-in profile defaults.
const (
	DefaultTag           = "#tank"
	DefaultSpecialMarker = "SPECIAL:"

	// Ellipsis is appended after truncation. It is the ASCII form because
	// stage one folds U+2026 to it, which keeps Normalize idempotent.
	Ellipsis = "..."

	// minBodyRunes is the headroom a profile must leave after the longest
	// prefix and the ellipsis.
	minBodyRunes = 32
)

// Profile is one length/prefix configuration. The short and long post
// styles differ only in MaxLength.
type Profile struct {
	Name          string `yaml:"name"`
	Tag           string `yaml:"tag"`
	SpecialMarker string `yaml:"special_marker"`
	MaxLength     int    `yaml:"max_length"`
}

// ShortProfile is the 200 character profile.
func ShortProfile() Profile {
	return Profile{Name: "short", Tag: DefaultTag, SpecialMarker: DefaultSpecialMarker, MaxLength: 200}
}

// LongProfile is the 300 character profile.
func LongProfile() Profile {
	return Profile{Name: "long", Tag: DefaultTag, SpecialMarker: DefaultSpecialMarker, MaxLength: 300}
}

// Profiles returns the built-in profiles keyed by name.
func Profiles() map[string]Profile {
	short, long := ShortProfile(), LongProfile()
	return map[string]Profile{short.Name: short, long.Name: long}
}

// Prefix returns the exact text every post in mode must start with.
func (p Profile) Prefix(mode Mode) string {
	if mode == ModeSpecial {
		return p.Tag + " " + p.SpecialMarker + " "
	}
	return p.Tag + " "
}

// Validate reports configuration errors. A limit that would let truncation
// land inside the prefix is a configuration error, not a runtime rejection.
func (p Profile) Validate() error {
	if p.Tag == "" {
		return fmt.Errorf("profile %q: tag is required", p.Name)
	}
	if !strings.HasPrefix(p.Tag, "#") || strings.ContainsAny(p.Tag[1:], " \t\n#") || len(p.Tag) == 1 {
		return fmt.Errorf("profile %q: tag %q must be a single hashtag token", p.Name, p.Tag)
	}
	if p.SpecialMarker == "" || strings.ContainsAny(p.SpecialMarker, " \t\n#") {
		return fmt.Errorf("profile %q: special marker %q must be a single non-hashtag token", p.Name, p.SpecialMarker)
	}
	need := utf8.RuneCountInString(p.Prefix(ModeSpecial)) + len(Ellipsis) + minBodyRunes
	if p.MaxLength < need {
		return fmt.Errorf("profile %q: max_length %d leaves no room after the prefix (need at least %d)",
			p.Name, p.MaxLength, need)
	}
	return nil
}
