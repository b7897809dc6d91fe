package post

import (
	"errors"
	"fmt"
)

// ErrCompliance matches every *ComplianceError via errors.Is.
var ErrCompliance = errors.New("post compliance")

// Kind identifies which rule rejected a draft.
type Kind string

const (
	// KindEmpty means nothing remained after the required prefix.
	KindEmpty Kind = "empty"
	// KindHashtag means a hashtag other than the required tag was present.
	KindHashtag Kind = "hashtag"
	// KindLink means the text contained a URL or www. reference.
	KindLink Kind = "link"
	// KindEmoji means the text contained a pictographic code point.
	KindEmoji Kind = "emoji"
	// KindFirstPerson means a first-person marker was used.
	KindFirstPerson Kind = "first_person"
	// KindUnbreakable means the text was too long and had no word boundary to cut at.
	KindUnbreakable Kind = "unbreakable"
)

// ComplianceError is a hard rejection. The offending fragment is reported,
// never silently removed; the caller must regenerate or abort.
type ComplianceError struct {
	Kind   Kind
	Detail string
}

func (e *ComplianceError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("post rejected (%s)", e.Kind)
	}
	return fmt.Sprintf("post rejected (%s): %s", e.Kind, e.Detail)
}

// Is lets errors.Is(err, ErrCompliance) match any rejection kind.
func (e *ComplianceError) Is(target error) bool {
	return target == ErrCompliance
}

func reject(kind Kind, format string, args ...any) error {
	return &ComplianceError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// RejectionKind returns the rejection kind carried by err, or "" if err is
// not a compliance rejection.
func RejectionKind(err error) Kind {
	var ce *ComplianceError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
