package model

import (
	"regexp"
	"strconv"
	"strings"
)

// CodePattern matches pseudonym and name substitution codes such as [P12],
// [P12_3], [N12] and [D12].
var CodePattern = regexp.MustCompile(`\[[PND]\d+(?:_\d+)?\]`)

// CodeKind selects what a substitution code expands to.
type CodeKind byte

const (
	CodePseudonym     CodeKind = 'P' // a single pseudonym
	CodeRealName      CodeKind = 'N' // the real name
	CodeAllPseudonyms CodeKind = 'D' // every pseudonym valid so far, joined by " AKA "
)

// Code is a parsed substitution code.
type Code struct {
	Kind     CodeKind
	SecretID string
	// Index is the explicit pseudonym index, or -1 when absent.
	Index int
}

// ParseCode parses a code matched by CodePattern.
func ParseCode(s string) (Code, error) {
	if !CodePattern.MatchString(s) || CodePattern.FindString(s) != s {
		return Code{}, ErrInvalidSubstitutionCode
	}
	body := s[2 : len(s)-1]
	code := Code{Kind: CodeKind(s[1]), Index: -1}
	id, idx, hasIdx := strings.Cut(body, "_")
	code.SecretID = id
	if hasIdx {
		i, err := strconv.Atoi(idx)
		if err != nil {
			return Code{}, ErrInvalidSubstitutionCode
		}
		code.Index = i
	}
	return code, nil
}

// String formats the code back into its bracketed form.
func (c Code) String() string {
	if c.Index >= 0 {
		return "[" + string(c.Kind) + c.SecretID + "_" + strconv.Itoa(c.Index) + "]"
	}
	return "[" + string(c.Kind) + c.SecretID + "]"
}

// PseudonymCode returns the code that renders an assassin's pseudonym for an
// event, optionally pinned to an index (pass -1 for none).
func PseudonymCode(a *Assassin, index int) string {
	return Code{Kind: CodePseudonym, SecretID: a.SecretID(), Index: index}.String()
}
