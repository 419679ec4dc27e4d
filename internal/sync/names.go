// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

/*
names.go - Name Conversions

Tracker names are free-form display strings; hub names are validated
slugs. Every conversion here is deterministic so repeated syncs of the
same tracker name always land on the same hub name.

Rules (hub-side validation they must satisfy):
  - entity name:   ^[a-zA-Z0-9_]([a-zA-Z0-9_\.\-]*[a-zA-Z0-9_])?$
  - project name:  ^[a-zA-Z0-9_]*$
  - project code:  2-10 chars of [a-zA-Z0-9_]
  - label:         anything except ' and ;
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe      = regexp.MustCompile(`\s+`)
	invalidNameRe     = regexp.MustCompile(`[^a-zA-Z0-9_.\-]`)
	leadingTrimRe     = regexp.MustCompile(`^[^a-zA-Z0-9_]+`)
	trailingTrimRe    = regexp.MustCompile(`[^a-zA-Z0-9_]+$`)
	invalidProjectRe  = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	labelRe           = regexp.MustCompile(`[';]`)
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9]+`)
)

// ToEntityName converts a tracker name into a valid hub entity name:
// whitespace collapses to underscores, invalid characters are stripped,
// and leading/trailing separators are trimmed.
func ToEntityName(name string) string {
	name = strings.TrimSpace(name)
	name = whitespaceRe.ReplaceAllString(name, "_")
	name = invalidNameRe.ReplaceAllString(name, "")
	name = leadingTrimRe.ReplaceAllString(name, "")
	name = trailingTrimRe.ReplaceAllString(name, "")
	return name
}

// Slugify lowercases and normalizes a tracker name into the hub slug
// form used for folder and task names: accents fold to ASCII and every
// run of non-alphanumeric characters collapses to one underscore.
func Slugify(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = foldAccents(name)
	name = nonAlphanumericRe.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	return name
}

// NameAndLabel derives the stored (name, label) pair from a tracker
// display name. The label keeps the original verbatim apart from the
// characters the hub forbids in labels.
func NameAndLabel(kitsuName string) (name, label string) {
	return Slugify(kitsuName), ToLabel(kitsuName)
}

// ToLabel strips the characters the hub's label validation rejects.
func ToLabel(label string) string {
	return labelRe.ReplaceAllString(label, "")
}

// CreateShortName derives an abbreviation for auto-provisioned task
// types. Underscored names take each word's initial (max 4); longer
// single words are vowel-stripped to 4 characters; a trailing digit is
// doubled so version-like suffixes stay visible.
func CreateShortName(name string) string {
	code := strings.ToLower(name)

	if strings.Contains(code, "_") {
		var initials strings.Builder
		for _, subword := range strings.Split(code, "_") {
			if subword != "" {
				initials.WriteByte(subword[0])
			}
		}
		code = initials.String()
		if len(code) > 4 {
			code = code[:4]
		}
	} else if len(name) > 4 {
		var filtered strings.Builder
		for _, ch := range code {
			switch ch {
			case 'a', 'e', 'i', 'o', 'u':
			default:
				filtered.WriteRune(ch)
			}
		}
		code = filtered.String()
		if len(code) > 4 {
			code = code[:4]
		}
	}

	if code == "" {
		return code
	}
	last := code[len(code)-1]
	if last >= '0' && last <= '9' {
		code += string(last)
	}
	return code
}

// ToUsername converts a tracker person's name into a hub username:
// "Jean-Luc" + "Géranium" becomes "jean-luc.geranium".
func ToUsername(firstName, lastName string) string {
	name := strings.TrimSpace(firstName)
	if last := strings.TrimSpace(lastName); last != "" {
		name = name + "." + last
	}
	name = strings.ToLower(name)
	name = RemoveAccents(name)
	return ToEntityName(name)
}

// ToProjectName converts a tracker project name into a hub project name
// (alphanumerics and underscores only).
func ToProjectName(name string) string {
	name = ToEntityName(name)
	return invalidProjectRe.ReplaceAllString(name, "")
}

// ToProjectCode converts a tracker project code into a hub project code,
// truncated to 10 characters. An empty result means the input had no
// usable characters; callers must reject codes shorter than 2.
func ToProjectCode(code string) string {
	code = ToEntityName(code)
	code = invalidProjectRe.ReplaceAllString(code, "")
	if len(code) > 10 {
		code = code[:10]
	}
	return code
}

// accentExceptions maps characters NFKD decomposition cannot fold.
var accentExceptions = strings.NewReplacer(
	"Æ", "AE",
	"Ð", "D",
	"Ø", "O",
	"Þ", "TH",
	"ß", "ss",
	"æ", "ae",
	"ð", "d",
	"ø", "o",
	"þ", "th",
	"Œ", "OE",
	"œ", "oe",
	"ƒ", "f",
)

// RemoveAccents folds accented characters to their ASCII equivalents and
// drops anything that remains outside [a-zA-Z0-9_.-].
func RemoveAccents(input string) string {
	return invalidNameRe.ReplaceAllString(foldAccents(input), "")
}

// foldAccents decomposes accented characters, drops the combining
// marks and applies the exception map. Characters outside the folding
// rules pass through unchanged.
func foldAccents(input string) string {
	decomposed := norm.NFKD.String(input)
	var sb strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue // combining mark
		}
		sb.WriteRune(r)
	}
	return accentExceptions.Replace(sb.String())
}
