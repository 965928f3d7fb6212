package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
)

var (
	hexEntityRegex     = regexp.MustCompile(`&#x([0-9A-Fa-f]+);`)
	decimalEntityRegex = regexp.MustCompile(`&#(\d+);`)
)

// DecodeError reports an entity that does not map to a character.
type DecodeError struct {
	Entity string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode entity %q: %v", e.Entity, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// DecodeDescription unescapes product description markup. The passes run in
// a fixed order, each over the output of the previous one: &lt; &gt; &quot;,
// then hex entities, then decimal entities. Text produced by an earlier pass
// can therefore be decoded again by a later one ("&#x26;#65;" yields "A").
// On failure the raw input is returned unchanged.
func DecodeDescription(raw string) string {
	decoded, err := decodeEntities(raw)
	if err != nil {
		log.Warnf("⚠️ Failed to decode product description: %v", err)
		return raw
	}
	return decoded
}

func decodeEntities(raw string) (string, error) {
	s := decodeNamed(raw)

	s, err := replaceNumeric(s, hexEntityRegex, 16)
	if err != nil {
		return "", err
	}

	return replaceNumeric(s, decimalEntityRegex, 10)
}

// decodeNamed runs one full pass per entity, in order, like three chained
// global replacements.
func decodeNamed(s string) string {
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	return strings.ReplaceAll(s, "&quot;", `"`)
}

func replaceNumeric(s string, re *regexp.Regexp, base int) (string, error) {
	var firstErr error
	out := re.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}
		digits := re.FindStringSubmatch(match)[1]
		cp, err := strconv.ParseUint(digits, base, 32)
		if err != nil {
			firstErr = &DecodeError{Entity: match, Err: err}
			return match
		}
		r := rune(cp)
		if !utf8.ValidRune(r) {
			firstErr = &DecodeError{Entity: match, Err: fmt.Errorf("invalid code point %d", cp)}
			return match
		}
		return string(r)
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}
