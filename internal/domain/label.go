package domain

import (
	"fmt"
	"strings"
)

const (
	// IconBaseURL is the twemoji CDN path every region icon is served from.
	IconBaseURL = "https://cdn.bootcdn.net/ajax/libs/twemoji/15.1.0/svg/"
	// GlobeIconURL is used for regions whose name carries no icon encoding.
	GlobeIconURL = IconBaseURL + "1f30d.svg"

	regionalIndicatorA = 0x1F1E6
)

// RegionLabel is the decoded form of a SecondGroup name.
type RegionLabel struct {
	Name     string
	Tagline  string
	Emoji    string
	FlagIcon string
}

// DecodeGroupLabel splits a FirstGroup name "displayName,tagline".
// Commas inside the display name are not supported by the format.
func DecodeGroupLabel(raw string) (name, tagline string) {
	parts := strings.Split(raw, ",")
	return field(parts, 0), field(parts, 1)
}

// DecodeRegionLabel splits a SecondGroup name "displayName,tagline,emoji" and
// derives the region icon from the display name. A "CC^label" prefix is a
// country code and takes priority over a "hex|label" emoji code prefix.
func DecodeRegionLabel(raw string) RegionLabel {
	parts := strings.Split(raw, ",")
	label := RegionLabel{
		Name:    field(parts, 0),
		Tagline: field(parts, 1),
		Emoji:   field(parts, 2),
	}

	if code, rest, ok := strings.Cut(label.Name, "^"); ok {
		label.Name = rest
		_, label.FlagIcon = CountryFlag(strings.TrimSpace(code))
	} else if code, rest, ok := strings.Cut(label.Name, "|"); ok {
		label.Name = rest
		label.FlagIcon = iconURL(strings.TrimSpace(code))
	}

	if label.FlagIcon == "" {
		label.FlagIcon = GlobeIconURL
	}

	return label
}

// CountryFlag maps a two letter country code to its flag emoji and icon URL.
// Any other shape yields two empty strings.
func CountryFlag(code string) (emoji, icon string) {
	if len(code) != 2 || !isASCIILetter(code[0]) || !isASCIILetter(code[1]) {
		return "", ""
	}

	upper := strings.ToUpper(code)
	points := make([]rune, 0, 2)
	hex := make([]string, 0, 2)
	for i := 0; i < len(upper); i++ {
		cp := rune(regionalIndicatorA + int(upper[i]-'A'))
		points = append(points, cp)
		hex = append(hex, fmt.Sprintf("%x", cp))
	}

	return string(points), iconURL(strings.Join(hex, "-"))
}

func iconURL(code string) string {
	return IconBaseURL + code + ".svg"
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func field(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}
