package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// weightTextPatterns are tried in order over free text. Each unit must end
// at a non-letter so that a unit letter starting a word does not match.
var weightTextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(kg|кг)(?:[^\p{L}]|$)`),
	regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(mg|мг)(?:[^\p{L}]|$)`),
	regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(грама|гр|gr|g)(?:[^\p{L}]|$)`),
	regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(ml|мл)(?:[^\p{L}]|$)`),
	regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(литра|литр|l|л)(?:[^\p{L}]|$)`),
}

var weightValuePattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(\p{L}+)?`)

// ParseWeightText finds the first quantity with a unit in text and returns
// it in grams, 0 when none is found.
func ParseWeightText(text string) int {
	for _, re := range weightTextPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			value, err := parseDecimal(m[1])
			if err != nil {
				continue
			}
			return ToGrams(value, m[2])
		}
	}
	return 0
}

// ParseWeightValue parses an attribute cell such as "250 гр". A bare
// number is taken as grams.
func ParseWeightValue(value string) int {
	m := weightValuePattern.FindStringSubmatch(value)
	if m == nil {
		return 0
	}
	num, err := parseDecimal(m[1])
	if err != nil {
		return 0
	}
	unit := m[2]
	if unit == "" {
		unit = "g"
	}
	return ToGrams(num, unit)
}

// ToGrams converts value in unit to whole grams. Liquids count one gram per
// millilitre; milligrams are floored at one gram.
func ToGrams(value float64, unit string) int {
	switch strings.ToLower(unit) {
	case "kg", "кг":
		return int(value * 1000)
	case "g", "gr", "гр", "грама", "ml", "мл":
		return int(value)
	case "l", "л", "литр", "литра":
		return int(value * 1000)
	case "mg", "мг":
		grams := int(value / 1000)
		if grams < 1 {
			return 1
		}
		return grams
	default:
		return int(value)
	}
}

func parseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}
