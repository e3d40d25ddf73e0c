package revenue

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Rule recognizes one time-and-amount layout in a raw OCR line. Rules are
// tried in order and the first whose Pattern matches wins; Extract then pulls
// the hour, the raw amount text, and the optional quantity out of the
// submatches. New log formats are supported by prepending a Rule rather than
// by growing one monolithic expression.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Extract func(groups []string) (hour int, rawAmount string, quantity int, err error)
}

// rawAmountPattern matches a currency-like amount: optional minus, optional
// currency symbol, digits with optional thousands commas and decimal part.
// The minus is captured so negative amounts reach validation (and get
// reported as such) instead of silently failing to match.
const rawAmountPattern = `(-?\s*[$€£]?\s*[0-9][0-9,]*(?:\.[0-9]+)?)`

var (
	hrsPattern = regexp.MustCompile(`(?i)^\W{0,4}([0-9lIO]{1,2})\.?\s*HRS?\b\.?\s*(?:([0-9]+)\s+)?` + rawAmountPattern)

	twelveHourPattern = regexp.MustCompile(`(?i)\b([0-9l]{1,2})(?::[0-5][0-9])?\s*([ap])\.?m\.?\b.*?` + rawAmountPattern)

	clockPattern = regexp.MustCompile(`\b([01]?[0-9]|2[0-3]):[0-5][0-9]\b.*?` + rawAmountPattern)

	bareHourPattern = regexp.MustCompile(`^\s*([01]?[0-9]|2[0-3])(?:[.:]|\s)+[^0-9]*?` + rawAmountPattern)
)

// digitRepairer fixes the letter-for-digit confusions Tesseract makes on
// low-quality prints ("l4 HRS" for "14 HRS")
var digitRepairer = strings.NewReplacer("l", "1", "I", "1", "O", "0", "o", "0")

func repairHour(token string) (int, error) {
	hour, err := strconv.Atoi(digitRepairer.Replace(token))
	if err != nil {
		return 0, fmt.Errorf("parsing hour %q: %w", token, err)
	}
	return hour, nil
}

// DefaultRules returns the built-in recognizers in priority order:
// the "HH HRS qty amount" register-tape format, 12-hour clock times with an
// AM/PM marker, 24-hour clock times, and bare 24-hour integers.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:    "hrs",
			Pattern: hrsPattern,
			Extract: func(groups []string) (int, string, int, error) {
				hour, err := repairHour(groups[1])
				if err != nil {
					return 0, "", 0, err
				}
				quantity := 0
				if groups[2] != "" {
					quantity, err = strconv.Atoi(groups[2])
					if err != nil {
						return 0, "", 0, fmt.Errorf("parsing quantity %q: %w", groups[2], err)
					}
				}
				return hour, groups[3], quantity, nil
			},
		},
		{
			Name:    "twelve-hour",
			Pattern: twelveHourPattern,
			Extract: func(groups []string) (int, string, int, error) {
				hour, err := repairHour(groups[1])
				if err != nil {
					return 0, "", 0, err
				}
				if hour < 1 || hour > 12 {
					return 0, "", 0, fmt.Errorf("12-hour clock value %d out of range", hour)
				}
				// 12 AM is midnight, 12 PM is noon
				pm := strings.EqualFold(groups[2], "p")
				if hour == 12 {
					hour = 0
				}
				if pm {
					hour += 12
				}
				return hour, groups[3], 0, nil
			},
		},
		{
			Name:    "clock",
			Pattern: clockPattern,
			Extract: func(groups []string) (int, string, int, error) {
				hour, err := strconv.Atoi(groups[1])
				if err != nil {
					return 0, "", 0, fmt.Errorf("parsing hour %q: %w", groups[1], err)
				}
				return hour, groups[2], 0, nil
			},
		},
		{
			Name:    "twenty-four-hour",
			Pattern: bareHourPattern,
			Extract: func(groups []string) (int, string, int, error) {
				hour, err := strconv.Atoi(groups[1])
				if err != nil {
					return 0, "", 0, fmt.Errorf("parsing hour %q: %w", groups[1], err)
				}
				return hour, groups[2], 0, nil
			},
		},
	}
}
