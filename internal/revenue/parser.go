package revenue

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Skip reasons reported in diagnostics
const (
	reasonNoPattern      = "no recognized time/amount pattern"
	reasonHourOutOfRange = "hour out of range"
	reasonBadAmount      = "unparsable amount"
	reasonNegativeAmount = "negative amount"
)

// Parser converts raw OCR lines into hourly revenue records. It is a pure
// transformation: unrecognizable lines are counted and skipped, never raised
// as errors, because OCR noise is routine.
type Parser struct {
	rules []Rule
}

// NewParser creates a parser with the given recognizer rules, or the
// built-in DefaultRules when none are supplied
func NewParser(rules ...Rule) *Parser {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Parser{rules: rules}
}

// Parse extracts hourly records from raw lines. Amounts for the same hour
// are summed, not overwritten: a single hour can carry several line items.
// The returned records are sorted ascending by hour.
func (p *Parser) Parse(lines []string) ([]HourlyRecord, Diagnostics) {
	diags := Diagnostics{TotalLines: len(lines)}
	byHour := make(map[int]HourlyRecord)

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			// Blank lines carry no information and are not worth flagging
			continue
		}

		rec, reason := p.parseLine(trimmed)
		if reason != "" {
			diags.SkippedLines++
			diags.Skipped = append(diags.Skipped, SkippedLine{Line: trimmed, Reason: reason})
			continue
		}
		diags.ParsedLines++

		existing := byHour[rec.Hour]
		byHour[rec.Hour] = HourlyRecord{
			Hour:     rec.Hour,
			Revenue:  existing.Revenue.Add(rec.Revenue),
			Quantity: existing.Quantity + rec.Quantity,
		}
	}

	records := make([]HourlyRecord, 0, len(byHour))
	for _, rec := range byHour {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Hour < records[j].Hour })

	return records, diags
}

// parseLine tries each rule in priority order. A non-empty reason means the
// line is skipped; once a rule's pattern matches, validation failures skip
// the line rather than falling through to lower-priority rules.
func (p *Parser) parseLine(line string) (HourlyRecord, string) {
	for _, rule := range p.rules {
		groups := rule.Pattern.FindStringSubmatch(line)
		if groups == nil {
			continue
		}

		hour, rawAmount, quantity, err := rule.Extract(groups)
		if err != nil {
			return HourlyRecord{}, reasonHourOutOfRange
		}
		if hour < 0 || hour > 23 {
			return HourlyRecord{}, reasonHourOutOfRange
		}

		amount, err := parseAmount(rawAmount)
		if err != nil {
			return HourlyRecord{}, reasonBadAmount
		}
		if amount.IsNegative() {
			return HourlyRecord{}, reasonNegativeAmount
		}

		return HourlyRecord{Hour: hour, Revenue: amount, Quantity: quantity}, ""
	}
	return HourlyRecord{}, reasonNoPattern
}

// amountCleaner strips currency symbols, thousands separators, and stray
// whitespace from a matched amount before decimal parsing
var amountCleaner = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "", "\t", "")

func parseAmount(raw string) (decimal.Decimal, error) {
	cleaned := amountCleaner.Replace(raw)
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", raw, err)
	}
	return amount, nil
}
