package csvbooks

import "strings"

// Dialect selects how a dataset line is split into fields.
type Dialect string

const (
	// DialectSimple splits on every comma. Values must not contain commas.
	DialectSimple Dialect = "simple"
	// DialectQuoted splits only on commas outside double quotes and drops the
	// quote characters themselves.
	DialectQuoted Dialect = "quoted"
)

// ParseDialect maps a configuration value onto a Dialect. The empty string
// selects DialectQuoted.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(s))) {
	case "", DialectQuoted:
		return DialectQuoted, nil
	case DialectSimple:
		return DialectSimple, nil
	}
	return "", ErrUnknownDialect
}

func (d Dialect) split(line string) []string {
	if d == DialectSimple {
		return SplitSimple(line)
	}
	return SplitQuoted(line)
}

// SplitSimple splits a line on every comma.
func SplitSimple(line string) []string {
	return strings.Split(line, ",")
}

// SplitQuoted splits a line on commas that are not inside double quotes. Every
// quote character flips the inside-quotes state and is not copied into the
// field, so `"Smith, John",1` yields ["Smith, John", "1"]. There is no escape
// for a literal quote.
func SplitQuoted(line string) []string {
	var fields []string
	var field strings.Builder
	insideQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			insideQuotes = !insideQuotes
		case r == ',' && !insideQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteRune(r)
		}
	}

	return append(fields, field.String())
}
