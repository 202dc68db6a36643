package benchmark

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// The worker writes exactly one line of comma separated name:value pairs to
// stdout, e.g. "csr:0.1183,dia:0.1021". Anything else goes to stderr.

var fieldName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// FormatLine renders values as a protocol line, sorted by name.
func FormatLine(values map[string]float64) string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ":" + strconv.FormatFloat(values[name], 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// ParseLine parses a single protocol line.
func ParseLine(line string) (map[string]float64, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil, &ProtocolError{Line: line, Msg: "empty line"}
	}
	if strings.ContainsAny(trimmed, "\r\n") {
		return nil, &ProtocolError{Line: line, Msg: "more than one line"}
	}

	values := make(map[string]float64)
	for _, pair := range strings.Split(trimmed, ",") {
		name, raw, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, &ProtocolError{Line: line, Msg: "pair " + strconv.Quote(pair) + " has no ':'"}
		}
		if !fieldName.MatchString(name) {
			return nil, &ProtocolError{Line: line, Msg: "invalid field name " + strconv.Quote(name)}
		}
		if _, dup := values[name]; dup {
			return nil, &ProtocolError{Line: line, Msg: "duplicate field " + strconv.Quote(name)}
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &ProtocolError{Line: line, Msg: "field " + name + " is not a finite number"}
		}
		values[name] = v
	}
	return values, nil
}

// checkValues rejects values that cannot be a duration.
func checkValues(values map[string]float64) error {
	for name, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return &ProtocolError{Line: FormatLine(values), Msg: "field " + name + " is not a valid duration"}
		}
	}
	return nil
}

// parseOutput extracts the single protocol line from a worker's stdout.
// Blank lines are ignored; any other extra line is a contract violation.
func parseOutput(stdout string) (map[string]float64, error) {
	var lines []string
	for _, l := range strings.Split(stdout, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	switch len(lines) {
	case 0:
		return nil, &ProtocolError{Line: "", Msg: "no result line on stdout"}
	case 1:
		return ParseLine(lines[0])
	default:
		return nil, &ProtocolError{Line: lines[0], Msg: strconv.Itoa(len(lines)) + " lines on stdout, want 1"}
	}
}
