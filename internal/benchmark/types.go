package benchmark

import (
	"fmt"
	"sort"
	"strings"
)

// Variant is a sparse storage layout for the timed operator.
type Variant string

const (
	VariantDIA Variant = "dia"
	VariantCSR Variant = "csr"
)

// Variants lists every supported storage layout in key order.
var Variants = []Variant{VariantCSR, VariantDIA}

// ParseVariant accepts any casing ("Dia", "CSR") and returns the normalized variant.
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	switch v {
	case VariantDIA, VariantCSR:
		return v, nil
	}
	return "", fmt.Errorf("unknown representation variant %q", s)
}

// Key identifies one benchmark configuration. Keys order by family, then
// size, then variant; the same order is used for lookups, joins and reports.
type Key struct {
	Family  string
	Size    int
	Variant Variant
}

// Less reports whether k sorts before o.
func (k Key) Less(o Key) bool {
	if k.Family != o.Family {
		return k.Family < o.Family
	}
	if k.Size != o.Size {
		return k.Size < o.Size
	}
	return k.Variant < o.Variant
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d/%s", k.Family, k.Size, k.Variant)
}

// Validate checks the key fields.
func (k Key) Validate() error {
	if k.Family == "" {
		return fmt.Errorf("empty operation family")
	}
	if k.Size <= 0 {
		return fmt.Errorf("problem size must be positive, got %d", k.Size)
	}
	if _, err := ParseVariant(string(k.Variant)); err != nil {
		return err
	}
	return nil
}

// SortKeys sorts keys in place using Key.Less.
func SortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}

// Mode selects how the spread of repeated trials is reported.
type Mode string

const (
	// ModeStdev reports the sample standard deviation.
	ModeStdev Mode = "stdev"
	// ModeMinMax reports the observed minimum and maximum.
	ModeMinMax Mode = "minmax"
)

// ParseMode parses a spread mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeStdev, ModeMinMax:
		return m, nil
	case "":
		return ModeStdev, nil
	}
	return "", fmt.Errorf("unknown spread mode %q (want %q or %q)", s, ModeStdev, ModeMinMax)
}

// Summary is the reduction of repeated trials for one key.
//
// In ModeStdev, Spread is the sample standard deviation. In ModeMinMax,
// Spread is Max-Min. Min and Max are kept in both modes.
type Summary struct {
	Mean   float64
	Spread float64
	Min    float64
	Max    float64
	N      int
}

// RelativeSpread returns Spread as a percentage of Mean, or 0 when Mean is 0.
func (s Summary) RelativeSpread() float64 {
	if s.Mean == 0 {
		return 0
	}
	return s.Spread / s.Mean * 100
}

// Table maps configuration keys to summaries. A Table is built once per
// benchmark run and is not modified after it has been written.
type Table struct {
	Mode Mode
	rows map[Key]Summary
}

// NewTable creates an empty table in the given mode.
func NewTable(mode Mode) *Table {
	if mode == "" {
		mode = ModeStdev
	}
	return &Table{Mode: mode, rows: make(map[Key]Summary)}
}

// Put adds a summary. Keys are unique within a table.
func (t *Table) Put(k Key, s Summary) error {
	if err := k.Validate(); err != nil {
		return fmt.Errorf("invalid key %s: %w", k, err)
	}
	if _, ok := t.rows[k]; ok {
		return fmt.Errorf("duplicate key %s", k)
	}
	t.rows[k] = s
	return nil
}

// Get returns the summary stored for k.
func (t *Table) Get(k Key) (Summary, bool) {
	if t == nil {
		return Summary{}, false
	}
	s, ok := t.rows[k]
	return s, ok
}

// Len returns the number of keys.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Keys returns all keys in sorted order.
func (t *Table) Keys() []Key {
	if t == nil {
		return nil
	}
	keys := make([]Key, 0, len(t.rows))
	for k := range t.rows {
		keys = append(keys, k)
	}
	SortKeys(keys)
	return keys
}

// Families returns the distinct families in sorted order.
func (t *Table) Families() []string {
	seen := make(map[string]bool)
	var out []string
	for _, k := range t.Keys() {
		if !seen[k.Family] {
			seen[k.Family] = true
			out = append(out, k.Family)
		}
	}
	return out
}
