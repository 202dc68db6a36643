package benchmark

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Precision is the number of significant digits written for numeric fields.
// Loading a saved table reproduces every value rounded to this precision;
// anything finer is lost. Significant rather than fixed decimals keep a
// sub-microsecond mean from being written as zero.
const Precision = 6

// Column aliases accepted for the key fields. The first entry is the name
// written by Write; the others are headers produced by older scripts.
var (
	familyColumns  = []string{"family", "solver", "op"}
	sizeColumns    = []string{"size", "n_res", "dim"}
	variantColumns = []string{"variant", "dtype"}
)

// Header returns the header row written for the given mode.
func Header(mode Mode) []string {
	h := []string{familyColumns[0], sizeColumns[0], variantColumns[0], "mean"}
	if mode == ModeMinMax {
		h = append(h, "min", "max")
	} else {
		h = append(h, "std")
	}
	return append(h, "n")
}

// Save writes t to path, creating parent directories as needed.
func Save(path string, t *Table) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Write(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write serializes t as CSV, one row per key in key order.
func Write(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(t.Mode)); err != nil {
		return err
	}
	for _, k := range t.Keys() {
		s, _ := t.Get(k)
		row := []string{k.Family, strconv.Itoa(k.Size), string(k.Variant), formatNumber(s.Mean)}
		if t.Mode == ModeMinMax {
			row = append(row, formatNumber(s.Min), formatNumber(s.Max))
		} else {
			row = append(row, formatNumber(s.Spread))
		}
		row = append(row, strconv.Itoa(s.N))
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', Precision, 64)
}

// Load reads a table previously written by Save.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		return nil, err
	}
	return t, nil
}

type layout struct {
	mode     Mode
	hasCount bool
	width    int
}

func parseHeader(h []string) (layout, error) {
	for i := range h {
		h[i] = strings.ToLower(strings.TrimSpace(h[i]))
	}
	h[0] = strings.TrimPrefix(h[0], "\ufeff")

	if len(h) < 5 {
		return layout{}, fmt.Errorf("header has %d fields, want at least 5", len(h))
	}
	if !oneOf(h[0], familyColumns) || !oneOf(h[1], sizeColumns) || !oneOf(h[2], variantColumns) {
		return layout{}, fmt.Errorf("header key columns %q are not family,size,variant", strings.Join(h[:3], ","))
	}
	if h[3] != "mean" {
		return layout{}, fmt.Errorf("fourth header column is %q, want mean", h[3])
	}

	rest := h[4:]
	var l layout
	switch {
	case len(rest) >= 1 && (rest[0] == "std" || rest[0] == "spread"):
		l.mode, rest = ModeStdev, rest[1:]
	case len(rest) >= 2 && rest[0] == "min" && rest[1] == "max":
		l.mode, rest = ModeMinMax, rest[2:]
	default:
		return layout{}, fmt.Errorf("summary columns %q are neither std nor min,max", strings.Join(rest, ","))
	}
	switch {
	case len(rest) == 0:
	case len(rest) == 1 && rest[0] == "n":
		l.hasCount = true
	default:
		return layout{}, fmt.Errorf("unexpected trailing columns %q", strings.Join(rest, ","))
	}
	l.width = len(h)
	return l, nil
}

// Read deserializes a CSV table. Any malformed header or row aborts the
// load with a *FormatError.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &FormatError{Line: 1, Msg: "missing header"}
	}
	if err != nil {
		return nil, &FormatError{Line: 1, Msg: err.Error()}
	}
	l, err := parseHeader(header)
	if err != nil {
		return nil, &FormatError{Line: 1, Msg: err.Error()}
	}

	t := NewTable(l.mode)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return nil, &FormatError{Line: line, Msg: err.Error()}
		}
		line, _ := cr.FieldPos(0)
		if len(rec) != l.width {
			return nil, &FormatError{Line: line, Msg: fmt.Sprintf("row has %d fields, header has %d", len(rec), l.width)}
		}
		k, s, err := parseRow(rec, l)
		if err != nil {
			return nil, &FormatError{Line: line, Msg: err.Error()}
		}
		if err := t.Put(k, s); err != nil {
			return nil, &FormatError{Line: line, Msg: err.Error()}
		}
	}
	return t, nil
}

func parseRow(rec []string, l layout) (Key, Summary, error) {
	size, err := strconv.Atoi(strings.TrimSpace(rec[1]))
	if err != nil {
		return Key{}, Summary{}, fmt.Errorf("size %q is not an integer", rec[1])
	}
	variant, err := ParseVariant(rec[2])
	if err != nil {
		return Key{}, Summary{}, err
	}
	k := Key{Family: strings.TrimSpace(rec[0]), Size: size, Variant: variant}

	nums := make([]float64, 0, 3)
	end := l.width
	if l.hasCount {
		end--
	}
	for i := 3; i < end; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Key{}, Summary{}, fmt.Errorf("field %d value %q is not a finite number", i+1, rec[i])
		}
		if v < 0 {
			return Key{}, Summary{}, fmt.Errorf("field %d value %q is negative", i+1, rec[i])
		}
		nums = append(nums, v)
	}

	s := Summary{Mean: nums[0]}
	if l.mode == ModeMinMax {
		s.Min, s.Max = nums[1], nums[2]
		if s.Min > s.Max {
			return Key{}, Summary{}, fmt.Errorf("min %v exceeds max %v", s.Min, s.Max)
		}
		s.Spread = s.Max - s.Min
	} else {
		s.Spread = nums[1]
	}
	if l.hasCount {
		n, err := strconv.Atoi(strings.TrimSpace(rec[end]))
		if err != nil || n < 0 {
			return Key{}, Summary{}, fmt.Errorf("sample count %q is not a non-negative integer", rec[end])
		}
		s.N = n
	}
	return k, s, nil
}

func oneOf(s string, set []string) bool {
	for _, c := range set {
		if s == c {
			return true
		}
	}
	return false
}
