package parser

import (
	"fmt"
	"math"
	"pqrsdf-sla/errors"
	"pqrsdf-sla/models"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s, strips diacritics and collapses runs of whitespace, so
// that "  Petición " and "peticion" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// FoldKey folds a column name and treats '_' and '-' as spaces, so that
// "Fecha_Radicación" matches the alias "fecha radicacion".
func FoldKey(s string) string {
	return Fold(strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(s))
}

// Record gives case-insensitive, accent-insensitive access to a RawRecord.
type Record map[string]any

// NewRecord indexes raw by folded key. When two source keys fold to the same
// name the first non-empty value wins.
func NewRecord(raw models.RawRecord) Record {
	rec := make(Record, len(raw))
	for k, v := range raw {
		key := FoldKey(k)
		if existing, ok := rec[key]; ok && !isBlank(existing) {
			continue
		}
		rec[key] = v
	}
	return rec
}

// Lookup returns the value of the first alias present with a non-blank value.
func (r Record) Lookup(aliases ...string) (any, bool) {
	for _, alias := range aliases {
		if v, ok := r[alias]; ok && !isBlank(v) {
			return v, true
		}
	}
	return nil, false
}

// Text returns the trimmed string form of the first alias found, or "".
func (r Record) Text(aliases ...string) string {
	v, ok := r.Lookup(aliases...)
	if !ok {
		return ""
	}
	return toString(v)
}

// ToInt coerces a source value to an integer. Integral floats such as 2024.0
// (a common spreadsheet export artifact) are accepted.
func ToInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, errors.ErrMissingField
		}
		if i, err := strconv.Atoi(s); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", errors.ErrInvalidNumber, s)
		}
		return floatToInt(f)
	case nil:
		return 0, errors.ErrMissingField
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", errors.ErrInvalidNumber, v)
	}
}

func floatToInt(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %v", errors.ErrInvalidNumber, f)
	}
	return int(f), nil
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		if s == math.Trunc(s) && !math.IsInf(s, 0) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// isBlank reports whether v carries no information. Spreadsheet exports use
// several spellings for an empty cell.
func isBlank(v any) bool {
	switch s := v.(type) {
	case nil:
		return true
	case string:
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "", "nan", "nat", "none", "null", "n/a":
			return true
		}
	case float64:
		return math.IsNaN(s)
	}
	return false
}
