package parser

import (
	"fmt"
	"pqrsdf-sla/errors"
	"pqrsdf-sla/models"
	"strings"
	"time"
)

// Column aliases, already folded with FoldKey. The first alias present with a
// non-blank value wins.
var (
	caseIDKeys      = []string{"num caso", "numero caso", "numero de caso", "no caso", "radicado", "case id", "id"}
	areaKeys        = []string{"area principal", "area responsable", "area", "dependencia"}
	categoryKeys    = []string{"categoria", "tipo", "tipo de solicitud", "category"}
	statusKeys      = []string{"estado", "status"}
	slaKeys         = []string{"cumple sla", "sla", "cumple", "cumplimiento sla", "cumplimiento"}
	filedKeys       = []string{"fecha radicacion", "fecha de radicacion", "fecha recibido", "fecha de recibido", "fecha", "filed at"}
	dueKeys         = []string{"fecha limite", "fecha limite respuesta", "fecha de vencimiento", "fecha vencimiento", "fecha de cierre", "fecha cierre", "due at"}
	yearKeys        = []string{"ano", "anio", "year"}
	monthKeys       = []string{"mes", "month"}
	descriptionKeys = []string{"descripcion de la solicitud", "descripcion", "description"}
)

var categoryAliases = map[string]models.Category{
	"peticion":             models.CategoryPeticion,
	"peticiones":           models.CategoryPeticion,
	"queja":                models.CategoryQueja,
	"quejas":               models.CategoryQueja,
	"reclamo":              models.CategoryReclamo,
	"reclamos":             models.CategoryReclamo,
	"sugerencia":           models.CategorySugerencia,
	"sugerencias":          models.CategorySugerencia,
	"felicitacion":         models.CategoryFelicitacion,
	"felicitaciones":       models.CategoryFelicitacion,
	"derecho de peticion":  models.CategoryDerechoPeticion,
	"derechos de peticion": models.CategoryDerechoPeticion,
	"denuncia":             models.CategoryDenuncia,
	"denuncias":            models.CategoryDenuncia,
}

var monthNames = map[string]int{
	"enero": 1, "ene": 1,
	"febrero": 2, "feb": 2,
	"marzo": 3, "mar": 3,
	"abril": 4, "abr": 4,
	"mayo": 5, "may": 5,
	"junio": 6, "jun": 6,
	"julio": 7, "jul": 7,
	"agosto": 8, "ago": 8,
	"septiembre": 9, "setiembre": 9, "sep": 9, "sept": 9,
	"octubre": 10, "oct": 10,
	"noviembre": 11, "nov": 11,
	"diciembre": 12, "dic": 12,
}

// Day-first layouts come before month-first ones: the sheets are filled in
// Colombian locale.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02/01/2006 15:04:05",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"02-01-2006",
	"2-1-2006",
}

// Normalize converts a raw source row into a Case. It never fails: values that
// cannot be interpreted become null (or the documented sentinel) and the
// problem is recorded in Case.Issues.
//
// Year and Month come from their own columns when present and valid, and are
// otherwise derived from FiledAt. A case with neither stays without a period
// and is left out of period-based grouping and filtering.
func Normalize(raw models.RawRecord) models.Case {
	rec := NewRecord(raw)
	c := models.Case{
		ID:          rec.Text(caseIDKeys...),
		AreaLabel:   rec.Text(areaKeys...),
		Description: rec.Text(descriptionKeys...),
	}
	c.Area = Fold(c.AreaLabel)

	c.Status = Fold(rec.Text(statusKeys...))
	if c.Status == "" {
		c.Status = models.StatusUnknown
	}

	c.CategoryLabel = rec.Text(categoryKeys...)
	c.Category = ParseCategory(c.CategoryLabel)
	if c.Category == models.CategoryOther && c.CategoryLabel != "" {
		c.Issues = append(c.Issues, &errors.FieldError{Field: "category", Value: c.CategoryLabel, Err: errors.ErrUnknownCategory})
	}

	c.SLA = ParseSLAFlag(rec.Text(slaKeys...))

	c.FiledAt = dateField(rec, "filed_at", filedKeys, &c.Issues)
	c.DueAt = dateField(rec, "due_at", dueKeys, &c.Issues)

	if v, ok := rec.Lookup(yearKeys...); ok {
		if year, err := ToInt(v); err == nil && year > 0 {
			c.Year = &year
		} else {
			c.Issues = append(c.Issues, &errors.FieldError{Field: "year", Value: v, Err: errors.ErrInvalidNumber})
		}
	}
	if v, ok := rec.Lookup(monthKeys...); ok {
		if month, err := ParseMonth(v); err == nil {
			c.Month = &month
		} else {
			c.Issues = append(c.Issues, &errors.FieldError{Field: "month", Value: v, Err: err})
		}
	}
	if c.FiledAt != nil {
		if c.Year == nil {
			year := c.FiledAt.Year()
			c.Year = &year
		}
		if c.Month == nil {
			month := int(c.FiledAt.Month())
			c.Month = &month
		}
	}

	return c
}

// ParseSLAFlag classifies free SLA text. Text containing "si" complies, text
// containing "no" does not, anything else is unknown. The match is a plain
// substring test on the folded text, so "Sí", "SI CUMPLE" and "si" all comply.
func ParseSLAFlag(text string) models.SLAFlag {
	folded := Fold(text)
	switch {
	case folded == "":
		return models.SLAUnknown
	case strings.Contains(folded, "si"):
		return models.SLAComplies
	case strings.Contains(folded, "no"):
		return models.SLADoesNotComply
	default:
		return models.SLAUnknown
	}
}

// ParseCategory maps a category label to a known category, or CategoryOther.
func ParseCategory(label string) models.Category {
	if c, ok := categoryAliases[Fold(label)]; ok {
		return c
	}
	return models.CategoryOther
}

// ParseMonth accepts a month number (1-12) or a Spanish month name.
func ParseMonth(v any) (int, error) {
	if m, err := ToInt(v); err == nil {
		if m < 1 || m > 12 {
			return 0, fmt.Errorf("%w: month %d out of range", errors.ErrInvalidNumber, m)
		}
		return m, nil
	}
	if m, ok := monthNames[Fold(toString(v))]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("%w: month %v", errors.ErrInvalidNumber, v)
}

// ParseDate converts a source value to a date at midnight UTC. A blank value
// yields (nil, nil); a value that is present but unreadable yields
// ErrInvalidDate.
func ParseDate(v any) (*time.Time, error) {
	if isBlank(v) {
		return nil, nil
	}
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return nil, nil
		}
		d := dateOnly(t)
		return &d, nil
	case *time.Time:
		if t == nil || t.IsZero() {
			return nil, nil
		}
		d := dateOnly(*t)
		return &d, nil
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				d := dateOnly(parsed)
				return &d, nil
			}
		}
		return nil, fmt.Errorf("%w: %q", errors.ErrInvalidDate, s)
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", errors.ErrInvalidDate, v)
	}
}

func dateField(rec Record, field string, aliases []string, issues *[]*errors.FieldError) *time.Time {
	v, ok := rec.Lookup(aliases...)
	if !ok {
		return nil
	}
	d, err := ParseDate(v)
	if err != nil {
		*issues = append(*issues, &errors.FieldError{Field: field, Value: v, Err: err})
		return nil
	}
	return d
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
