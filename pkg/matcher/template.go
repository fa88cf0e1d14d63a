package matcher

import (
	"strings"

	"go.keploy.io/comparator/pkg/models"
)

// Macros supported in description templates.
const (
	MacroERPath    = "ERPATH"
	MacroARPath    = "ARPATH"
	MacroValue     = "VALUE"
	MacroERValue   = "ERVALUE"
	MacroARValue   = "ARVALUE"
	MacroSummary   = "SUMMARY"
	MacroOperation = "OPERATION"
)

// Macros maps macro names (without braces) to their values.
type Macros map[string]string

// Expand substitutes every {NAME} occurrence of a known macro. Unknown macros
// are left as they are.
func Expand(template string, macros Macros) string {
	if template == "" || !strings.Contains(template, "{") {
		return template
	}
	pairs := make([]string, 0, len(macros)*2)
	for k, v := range macros {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// Describe expands template when set, else returns def.
func Describe(template, def string, macros Macros) string {
	if template == "" {
		return def
	}
	return Expand(template, macros)
}

// ApplyTemplate rewrites every description through template using the
// difference's own coordinates, values and previous description.
func ApplyTemplate(diffs []models.Difference, template string) {
	if template == "" {
		return
	}
	for i := range diffs {
		d := &diffs[i]
		macros := Macros{
			MacroERPath:    d.ExpectedCoord,
			MacroARPath:    d.ActualCoord,
			MacroSummary:   d.Description,
			MacroOperation: d.Outcome.String(),
		}
		if d.ExpectedValue != nil {
			macros[MacroERValue] = *d.ExpectedValue
			macros[MacroValue] = *d.ExpectedValue
		}
		if d.ActualValue != nil {
			macros[MacroARValue] = *d.ActualValue
		}
		d.Description = Expand(template, macros)
	}
}
