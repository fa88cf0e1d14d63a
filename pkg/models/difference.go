package models

// Difference is one reported discrepancy between expected and actual content.
// Coordinates follow the grammar in coordinate.go; an empty coordinate means the
// side has no corresponding location.
type Difference struct {
	OrderID       int     `json:"orderId" yaml:"orderId"`
	ExpectedCoord string  `json:"expectedCoord" yaml:"expectedCoord"`
	ActualCoord   string  `json:"actualCoord" yaml:"actualCoord"`
	ExpectedValue *string `json:"expectedValue,omitempty" yaml:"expectedValue,omitempty"`
	ActualValue   *string `json:"actualValue,omitempty" yaml:"actualValue,omitempty"`
	Outcome       Outcome `json:"outcome" yaml:"outcome"`
	Description   string  `json:"description" yaml:"description"`
}

// SetValues stores the raw values when save is true.
func (d *Difference) SetValues(save bool, expected, actual string) {
	if !save {
		return
	}
	d.ExpectedValue = &expected
	d.ActualValue = &actual
}

// Result is what every comparator returns: the ordered differences plus
// warnings that did not stop the comparison.
type Result struct {
	Differences []Difference `json:"differences" yaml:"differences"`
	Warnings    []string     `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func (r *Result) Add(d Difference) {
	r.Differences = append(r.Differences, d)
}

func (r *Result) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Passed reports whether no difference carries a failing outcome.
func (r *Result) Passed() bool {
	for _, d := range r.Differences {
		if d.Outcome.IsFailure() {
			return false
		}
	}
	return true
}

// Summary counts differences per outcome.
func (r *Result) Summary() map[Outcome]int {
	sum := make(map[Outcome]int, len(Outcomes))
	for _, d := range r.Differences {
		sum[d.Outcome]++
	}
	return sum
}

// Renumber assigns gapless 1-based order ids in slice order.
func Renumber(diffs []Difference) []Difference {
	for i := range diffs {
		diffs[i].OrderID = i + 1
	}
	return diffs
}
