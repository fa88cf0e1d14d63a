package compare

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/k0kubun/pp/v3"
	jsonDiff "github.com/keploy/jsonDiff"
	"github.com/olekukonko/tablewriter"
	"go.keploy.io/comparator/config"
	"go.keploy.io/comparator/pkg/models"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Report is the printable form of a JobResult.
type Report struct {
	ID          string                 `json:"id" yaml:"id"`
	Name        string                 `json:"name" yaml:"name"`
	Format      string                 `json:"format" yaml:"format"`
	Passed      bool                   `json:"passed" yaml:"passed"`
	Summary     map[models.Outcome]int `json:"summary,omitempty" yaml:"summary,omitempty"`
	Differences []models.Difference    `json:"differences" yaml:"differences"`
	Warnings    []string               `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Error       string                 `json:"error,omitempty" yaml:"error,omitempty"`
	Code        int                    `json:"code,omitempty" yaml:"code,omitempty"`
}

func NewReport(jr JobResult) Report {
	r := Report{ID: jr.ID, Name: jr.Name, Format: jr.Format}
	if jr.Err != nil {
		r.Error = jr.Err.Error()
		r.Code = models.ErrorCode(jr.Err)
		return r
	}
	r.Passed = jr.Result.Passed()
	r.Summary = jr.Result.Summary()
	r.Differences = jr.Result.Differences
	r.Warnings = jr.Result.Warnings
	return r
}

// Render writes reports in the given output format.
func Render(w io.Writer, output string, reports []Report) error {
	switch output {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case config.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return enc.Close()
	case config.OutputTable, "":
		for _, r := range reports {
			if _, err := io.WriteString(w, renderTable(r)); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown output %q", output)
}

var (
	passColor = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow)
)

func outcomeColor(o models.Outcome) *color.Color {
	switch {
	case o == models.OutcomeSkipped:
		return color.New(color.Faint)
	case o.IsFailure():
		return color.New(color.FgRed)
	}
	return color.New(color.FgGreen)
}

func renderTable(r Report) string {
	buf := &bytes.Buffer{}
	status := passColor.Sprint("PASSED")
	if r.Error != "" || !r.Passed {
		status = failColor.Sprint("FAILED")
	}
	fmt.Fprintf(buf, "%s  %s [%s]\n", status, r.Name, r.Format)
	if r.Error != "" {
		fmt.Fprintf(buf, "  error %d: %s\n\n", r.Code, r.Error)
		return buf.String()
	}

	if len(r.Differences) > 0 {
		table := tablewriter.NewWriter(buf)
		table.SetHeader([]string{"#", "Outcome", "Expected", "Actual", "Description"})
		table.SetAutoWrapText(false)
		table.SetAutoFormatHeaders(false)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetBorder(false)
		for _, d := range r.Differences {
			table.Append([]string{
				fmt.Sprint(d.OrderID),
				outcomeColor(d.Outcome).Sprint(d.Outcome.String()),
				cell(d.ExpectedCoord, d.ExpectedValue),
				cell(d.ActualCoord, d.ActualValue),
				d.Description,
			})
		}
		table.Render()
	}

	var counts []string
	for _, o := range models.Outcomes {
		if n := r.Summary[o]; n > 0 {
			counts = append(counts, fmt.Sprintf("%s: %d", o, n))
		}
	}
	if len(counts) > 0 {
		fmt.Fprintf(buf, "  %s\n", strings.Join(counts, ", "))
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(buf, "  %s %s\n", warnColor.Sprint("warning:"), w)
	}
	buf.WriteString("\n")
	return buf.String()
}

func cell(coord string, value *string) string {
	if value == nil {
		return coord
	}
	if coord == "" {
		return *value
	}
	return coord + " = " + *value
}

// SideBySide renders two JSON documents next to each other with their
// differences highlighted.
func SideBySide(expected, actual string) (string, error) {
	diff, err := jsonDiff.CompareJSON([]byte(expected), []byte(actual), nil, false)
	if err != nil {
		return "", err
	}
	return expectActualTable(diff.Expected, diff.Actual, "", false), nil
}

func expectActualTable(exp string, act string, field string, centerize bool) string {
	buf := &bytes.Buffer{}
	table := tablewriter.NewWriter(buf)

	if centerize {
		table.SetAlignment(tablewriter.ALIGN_CENTER)
	} else {
		table.SetAlignment(tablewriter.ALIGN_LEFT)
	}

	exp = wrapTextWithAnsi(exp)
	act = wrapTextWithAnsi(act)
	table.SetHeader([]string{fmt.Sprintf("Expect %v", field), fmt.Sprintf("Actual %v", field)})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	width := columnWidth()
	table.SetColMinWidth(0, width)
	table.SetColMinWidth(1, width)
	table.Append([]string{exp, act})
	table.Render()
	return buf.String()
}

const defaultColumnWidth = 50

// columnWidth fits both side by side columns into the terminal when stdout
// is one.
func columnWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultColumnWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultColumnWidth
	}
	return max(20, min(defaultColumnWidth, (w-6)/2))
}

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

const ansiResetCode = "\x1b[0m"

// wrapTextWithAnsi closes and reopens color codes at line ends so the table
// does not bleed colors across cells.
func wrapTextWithAnsi(input string) string {
	scanner := bufio.NewScanner(strings.NewReader(input))
	var wrapped strings.Builder
	currentAnsiCode := ""
	lastAnsiCode := ""

	for scanner.Scan() {
		line := scanner.Text()
		if currentAnsiCode != "" {
			wrapped.WriteString(currentAnsiCode)
		}
		codes := ansiRegex.FindAllString(line, -1)
		if len(codes) > 0 {
			lastAnsiCode = codes[len(codes)-1]
		}
		wrapped.WriteString(line)
		if (currentAnsiCode != "" && !strings.HasSuffix(line, ansiResetCode)) || len(codes) > 0 {
			wrapped.WriteString(ansiResetCode)
			currentAnsiCode = lastAnsiCode
		} else {
			currentAnsiCode = ""
		}
		wrapped.WriteString("\n")
	}
	return wrapped.String()
}

// Dump pretty prints v for debugging.
func Dump(w io.Writer, v interface{}) {
	printer := pp.New()
	printer.SetOutput(w)
	printer.SetColoringEnabled(!color.NoColor)
	_, _ = printer.Println(v)
}
