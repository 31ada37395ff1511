package reporter

import (
	"fmt"
	"io"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/eventqueries-go/demo/scenarios"
	"github.com/AntonStoeckl/eventqueries-go/eventqueries"
)

// CompletionMessage is written exactly once after all scenarios succeeded.
const CompletionMessage = "Event query demonstrations completed."

// Format selects how scenario results are rendered.
type Format string

const (
	FormatNone Format = "none"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat accepts none, text, or json.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatNone, FormatText, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown result format %q, use none, text, or json", s)
	}
}

// Reporter writes scenario results followed by the completion line.
type Reporter struct {
	out    io.Writer
	format Format
}

func New(out io.Writer, format Format) Reporter {
	return Reporter{out: out, format: format}
}

// Report renders results in the configured format and then writes CompletionMessage.
func (r Reporter) Report(results []scenarios.Result) error {
	var err error

	switch r.format {
	case FormatText:
		err = r.writeText(results)
	case FormatJSON:
		err = r.writeJSON(results)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(r.out, CompletionMessage)

	return err
}

func (r Reporter) writeText(results []scenarios.Result) error {
	var b strings.Builder

	for _, result := range results {
		fmt.Fprintf(&b, "%s: %s\n", result.Name, result.Description)

		for _, line := range formatValue(result.Value) {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}

	_, err := io.WriteString(r.out, b.String())

	return err
}

func (r Reporter) writeJSON(results []scenarios.Result) error {
	payload, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("render results as json: %w", err)
	}

	_, err = fmt.Fprintf(r.out, "%s\n", payload)

	return err
}

func formatValue(value any) []string {
	switch v := value.(type) {
	case []eventqueries.CityDateTime:
		lines := make([]string, 0, len(v))
		for _, item := range v {
			lines = append(lines, fmt.Sprintf("%s %s", item.City, item.EventDateTime.Format(time.DateTime)))
		}
		return orNone(lines)

	case *eventqueries.Event:
		if v == nil {
			return []string{"(none)"}
		}
		return []string{formatEvent(*v)}

	case []eventqueries.CityAttendeeCount:
		lines := make([]string, 0, len(v))
		for _, item := range v {
			lines = append(lines, fmt.Sprintf("%s: %d attendees", item.City, item.AttendeeCount))
		}
		return orNone(lines)

	case []eventqueries.Event:
		lines := make([]string, 0, len(v))
		for _, event := range v {
			lines = append(lines, formatEvent(event))
		}
		return orNone(lines)

	default:
		return []string{fmt.Sprint(v)}
	}
}

func formatEvent(event eventqueries.Event) string {
	return fmt.Sprintf("#%d %s %s %s (%d attendees)",
		event.ID, event.City, event.EventDate, event.EventTime, event.AttendeeCount())
}

func orNone(lines []string) []string {
	if len(lines) == 0 {
		return []string{"(none)"}
	}

	return lines
}
