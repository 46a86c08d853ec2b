package diag

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
)

// Severity classifies one recorded batch-report line.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// Entry is one diagnostic line recorded for the batch-mode HTML report
// (CLI flag `-b`, spec §6's batch output directory option).
type Entry struct {
	Input    string
	Severity Severity
	Text     string
}

// Report accumulates Entries across a batch run's inputs and renders
// them as a single HTML page, mirroring the teacher's own use of
// golang.org/x/net/html escaping in its repobrowser HTML output —
// `html.EscapeString` guards every field against the diagnostic text
// containing `<`/`&`, which compiler-emitted source excerpts frequently
// do.
type Report struct {
	entries []Entry
}

// Record appends one diagnostic line.
func (r *Report) Record(input string, sev Severity, format string, args ...interface{}) {
	r.entries = append(r.entries, Entry{Input: input, Severity: sev, Text: fmt.Sprintf(format, args...)})
}

func (sev Severity) className() string {
	switch sev {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// WriteHTML renders the accumulated entries as a single self-contained
// HTML page to w.
func (r *Report) WriteHTML(w io.Writer) error {
	if _, err := io.WriteString(w, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>nwnc batch report</title>\n"+
		"<style>.error{color:#b00}.warning{color:#a60}.info{color:#333}</style></head><body>\n<table>\n"); err != nil {
		return err
	}
	for _, e := range r.entries {
		line := fmt.Sprintf("<tr class=%q><td>%s</td><td>%s</td></tr>\n",
			e.Severity.className(), html.EscapeString(e.Input), html.EscapeString(e.Text))
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</table></body></html>\n")
	return err
}
