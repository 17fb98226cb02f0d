package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"gradepipe/internal/steps"
)

var statusColors = map[steps.Status]*color.Color{
	steps.StatusSuccess: color.New(color.FgGreen),
	steps.StatusFailure: color.New(color.FgRed),
	steps.StatusError:   color.New(color.FgHiRed),
	steps.StatusSkipped: color.New(color.FgYellow),
}

type ConsoleSink struct {
	writer          io.Writer
	format          string // "text", "json", "ndjson"
	mu              sync.Mutex
	results         []steps.Result // For JSON array output
	allowedStatuses map[string]bool
}

func NewConsoleSink(w io.Writer, format string, filterStatuses []string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}

	s := &ConsoleSink{
		writer: w,
		format: format,
	}

	if len(filterStatuses) > 0 {
		s.allowedStatuses = make(map[string]bool)
		for _, st := range filterStatuses {
			// Statuses are SUCCESS, FAILURE, ERROR, SKIPPED; match case-insensitively.
			s.allowedStatuses[strings.ToUpper(st)] = true
		}
	}

	return s
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(v)
}

func (s *ConsoleSink) writeLocked(v any) error {
	// Apply filtering if configured
	if len(s.allowedStatuses) > 0 {
		if r, ok := v.(steps.Result); ok {
			if !s.allowedStatuses[string(r.Status)] {
				return nil
			}
		}
	}

	switch s.format {
	case "json":
		r, ok := v.(steps.Result)
		if !ok {
			// Ignore non-result events in JSON console mode.
			return nil
		}
		s.results = append(s.results, r)
		return nil
	case "ndjson":
		encoder := json.NewEncoder(s.writer)
		switch t := v.(type) {
		case Event:
			if err := encoder.Encode(t); err != nil {
				return err
			}
			return flushIfPossible(s.writer)
		case steps.Result:
			e := eventFromResult(t)
			if err := encoder.Encode(e); err != nil {
				return err
			}
			return flushIfPossible(s.writer)
		default:
			return nil
		}
	case "text":
		return s.writeText(v)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func (s *ConsoleSink) writeText(v any) error {
	switch t := v.(type) {
	case steps.Result:
		status := string(t.Status)
		if c, ok := statusColors[t.Status]; ok {
			status = c.Sprint(status)
		}
		if _, err := fmt.Fprintf(s.writer, "[%s] %s", status, t.StepID); err != nil {
			return err
		}
		if t.Message != "" {
			if _, err := fmt.Fprintf(s.writer, " - %s", t.Message); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(s.writer); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	case Event:
		switch t.Type {
		case "run.skipped":
			if _, err := fmt.Fprintf(s.writer, "Run skipped: %s\n", t.Reason); err != nil {
				return err
			}
		case "run.finished":
			if t.MaxScore > 0 || t.Total > 0 {
				line := fmt.Sprintf("Total: %d/%d", t.Total, t.MaxScore)
				c := statusColors[steps.StatusFailure]
				if t.Total >= t.MaxScore {
					c = statusColors[steps.StatusSuccess]
				}
				if _, err := fmt.Fprintln(s.writer, c.Sprint(line)); err != nil {
					return err
				}
			}
		}
		return flushIfPossible(s.writer)
	default:
		return nil
	}
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		encoder := json.NewEncoder(s.writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(s.results); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	}
	if s.format != "text" && s.format != "ndjson" {
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
	return nil
}
