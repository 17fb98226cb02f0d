package autograding

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// DefaultConfigPath is where graded-test definitions live, matching the
// classroom layout this tool grades.
const DefaultConfigPath = ".github/classroom/autograding.json"

// TestCase defines one graded test: a command to run and how to judge
// its output.
type TestCase struct {
	Name  string `json:"name"`
	Setup string `json:"setup,omitempty"`
	Run   string `json:"run"`
	// Input is written to the command's stdin.
	Input string `json:"input,omitempty"`
	// Output is the expected stdout, judged per Comparison. Empty means
	// the command's exit status alone decides.
	Output string `json:"output,omitempty"`
	// Comparison is included, exact or regex. Default: included.
	Comparison string `json:"comparison,omitempty"`
	// Timeout is in minutes, per classroom convention. 0 means the
	// runner's default applies.
	Timeout int     `json:"timeout,omitempty"`
	Points  float64 `json:"points"`
}

// Config is a graded-test suite definition.
type Config struct {
	Tests []TestCase `json:"tests"`
}

// LoadConfig reads and validates a graded-test definition file.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read autograding config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s is not valid JSON: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// MaxPoints is the sum of all configured test points.
func (c Config) MaxPoints() float64 {
	var sum float64
	for _, t := range c.Tests {
		sum += t.Points
	}
	return sum
}

func (c Config) Validate() error {
	if len(c.Tests) == 0 {
		return fmt.Errorf("no tests defined")
	}
	for i, t := range c.Tests {
		label := t.Name
		if label == "" {
			label = fmt.Sprintf("test %d", i+1)
		}
		if strings.TrimSpace(t.Run) == "" {
			return fmt.Errorf("%s: missing run command", label)
		}
		if t.Points < 0 {
			return fmt.Errorf("%s: points must be >= 0", label)
		}
		if t.Timeout < 0 {
			return fmt.Errorf("%s: timeout must be >= 0", label)
		}
		switch t.Comparison {
		case "", "included", "exact", "regex":
		default:
			return fmt.Errorf("%s: comparison must be included, exact or regex, got %q", label, t.Comparison)
		}
		if t.Comparison == "regex" {
			if _, err := regexp.Compile(t.Output); err != nil {
				return fmt.Errorf("%s: invalid output regex: %w", label, err)
			}
		}
	}
	return nil
}
