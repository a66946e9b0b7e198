// Package testutil provides shared test helpers for PrintScript Go tests.
package testutil

import (
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ScenariosDir is the relative path from the module root to the scenarios.
const ScenariosDir = "testdata/scenarios"

// ScenarioFile is the file name of a scenario description.
const ScenarioFile = "scenario.yaml"

// Scenario represents a test scenario loaded from a scenario.yaml file.
type Scenario struct {
	// Cmd is the CLI-style command: run, check, fmt or lint, then the file.
	Cmd     []string       `yaml:"cmd"`
	Version string         `yaml:"version,omitempty"`
	Stdin   []string       `yaml:"stdin,omitempty"`
	Format  map[string]any `yaml:"format,omitempty"`
	Lint    map[string]any `yaml:"lint,omitempty"`
	Meta    *ScenarioMeta  `yaml:"meta,omitempty"`
	Expect  ExpectedResult `yaml:"expect"`
}

// ScenarioMeta holds optional scenario metadata.
type ScenarioMeta struct {
	Description string   `yaml:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
}

// ExpectedResult describes the expected outcome of running a scenario.
type ExpectedResult struct {
	ExitCode int `yaml:"exitCode"`
	// Stdout is compared exactly when set; printed lines end in "\n".
	Stdout         *string `yaml:"stdout,omitempty"`
	StdoutContains string  `yaml:"stdoutContains,omitempty"`
	StderrContains string  `yaml:"stderrContains,omitempty"`
	// Diagnostics are matched as subsets of the JSON diagnostics, in order.
	Diagnostics []map[string]any `yaml:"diagnostics,omitempty"`
	// DiagnosticCount is checked when non-nil.
	DiagnosticCount *int `yaml:"diagnosticCount,omitempty"`
}

// LoadScenario loads a scenario from a directory containing scenario.yaml.
func LoadScenario(dir string) (*Scenario, error) {
	data, err := os.ReadFile(filepath.Join(dir, ScenarioFile))
	if err != nil {
		return nil, err
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListScenarios returns all scenario directories under the given root,
// sorted by name.
func ListScenarios(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			scenarioPath := filepath.Join(root, e.Name(), ScenarioFile)
			if _, err := os.Stat(scenarioPath); err == nil {
				dirs = append(dirs, filepath.Join(root, e.Name()))
			}
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// ReadProgramFile reads the program file referenced by the scenario cmd.
func ReadProgramFile(scenarioDir string, cmd []string) (string, string, error) {
	if len(cmd) < 2 {
		return "", "", nil
	}
	filename := cmd[1]
	source, err := os.ReadFile(filepath.Join(scenarioDir, filename))
	if err != nil {
		return "", "", err
	}
	return string(source), filename, nil
}
