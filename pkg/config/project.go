package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectFileName is the per-project configuration file.
const ProjectFileName = ".printscript.yaml"

// Project is the resolved configuration for a source tree.
type Project struct {
	Version  string
	Format   Format
	Analyzer Analyzer
	// Path is the file the configuration came from, empty for defaults.
	Path string
}

type projectFile struct {
	Version string         `yaml:"version"`
	Format  map[string]any `yaml:"format"`
	Lint    map[string]any `yaml:"lint"`
}

// DefaultProject returns the configuration used when no file is found.
func DefaultProject() Project {
	return Project{Version: "1.0", Format: DefaultFormat(), Analyzer: DefaultAnalyzer()}
}

// LoadProject resolves configuration for projectDir.
// Precedence: project (.printscript.yaml) → user (~/.printscript/config.yaml) → defaults.
// A file that exists but cannot be decoded is an error rather than a fallthrough.
func LoadProject(projectDir string) (Project, error) {
	projectPath := filepath.Join(projectDir, ProjectFileName)
	p, err := LoadProjectFile(projectPath)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return Project{}, err
	}

	homeDir, herr := os.UserHomeDir()
	if herr == nil {
		userPath := filepath.Join(homeDir, ".printscript", "config.yaml")
		p, err := LoadProjectFile(userPath)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return Project{}, err
		}
	}

	return DefaultProject(), nil
}

// LoadProjectFile reads one project file. Unknown top-level sections are
// rejected; unknown keys inside format and lint are ignored.
func LoadProjectFile(path string) (Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Project{}, err
	}

	var pf projectFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil && !errors.Is(err, io.EOF) {
		return Project{}, &Error{Source: path, Message: fmt.Sprintf("parse: %v", err)}
	}

	p := DefaultProject()
	p.Path = path
	if pf.Version != "" {
		p.Version = pf.Version
	}
	if p.Format, err = FormatFromMap(pf.Format); err != nil {
		return Project{}, withSource(err, path, "format")
	}
	if p.Analyzer, err = AnalyzerFromMap(pf.Lint); err != nil {
		return Project{}, withSource(err, path, "lint")
	}
	return p, nil
}

// LoadFormatFile reads a standalone formatter configuration file.
func LoadFormatFile(path string) (Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Format{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	f, err := ParseFormat(data)
	if err != nil {
		return Format{}, withSource(err, path, "")
	}
	return f, nil
}

// LoadAnalyzerFile reads a standalone analyzer configuration file.
func LoadAnalyzerFile(path string) (Analyzer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Analyzer{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	a, err := ParseAnalyzer(data)
	if err != nil {
		return Analyzer{}, withSource(err, path, "")
	}
	return a, nil
}

func withSource(err error, path, section string) error {
	var ce *Error
	if errors.As(err, &ce) {
		ce.Source = path
		if section != "" && ce.Key != "" {
			ce.Key = section + "." + ce.Key
		}
		return ce
	}
	return err
}
