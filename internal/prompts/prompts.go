// Package prompts holds the prompt templates used by every stage.
//
// Templates use ${name} placeholders. Rendering fails when a placeholder has
// no value so a misconfigured override never reaches the backend.
package prompts

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const (
	Clarify         = "clarify"
	Refine          = "refine"
	Answer          = "answer"
	SequenceDiagram = "sequence_diagram"
	ClassDiagram    = "class_diagram"
	Generate        = "generate"
	Repair          = "repair"

	missingVariablesErrorFormat = "template %s: missing variables: %s"
	unknownTemplateErrorFormat  = "unknown template %q"
)

// Template is a system/user prompt pair.
type Template struct {
	System string `mapstructure:"system" yaml:"system"`
	User   string `mapstructure:"user" yaml:"user"`
}

// Vars maps placeholder names to values.
type Vars map[string]string

var placeholderPattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Set is an immutable collection of named templates.
type Set struct {
	templates map[string]Template
}

// NewSet returns the default templates with non-empty override fields applied.
func NewSet(overrides map[string]Template) (Set, error) {
	templates := make(map[string]Template, len(defaultTemplates))
	for name, template := range defaultTemplates {
		templates[name] = template
	}
	for name, override := range overrides {
		base, ok := templates[name]
		if !ok {
			return Set{}, fmt.Errorf(unknownTemplateErrorFormat, name)
		}
		if strings.TrimSpace(override.System) != "" {
			base.System = override.System
		}
		if strings.TrimSpace(override.User) != "" {
			base.User = override.User
		}
		templates[name] = base
	}
	return Set{templates: templates}, nil
}

// Default returns the built-in templates.
func Default() Set {
	set, _ := NewSet(nil)
	return set
}

// Render expands the named template.
func (s Set) Render(name string, vars Vars) (system string, user string, err error) {
	template, ok := s.templates[name]
	if !ok {
		return "", "", fmt.Errorf(unknownTemplateErrorFormat, name)
	}
	missing := map[string]struct{}{}
	system = expand(template.System, vars, missing)
	user = expand(template.User, vars, missing)
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for name := range missing {
			names = append(names, name)
		}
		sort.Strings(names)
		return "", "", fmt.Errorf(missingVariablesErrorFormat, name, strings.Join(names, ", "))
	}
	return system, user, nil
}

// Names lists the known template names.
func (s Set) Names() []string {
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func expand(text string, vars Vars, missing map[string]struct{}) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := vars[name]
		if !ok {
			missing[name] = struct{}{}
			return match
		}
		return value
	})
}
