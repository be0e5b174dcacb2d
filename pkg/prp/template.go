package prp

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/prp_base.md.tmpl
var baseTemplate string

// ContextEntry is a single item for the All Needed Context section.
type ContextEntry struct {
	// Source is a file path or URL.
	Source string

	// Why explains what the implementer needs from it.
	Why string
}

// TemplateData carries the inputs for scaffolding a new PRP.
type TemplateData struct {
	// Name is the feature key used for the file name.
	Name string

	// Title is the human-readable feature title.
	Title string

	// Goal is the one-paragraph end state.
	Goal string

	// Why lists the business/user reasons.
	Why []string

	// What describes user-visible behavior.
	What string

	// SuccessCriteria are checkbox items.
	SuccessCriteria []string

	// Context seeds the All Needed Context section.
	Context []ContextEntry

	// Tasks seed the Implementation Blueprint section.
	Tasks []string

	// Gates are validation commands for the Validation Loop section.
	Gates []string
}

// DefaultGates are the validation commands used when none are specified.
var DefaultGates = []string{
	"ruff check --fix && mypy .",
	"uv run pytest tests/ -v",
}

// Scaffold fills the base PRP template and parses the result.
func Scaffold(data TemplateData) (*Document, error) {
	if data.Name == "" {
		return nil, fmt.Errorf("template data has no name")
	}
	if data.Title == "" {
		data.Title = titleFromName(data.Name)
	}
	if data.Goal == "" {
		data.Goal = "_Describe the end state._"
	}
	if data.What == "" {
		data.What = "_Describe user-visible behavior and technical requirements._"
	}
	if len(data.Gates) == 0 {
		data.Gates = DefaultGates
	}

	tmpl, err := template.New("prp").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).Parse(baseTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}

	doc := Parse(sb.String())
	doc.Name = data.Name
	return doc, nil
}

// titleFromName converts a feature key like "user-auth" to "User Auth".
func titleFromName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
