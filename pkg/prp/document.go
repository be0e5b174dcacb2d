// Package prp implements the Product Requirement Prompt document model.
// A PRP is a markdown document with a title and a set of `## ` sections
// that combine a feature request, curated codebase context, and an
// implementation/validation plan.
package prp

import (
	"strings"
)

// Status indicates where a PRP is in its lifecycle.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// RequiredSections are the headings every PRP should carry.
var RequiredSections = []string{
	"Goal",
	"Why",
	"What",
	"Success Criteria",
	"All Needed Context",
	"Implementation Blueprint",
	"Validation Loop",
}

// Section is a single `## ` delimited block of a PRP.
type Section struct {
	// Heading is the section heading without the `## ` marker.
	Heading string

	// Body is the raw markdown between this heading and the next.
	Body string
}

// Document is a parsed PRP.
type Document struct {
	// Name is the feature key, e.g. "user-auth" for PRPs/user-auth.md.
	Name string

	// Path is where the document was loaded from, if any.
	Path string

	// Title is the `# ` heading.
	Title string

	// Preamble is content before the first section.
	Preamble string

	// Sections are the `## ` blocks in document order.
	Sections []Section

	// Status reflects the document's lifecycle location.
	Status Status
}

// Parse parses markdown content into a Document.
// Section order is preserved; content before the first `## ` heading
// (minus the title line) becomes the preamble.
func Parse(content string) *Document {
	doc := &Document{Status: StatusDraft}

	var current *Section
	var preamble strings.Builder

	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(line, "## "):
			if current != nil {
				doc.Sections = append(doc.Sections, *current)
			}
			current = &Section{Heading: strings.TrimSpace(strings.TrimPrefix(line, "## "))}

		case strings.HasPrefix(line, "# ") && doc.Title == "" && current == nil:
			doc.Title = strings.TrimSpace(strings.TrimPrefix(line, "# "))

		case current != nil:
			current.Body += line + "\n"

		default:
			preamble.WriteString(line + "\n")
		}
	}

	if current != nil {
		doc.Sections = append(doc.Sections, *current)
	}

	doc.Preamble = strings.TrimSpace(preamble.String())
	return doc
}

// Render serializes the document back to markdown.
// Rendering a parsed document is deterministic: title, preamble, then
// sections in order with their bodies trimmed to a single trailing newline.
func (d *Document) Render() string {
	var sb strings.Builder

	if d.Title != "" {
		sb.WriteString("# " + d.Title + "\n\n")
	}

	if d.Preamble != "" {
		sb.WriteString(d.Preamble + "\n\n")
	}

	for _, s := range d.Sections {
		sb.WriteString("## " + s.Heading + "\n")
		body := strings.TrimRight(s.Body, "\n")
		if body != "" {
			sb.WriteString(body + "\n")
		}
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// Section returns the first section with the given heading.
// Matching is case-insensitive. Returns nil if not present.
func (d *Document) Section(heading string) *Section {
	for i := range d.Sections {
		if strings.EqualFold(d.Sections[i].Heading, heading) {
			return &d.Sections[i]
		}
	}
	return nil
}

// HasSection reports whether a section with the given heading exists.
func (d *Document) HasSection(heading string) bool {
	return d.Section(heading) != nil
}

// SetSection replaces the body of the first matching section, or appends
// a new section when the heading is not present.
func (d *Document) SetSection(heading, body string) {
	if s := d.Section(heading); s != nil {
		s.Body = body
		return
	}
	d.Sections = append(d.Sections, Section{Heading: heading, Body: body})
}

// CodeBlocks extracts fenced code blocks from a section body.
// The language tag, when present, is ignored.
func CodeBlocks(body string) []string {
	var blocks []string
	var current strings.Builder
	inBlock := false

	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inBlock {
				blocks = append(blocks, current.String())
				current.Reset()
			}
			inBlock = !inBlock
			continue
		}
		if inBlock {
			current.WriteString(line + "\n")
		}
	}

	return blocks
}

// LintReport is the result of checking a PRP against RequiredSections.
type LintReport struct {
	// Present are required headings found in the document.
	Present []string `json:"present"`

	// Missing are required headings not found.
	Missing []string `json:"missing"`

	// Empty are required headings present but with no body content.
	Empty []string `json:"empty"`
}

// OK reports whether the document carries every required heading with content.
func (r *LintReport) OK() bool {
	return len(r.Missing) == 0 && len(r.Empty) == 0
}

// Problems renders the failing headings as one line for error messages.
func (r *LintReport) Problems() string {
	var parts []string
	if len(r.Missing) > 0 {
		parts = append(parts, "missing sections "+strings.Join(r.Missing, ", "))
	}
	if len(r.Empty) > 0 {
		parts = append(parts, "empty sections "+strings.Join(r.Empty, ", "))
	}
	return strings.Join(parts, "; ")
}

// Lint checks the document for the required PRP headings.
// The headings are a convention, not a schema: lint reports what is
// missing rather than rejecting the document.
func (d *Document) Lint() *LintReport {
	report := &LintReport{}

	for _, heading := range RequiredSections {
		s := d.Section(heading)
		switch {
		case s == nil:
			report.Missing = append(report.Missing, heading)
		case strings.TrimSpace(s.Body) == "":
			report.Empty = append(report.Empty, heading)
			report.Present = append(report.Present, heading)
		default:
			report.Present = append(report.Present, heading)
		}
	}

	return report
}
