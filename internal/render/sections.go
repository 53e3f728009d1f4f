package render

import "strings"

// SectionKind classifies a block of the resume.
type SectionKind string

// Recognised section kinds.
const (
	KindHeader     SectionKind = "header"
	KindHeadline   SectionKind = "headline"
	KindSummary    SectionKind = "summary"
	KindSkills     SectionKind = "skills"
	KindExperience SectionKind = "experience"
	KindEducation  SectionKind = "education"
	KindTools      SectionKind = "tools"
)

// Title returns the heading printed above a section, or "" for the header
// and headline blocks.
func (k SectionKind) Title() string {
	switch k {
	case KindSummary:
		return "PERFORMANCE SUMMARY"
	case KindSkills:
		return "CORE COMPETENCIES"
	case KindExperience:
		return "PROFESSIONAL EXPERIENCE"
	case KindEducation:
		return "EDUCATION & CERTIFICATIONS"
	case KindTools:
		return "TOOLS & TECHNOLOGIES"
	default:
		return ""
	}
}

// Section is one block of non-empty lines.
type Section struct {
	Kind  SectionKind
	Lines []string
}

// headerLines is how many leading lines form the name and contact block.
const headerLines = 3

// sectionHeadings maps heading text to a kind. Order matters: the first
// heading contained in a line wins.
var sectionHeadings = []struct {
	heading string
	kind    SectionKind
}{
	{"PERFORMANCE SUMMARY", KindSummary},
	{"PROFESSIONAL SUMMARY", KindSummary},
	{"CORE COMPETENCIES", KindSkills},
	{"SKILLS", KindSkills},
	{"PROFESSIONAL EXPERIENCE", KindExperience},
	{"WORK EXPERIENCE", KindExperience},
	{"EDUCATION", KindEducation},
	{"CERTIFICATIONS", KindEducation},
	{"TOOLS & TECHNOLOGIES", KindTools},
	{"TECHNICAL SKILLS", KindTools},
}

func matchHeading(line string) (SectionKind, bool) {
	upper := strings.ToUpper(line)
	for _, h := range sectionHeadings {
		if strings.Contains(upper, h.heading) {
			return h.kind, true
		}
	}
	return "", false
}

// ParseSections splits resume text into sections. Blank lines are dropped.
// The first three lines are the header. A fourth line that is not a heading
// becomes the headline. Lines outside any titled section after that are
// discarded, and sections without content are omitted.
func ParseSections(text string) []Section {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	n := headerLines
	if len(lines) < n {
		n = len(lines)
	}
	sections := []Section{{Kind: KindHeader, Lines: lines[:n]}}
	rest := lines[n:]

	if len(rest) > 0 {
		if _, isHeading := matchHeading(rest[0]); !isHeading {
			sections = append(sections, Section{Kind: KindHeadline, Lines: rest[:1]})
			rest = rest[1:]
		}
	}

	var current *Section
	flush := func() {
		if current != nil && len(current.Lines) > 0 {
			sections = append(sections, *current)
		}
	}
	for _, line := range rest {
		if kind, ok := matchHeading(line); ok {
			flush()
			current = &Section{Kind: kind}
			continue
		}
		if current != nil {
			current.Lines = append(current.Lines, line)
		}
	}
	flush()

	return sections
}

// isBullet reports whether line is a list item, and returns its text.
func isBullet(line string) (string, bool) {
	for _, marker := range []string{"•", "-", "*"} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(strings.TrimPrefix(line, marker)), true
		}
	}
	return line, false
}
