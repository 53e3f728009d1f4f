package render

// Renderer produces the downloadable files for a rewritten resume.
type Renderer interface {
	DOCX(text string) ([]byte, error)
	PDF(text string) ([]byte, error)
}

// ResumeRenderer renders single-column US Letter resumes with 0.6in margins.
type ResumeRenderer struct {
	// Title is written to document metadata.
	Title string
}

var _ Renderer = (*ResumeRenderer)(nil)

// NewRenderer creates a ResumeRenderer.
func NewRenderer() *ResumeRenderer {
	return &ResumeRenderer{Title: "Resume"}
}

// Accent color for section headings.
var accent = [3]int{0x25, 0x63, 0xEB}

const accentHex = "2563EB"
