package docpipe

// Format identifies a document type.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatTXT Format = "txt"
	FormatMD  Format = "md"
)

// Section is the text of one page. Plain-text inputs are split on form feeds.
type Section struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// Document is the result of extracting content from a file.
type Document struct {
	Path     string             `json:"path,omitempty"`
	Name     string             `json:"name"`
	Format   Format             `json:"format"`
	Title    string             `json:"title"`
	Pages    int                `json:"pages"`
	Sections []Section          `json:"sections"`
	RawText  string             `json:"raw_text"`          // pages joined by a blank line
	Quality  *ExtractionQuality `json:"quality,omitempty"` // PDF only
}
