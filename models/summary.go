package models

// Summary sources.
const (
	SourceLink     = "link"
	SourceDocument = "document"
	SourceImage    = "image"
	SourceText     = "text"
)

// SummaryRequest is handed to the summarization collaborator.
type SummaryRequest struct {
	Source string `json:"source"`
	Href   string `json:"href,omitempty"`
	Text   string `json:"text,omitempty"`
	Name   string `json:"name,omitempty"`
	ItemID string `json:"itemId"`
}

// SummaryResult is correlated with its request by ItemID. Exactly one of
// Summary or Error is set. Cached is for logging only and never rendered.
type SummaryResult struct {
	ItemID  string `json:"itemId" yaml:"itemId"`
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
	Cached  bool   `json:"-" yaml:"-"`
}

// OCRRequest is handed to the OCR collaborator.
type OCRRequest struct {
	Src    string `json:"src"`
	ItemID string `json:"itemId"`
}

// OCRResult carries either the recognized text or an error.
type OCRResult struct {
	ItemID string `json:"itemId" yaml:"itemId"`
	Text   string `json:"text,omitempty" yaml:"text,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// SummaryRequestFor builds the request a click on "Summarize" issues for an item.
func SummaryRequestFor(it ScannedItem) SummaryRequest {
	source := SourceLink
	switch it.Type {
	case ItemDocument, ItemMedia:
		source = SourceDocument
	case ItemImage:
		source = SourceImage
	}
	return SummaryRequest{
		Source: source,
		Href:   it.Target(),
		Name:   it.Name,
		ItemID: it.ID,
	}
}
