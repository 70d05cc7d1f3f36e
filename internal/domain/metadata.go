package domain

// Confidence expresses how sure classification is about a resource type.
type Confidence string

// Confidence levels.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// MetadataSource records where extracted metadata came from.
type MetadataSource string

// Metadata sources.
const (
	SourceHTML     MetadataSource = "html"
	SourceBrowser  MetadataSource = "browser"
	SourceFallback MetadataSource = "fallback"
)

// URLMetadata is what the extractor learned about a link.
// Description and ThumbnailURL are nil when nothing usable was found.
type URLMetadata struct {
	Description  *string        `json:"description"`
	ThumbnailURL *string        `json:"thumbnail_url"`
	FaviconURL   *string        `json:"favicon_url"`
	URL          string         `json:"url"`
	Domain       string         `json:"domain"`
	Title        string         `json:"title"`
	ResourceType ResourceType   `json:"resource_type"`
	Confidence   Confidence     `json:"confidence"`
	Source       MetadataSource `json:"source"`
	// Language is an ISO 639-1 code, empty when the page does not declare one.
	Language string   `json:"language,omitempty"`
	Tags     []string `json:"tags"`
	// Fetched is true when the target responded and its body was inspected.
	Fetched bool `json:"fetched"`
}
