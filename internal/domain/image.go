package domain

// CompressionStats describes one run of the cover compression pipeline.
type CompressionStats struct {
	Summary         string  `json:"summary"`
	OriginalBytes   int64   `json:"original_bytes"`
	CompressedBytes int64   `json:"compressed_bytes"`
	SavedPercent    float64 `json:"saved_percent"`
	Quality         int     `json:"quality"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
}
