package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for curation documents.
//
// Title and description use English stemming. Tags and domains are keywords
// so compound slugs like "machine-learning" stay whole and can be faceted.
// Counters and timestamps are numeric for sorting.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// --- Text fields ---

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	descFieldMapping := bleve.NewTextFieldMapping()
	descFieldMapping.Analyzer = en.AnalyzerName
	descFieldMapping.Store = true
	descFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("description", descFieldMapping)

	// Tab titles - searchable, not stored
	tabTextFieldMapping := bleve.NewTextFieldMapping()
	tabTextFieldMapping.Analyzer = simple.Name
	tabTextFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("tab_text", tabTextFieldMapping)

	// --- Keyword fields ---

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	ownerFieldMapping := bleve.NewTextFieldMapping()
	ownerFieldMapping.Analyzer = keyword.Name
	ownerFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("owner_id", ownerFieldMapping)

	tagsFieldMapping := bleve.NewTextFieldMapping()
	tagsFieldMapping.Analyzer = keyword.Name
	tagsFieldMapping.Store = true
	tagsFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("tags", tagsFieldMapping)

	domainsFieldMapping := bleve.NewTextFieldMapping()
	domainsFieldMapping.Analyzer = keyword.Name
	domainsFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("domains", domainsFieldMapping)

	// --- Numeric fields ---

	for _, field := range []string{"like_count", "view_count", "tab_count", "created_at", "updated_at"} {
		numeric := bleve.NewNumericFieldMapping()
		numeric.Store = true
		docMapping.AddFieldMappingsAt(field, numeric)
	}

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
