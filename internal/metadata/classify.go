// Package metadata extracts titles, descriptions, and images from arbitrary
// web links so new tabs arrive pre-filled.
package metadata

import (
	"net"
	"net/url"
	"path"
	"strings"

	"github.com/tabsverse/tabsverse-server/internal/domain"
)

// Classification is the static guess made from a URL alone.
type Classification struct {
	ResourceType domain.ResourceType
	Confidence   domain.Confidence
	Tags         []string
}

type knownDomain struct {
	resourceType domain.ResourceType
	tags         []string
}

// knownDomains maps hosts (without a leading "www.") to their resource type
// and default tags.
var knownDomains = map[string]knownDomain{
	// Code
	"github.com":            {domain.ResourceWebpage, []string{"code", "development"}},
	"gitlab.com":            {domain.ResourceWebpage, []string{"code", "development"}},
	"bitbucket.org":         {domain.ResourceWebpage, []string{"code", "development"}},
	"stackoverflow.com":     {domain.ResourceWebpage, []string{"development", "q-and-a"}},
	"codepen.io":            {domain.ResourceWebpage, []string{"code", "frontend"}},
	"pkg.go.dev":            {domain.ResourceWebpage, []string{"code", "documentation"}},
	"npmjs.com":             {domain.ResourceWebpage, []string{"code", "packages"}},
	"developer.mozilla.org": {domain.ResourceDocument, []string{"documentation", "development"}},

	// Video
	"youtube.com": {domain.ResourceVideo, []string{"video"}},
	"youtu.be":    {domain.ResourceVideo, []string{"video"}},
	"vimeo.com":   {domain.ResourceVideo, []string{"video"}},
	"twitch.tv":   {domain.ResourceVideo, []string{"video", "streaming"}},
	"loom.com":    {domain.ResourceVideo, []string{"video"}},
	"ted.com":     {domain.ResourceVideo, []string{"video", "talks"}},

	// Images and design
	"unsplash.com":  {domain.ResourceImage, []string{"photography", "design"}},
	"pinterest.com": {domain.ResourceImage, []string{"inspiration", "design"}},
	"flickr.com":    {domain.ResourceImage, []string{"photography"}},
	"imgur.com":     {domain.ResourceImage, []string{"images"}},
	"dribbble.com":  {domain.ResourceImage, []string{"design", "inspiration"}},
	"behance.net":   {domain.ResourceImage, []string{"design", "portfolio"}},
	"figma.com":     {domain.ResourceDocument, []string{"design"}},

	// Documents and research
	"docs.google.com":  {domain.ResourceDocument, []string{"documents"}},
	"notion.so":        {domain.ResourceDocument, []string{"notes", "documents"}},
	"arxiv.org":        {domain.ResourcePDF, []string{"research", "papers"}},
	"scribd.com":       {domain.ResourceDocument, []string{"documents"}},
	"slideshare.net":   {domain.ResourceDocument, []string{"slides"}},
	"wikipedia.org":    {domain.ResourceWebpage, []string{"reference"}},
	"en.wikipedia.org": {domain.ResourceWebpage, []string{"reference"}},

	// Articles and social
	"medium.com":           {domain.ResourceWebpage, []string{"articles", "blog"}},
	"dev.to":               {domain.ResourceWebpage, []string{"articles", "development"}},
	"substack.com":         {domain.ResourceWebpage, []string{"newsletter", "articles"}},
	"news.ycombinator.com": {domain.ResourceWebpage, []string{"news", "technology"}},
	"reddit.com":           {domain.ResourceWebpage, []string{"discussion", "community"}},
	"twitter.com":          {domain.ResourceWebpage, []string{"social"}},
	"x.com":                {domain.ResourceWebpage, []string{"social"}},
	"linkedin.com":         {domain.ResourceWebpage, []string{"professional", "social"}},

	// Shopping and music
	"amazon.com":       {domain.ResourceWebpage, []string{"shopping"}},
	"etsy.com":         {domain.ResourceWebpage, []string{"shopping", "handmade"}},
	"spotify.com":      {domain.ResourceWebpage, []string{"music"}},
	"open.spotify.com": {domain.ResourceWebpage, []string{"music"}},
	"soundcloud.com":   {domain.ResourceWebpage, []string{"music", "audio"}},
}

var extensionTypes = map[string]domain.ResourceType{
	".pdf": domain.ResourcePDF,

	".mp4":  domain.ResourceVideo,
	".webm": domain.ResourceVideo,
	".mov":  domain.ResourceVideo,
	".mkv":  domain.ResourceVideo,
	".avi":  domain.ResourceVideo,
	".m4v":  domain.ResourceVideo,

	".jpg":  domain.ResourceImage,
	".jpeg": domain.ResourceImage,
	".png":  domain.ResourceImage,
	".gif":  domain.ResourceImage,
	".webp": domain.ResourceImage,
	".svg":  domain.ResourceImage,
	".avif": domain.ResourceImage,

	".doc":  domain.ResourceDocument,
	".docx": domain.ResourceDocument,
	".xls":  domain.ResourceDocument,
	".xlsx": domain.ResourceDocument,
	".ppt":  domain.ResourceDocument,
	".pptx": domain.ResourceDocument,
	".odt":  domain.ResourceDocument,
	".txt":  domain.ResourceDocument,
	".md":   domain.ResourceDocument,
	".csv":  domain.ResourceDocument,
	".epub": domain.ResourceDocument,
}

// Classify guesses the resource type of u without fetching it.
// Known hosts win with high confidence, then the path extension with medium
// confidence, then webpage with low confidence.
func Classify(u *url.URL) Classification {
	host := normalizeHost(u.Hostname())
	if known, ok := knownDomains[host]; ok {
		return Classification{
			ResourceType: known.resourceType,
			Confidence:   domain.ConfidenceHigh,
			Tags:         append([]string(nil), known.tags...),
		}
	}

	if rt, ok := extensionTypes[strings.ToLower(path.Ext(u.Path))]; ok {
		return Classification{
			ResourceType: rt,
			Confidence:   domain.ConfidenceMedium,
			Tags:         []string{},
		}
	}

	return Classification{
		ResourceType: domain.ResourceWebpage,
		Confidence:   domain.ConfidenceLow,
		Tags:         []string{},
	}
}

// refineByContentType upgrades a low-confidence guess using the response
// content type of a non-HTML body.
func refineByContentType(c Classification, mediaType string) Classification {
	if c.Confidence != domain.ConfidenceLow {
		return c
	}

	var rt domain.ResourceType
	switch {
	case mediaType == "application/pdf":
		rt = domain.ResourcePDF
	case strings.HasPrefix(mediaType, "image/"):
		rt = domain.ResourceImage
	case strings.HasPrefix(mediaType, "video/"):
		rt = domain.ResourceVideo
	default:
		return c
	}

	c.ResourceType = rt
	c.Confidence = domain.ConfidenceMedium
	return c
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	return strings.TrimPrefix(host, "www.")
}

// titleFromDomain synthesizes a title when the page offers none:
// "docs.example.com" becomes "Example".
func titleFromDomain(host string) string {
	host = normalizeHost(host)
	if net.ParseIP(host) != nil {
		return host
	}
	labels := strings.Split(host, ".")
	name := labels[0]
	if len(labels) >= 2 {
		name = labels[len(labels)-2]
	}
	if name == "" {
		return host
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
