package metatags

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Parsed is a tag set read back from existing markup
type Parsed struct {
	Set
	URL string `json:"url"`
}

// Parse extracts the generator's tags from head markup such as a pasted
// snippet or a saved page. Missing tags are left empty.
func Parse(markup string) (*Parsed, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	content := func(selector string) string {
		value, _ := doc.Find(selector).First().Attr("content")
		return value
	}

	return &Parsed{
		Set: Set{
			Title:              doc.Find("title").First().Text(),
			Description:        content("meta[name='description']"),
			Keywords:           content("meta[name='keywords']"),
			OGTitle:            content("meta[property='og:title']"),
			OGDescription:      content("meta[property='og:description']"),
			TwitterTitle:       content("meta[name='twitter:title']"),
			TwitterDescription: content("meta[name='twitter:description']"),
		},
		URL: content("meta[property='og:url']"),
	}, nil
}
