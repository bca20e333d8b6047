// Package metatags builds the title, description, Open Graph and Twitter tags
// produced by the meta-tag generator.
package metatags

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Character limits; truncated values end with an ellipsis that counts toward the limit.
const (
	TitleLimit       = 60
	DescriptionLimit = 160
	KeywordLimit     = 10
	ellipsis         = "..."
)

// Set is the generated group of tags
type Set struct {
	Title              string `json:"title"`
	Description        string `json:"description"`
	Keywords           string `json:"keywords"`
	OGTitle            string `json:"ogTitle"`
	OGDescription      string `json:"ogDescription"`
	TwitterTitle       string `json:"twitterTitle"`
	TwitterDescription string `json:"twitterDescription"`
}

// Form holds the generator inputs.
type Form struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
	URL         string `json:"url"`
}

// notBlank rejects strings made only of whitespace, which Required lets through.
var notBlank = validation.By(func(value interface{}) error {
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return validation.ErrRequired
	}
	return nil
})

// Validate requires a title and a description; keywords and URL are optional.
func (f Form) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Title, validation.Required, notBlank),
		validation.Field(&f.Description, validation.Required, notBlank),
	)
}

// Generate derives the tag set. It is pure: the same inputs always give the
// same output.
func Generate(title, description, keywords string) Set {
	return Set{
		Title:              truncate(title, TitleLimit),
		Description:        truncate(description, DescriptionLimit),
		Keywords:           limitKeywords(keywords, KeywordLimit),
		OGTitle:            title,
		OGDescription:      description,
		TwitterTitle:       title,
		TwitterDescription: description,
	}
}

// truncate keeps s when it fits limit characters, otherwise cuts it to
// limit-3 characters and appends "...".
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-len(ellipsis)]) + ellipsis
}

// limitKeywords keeps the first n comma-separated tokens as typed.
func limitKeywords(keywords string, n int) string {
	tokens := strings.Split(keywords, ",")
	if len(tokens) > n {
		tokens = tokens[:n]
	}
	return strings.Join(tokens, ", ")
}

// HTML renders the snippet to paste into a page head. Values are inserted verbatim.
func HTML(set Set, pageURL string) string {
	lines := []string{
		fmt.Sprintf(`<title>%s</title>`, set.Title),
		fmt.Sprintf(`<meta name="description" content="%s">`, set.Description),
		fmt.Sprintf(`<meta name="keywords" content="%s">`, set.Keywords),
		fmt.Sprintf(`<meta property="og:title" content="%s">`, set.OGTitle),
		fmt.Sprintf(`<meta property="og:description" content="%s">`, set.OGDescription),
		fmt.Sprintf(`<meta property="og:url" content="%s">`, pageURL),
		fmt.Sprintf(`<meta name="twitter:title" content="%s">`, set.TwitterTitle),
		fmt.Sprintf(`<meta name="twitter:description" content="%s">`, set.TwitterDescription),
	}
	return strings.Join(lines, "\n")
}

// Copyable fields.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldKeywords    = "keywords"
	FieldOpenGraph   = "og"
	FieldTwitter     = "twitter"
)

// Snippet returns the markup copied for a single field.
func Snippet(set Set, field string) (string, error) {
	switch field {
	case FieldTitle:
		return fmt.Sprintf(`<title>%s</title>`, set.Title), nil
	case FieldDescription:
		return fmt.Sprintf(`<meta name="description" content="%s">`, set.Description), nil
	case FieldKeywords:
		return fmt.Sprintf(`<meta name="keywords" content="%s">`, set.Keywords), nil
	case FieldOpenGraph:
		return fmt.Sprintf("<meta property=\"og:title\" content=\"%s\">\n<meta property=\"og:description\" content=\"%s\">",
			set.OGTitle, set.OGDescription), nil
	case FieldTwitter:
		return fmt.Sprintf("<meta name=\"twitter:title\" content=\"%s\">\n<meta name=\"twitter:description\" content=\"%s\">",
			set.TwitterTitle, set.TwitterDescription), nil
	default:
		return "", fmt.Errorf("unknown field %q", field)
	}
}
