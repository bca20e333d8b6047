// Package export formats already-fetched results for download.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/seo-lab/backend/analyzer"
)

// Options controls CSV output.
type Options struct {
	// Escape quotes fields containing commas, quotes or newlines. Off by
	// default so the output stays byte-compatible with earlier exports.
	Escape bool
}

var (
	keywordHeader  = []string{"Keyword", "Volume", "Difficulty", "CPC", "Competition"}
	backlinkHeader = []string{"Domain", "Authority", "Type", "Anchor", "Discovered"}
)

// KeywordsCSV renders keyword records, CPC with two decimals.
func KeywordsCSV(records []analyzer.KeywordRecord, opts Options) (string, error) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Keyword,
			strconv.Itoa(r.Volume),
			strconv.Itoa(r.Difficulty),
			strconv.FormatFloat(r.CPC, 'f', 2, 64),
			string(r.Competition),
		})
	}
	return render(keywordHeader, rows, opts)
}

// BacklinksCSV renders backlink records.
func BacklinksCSV(records []analyzer.BacklinkRecord, opts Options) (string, error) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Domain,
			strconv.Itoa(r.Authority),
			string(r.Type),
			r.Anchor,
			r.Discovered,
		})
	}
	return render(backlinkHeader, rows, opts)
}

func render(header []string, rows [][]string, opts Options) (string, error) {
	if !opts.Escape {
		lines := make([]string, 0, len(rows)+1)
		lines = append(lines, strings.Join(header, ","))
		for _, row := range rows {
			lines = append(lines, strings.Join(row, ","))
		}
		return strings.Join(lines, "\n"), nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("write csv rows: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// ReportDateLayout is the date format printed in audit reports.
const ReportDateLayout = "02/01/2006"

// AuditReport renders the plain-text audit report. The text opens with a
// blank line and ends with a four-space line, as the downloaded file always has.
func AuditReport(url string, result analyzer.SiteAuditResult, date time.Time) string {
	var b strings.Builder

	b.WriteString("\nRAPPORT D'AUDIT SEO\n")
	b.WriteString("==================\n")
	fmt.Fprintf(&b, "URL: %s\n", url)
	fmt.Fprintf(&b, "Score: %d/100\n", result.Score)
	fmt.Fprintf(&b, "Date: %s\n", date.Format(ReportDateLayout))
	writeSection(&b, "PROBLÈMES CRITIQUES", result.Issues.Critical)
	writeSection(&b, "AVERTISSEMENTS", result.Issues.Warnings)
	writeSection(&b, "NOTICES", result.Issues.Notices)
	b.WriteString("\nPERFORMANCE:\n")
	fmt.Fprintf(&b, "- Temps de chargement: %.2fs\n", result.Performance.LoadTime)
	fmt.Fprintf(&b, "- Taille de page: %dKB\n", result.Performance.PageSize)
	fmt.Fprintf(&b, "- Requêtes: %d\n", result.Performance.Requests)
	b.WriteString(reportTrailer)

	return b.String()
}

const reportTrailer = "    "

// writeSection prints the bullets joined by newlines, so an empty section
// still leaves its blank line.
func writeSection(b *strings.Builder, title string, issues []string) {
	bullets := make([]string, len(issues))
	for i, issue := range issues {
		bullets[i] = "- " + issue
	}
	fmt.Fprintf(b, "\n%s:\n%s\n", title, strings.Join(bullets, "\n"))
}

// KeywordsFilename names the keyword CSV download.
func KeywordsFilename(keyword string) string {
	return "keyword-research-" + keyword + ".csv"
}

// BacklinksFilename names the backlink CSV download.
func BacklinksFilename(domain string) string {
	return "backlinks-" + domain + ".csv"
}

// AuditFilename names the audit report download.
func AuditFilename(date time.Time) string {
	return "audit-seo-" + date.Format("2006-01-02") + ".txt"
}
