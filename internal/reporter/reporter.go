// Package reporter renders scan reports. Renderers only read the report.
package reporter

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ppiankov/codespectre/internal/models"
)

// Supported export formats.
const (
	FormatJSON  = "json"
	FormatHTML  = "html"
	FormatCSV   = "csv"
	FormatJUnit = "junit"
	FormatSARIF = "sarif"
	FormatText  = "text"
)

// Formats lists the formats accepted by Write.
var Formats = []string{FormatJSON, FormatHTML, FormatCSV, FormatJUnit, FormatSARIF, FormatText}

// Extension returns the artifact file extension for a format.
func Extension(format string) string {
	switch format {
	case FormatJUnit:
		return "xml"
	case FormatSARIF:
		return "sarif"
	case FormatText:
		return "txt"
	}
	return format
}

// Write renders report in the given format.
func Write(format string, w io.Writer, report *models.Report) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		return NewJSONReporter(w, true).Generate(report)
	case FormatHTML:
		return NewHTMLReporter(w).Generate(report)
	case FormatCSV:
		return NewCSVReporter(w).Generate(report)
	case FormatJUnit, "xml":
		return NewJUnitReporter(w).Generate(report)
	case FormatSARIF:
		return NewSARIFReporter(w, "dev").Generate(report)
	case FormatText:
		return NewTextReporter(w, false).Generate(report)
	}
	return fmt.Errorf("unsupported format: %s (use %s)", format, strings.Join(Formats, ", "))
}

// sortedTypes returns issue types ordered by count, then name.
func sortedTypes(byType map[string]int) []string {
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if byType[types[i]] != byType[types[j]] {
			return byType[types[i]] > byType[types[j]]
		}
		return types[i] < types[j]
	})
	return types
}
