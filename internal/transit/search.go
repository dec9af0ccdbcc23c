package transit

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kentrehber/durak/internal/models"
)

// StopLister is anything that can list stops in catalog order.
type StopLister interface {
	Stops() []models.Stop
}

// FilterStops keeps stops in region (when non-empty) whose name, line
// identifiers or route descriptions contain query (when non-blank).
// Matching uses Turkish casing rules, so "İ" folds to "i" and "I" to "ı".
func FilterStops(src StopLister, query, region string) []models.Stop {
	query = strings.TrimSpace(query)

	// Casers keep state and must not be shared between goroutines.
	fold := cases.Lower(language.Turkish)
	needle := fold.String(query)

	results := []models.Stop{}
	for _, stop := range src.Stops() {
		if region != "" && stop.Region != region {
			continue
		}
		if needle != "" && !matches(fold, stop, needle) {
			continue
		}
		results = append(results, stop)
	}
	return results
}

func matches(fold cases.Caser, stop models.Stop, needle string) bool {
	if strings.Contains(fold.String(stop.Name), needle) {
		return true
	}
	for _, ls := range stop.Lines {
		if strings.Contains(fold.String(ls.Line), needle) ||
			strings.Contains(fold.String(ls.Route), needle) {
			return true
		}
	}
	return false
}
