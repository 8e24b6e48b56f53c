package serper

import (
	"regexp"
	"strings"

	"github.com/andreguimel/salesloop-kit-sub001/pkg/models"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/validation"
)

var (
	// Brazilian landline or mobile, with or without formatting:
	// (11) 98765-4321, 11 3456-7890, 1134567890
	phonePattern = regexp.MustCompile(`\(?\b\d{2}\)?[\s.-]?\d{4,5}[\s.-]?\d{4}\b`)

	// Star-rating fragments like "4,5" or "4.5 (120)" that search engines
	// prepend to listing lines; used to strip noise, never as data.
	ratingPattern = regexp.MustCompile(`^\s*\d[.,]\d\s*(\(\d+\.?\d*\))?\s*`)

	// Markdown markup left over after scraping
	markdownNoise = regexp.MustCompile(`[#*_\x60\[\]]`)
)

// streetPrefixes mark a line as an address in scraped listing text
var streetPrefixes = []string{
	"r. ", "rua ", "av. ", "av ", "avenida ", "travessa ", "tv. ",
	"alameda ", "al. ", "rodovia ", "rod. ", "estrada ", "praça ", "pç. ",
}

// extractFromPlaces maps structured place results into partial records
func extractFromPlaces(places []placeResult) []models.CompanyRecord {
	records := make([]models.CompanyRecord, 0, len(places))
	for _, place := range places {
		name := strings.TrimSpace(place.Title)
		if name == "" {
			continue
		}
		record := models.CompanyRecord{
			TradeName: name,
			Phone1:    validation.DigitsOnly(place.PhoneNumber),
		}
		if street, city, state := splitAddress(place.Address); street != "" || city != "" {
			record.Street = street
			record.City = city
			record.State = state
		}
		records = append(records, record)
	}
	return records
}

// ExtractFromText mines loosely structured listing text for company
// leads. Heuristics: a line holding a phone number names a candidate; the
// nearest preceding non-address line is taken as the business name and a
// following street-prefixed line as the address. Zero matches is a valid
// outcome.
func ExtractFromText(text string) []models.CompanyRecord {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = markdownNoise.ReplaceAllString(line, "")
		line = ratingPattern.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}

	var records []models.CompanyRecord
	seen := make(map[string]bool)

	for i, line := range cleaned {
		phone := phonePattern.FindString(line)
		if phone == "" {
			continue
		}

		record := models.CompanyRecord{
			Phone1: validation.DigitsOnly(phone),
		}

		// Walk back for the business name: the closest previous line that
		// is neither an address nor another phone line.
		for j := i - 1; j >= 0 && j >= i-3; j-- {
			candidate := cleaned[j]
			if isStreetLine(candidate) || phonePattern.MatchString(candidate) {
				continue
			}
			record.TradeName = strings.TrimSpace(strings.TrimSuffix(candidate, "-"))
			break
		}

		// Address on the same line or one of the next two lines
		if isStreetLine(line) {
			record.Street = strings.TrimSpace(phonePattern.ReplaceAllString(line, ""))
		} else {
			for j := i + 1; j < len(cleaned) && j <= i+2; j++ {
				if isStreetLine(cleaned[j]) {
					record.Street = cleaned[j]
					break
				}
			}
		}

		if record.TradeName == "" {
			continue
		}
		if seen[record.TradeName] {
			continue
		}
		seen[record.TradeName] = true
		records = append(records, record)
	}

	return records
}

// mergeByName combines the two extraction passes, deduplicating by exact
// business name. The structured pass wins on conflicts.
func mergeByName(primary, secondary []models.CompanyRecord) []models.CompanyRecord {
	seen := make(map[string]bool, len(primary))
	for _, record := range primary {
		seen[record.TradeName] = true
	}

	merged := primary
	for _, record := range secondary {
		if record.TradeName == "" || seen[record.TradeName] {
			continue
		}
		seen[record.TradeName] = true
		merged = append(merged, record)
	}
	return merged
}

func isStreetLine(line string) bool {
	lower := strings.ToLower(line)
	for _, prefix := range streetPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// splitAddress splits a "Street, Neighborhood, City - ST" style address.
// Anything that does not fit the pattern stays in the street field.
func splitAddress(address string) (street, city, state string) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", "", ""
	}

	parts := strings.Split(address, ",")
	street = strings.TrimSpace(parts[0])

	last := strings.TrimSpace(parts[len(parts)-1])
	if dash := strings.LastIndex(last, " - "); dash >= 0 {
		city = strings.TrimSpace(last[:dash])
		state = strings.TrimSpace(last[dash+3:])
		if len(state) != 2 {
			city = last
			state = ""
		}
	} else if len(parts) > 1 {
		city = last
	}

	return street, city, state
}
