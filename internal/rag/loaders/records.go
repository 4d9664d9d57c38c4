package loaders

import (
	"fmt"
	"sort"
	"strings"

	"StudyMate/internal/rag/interfaces"
	"StudyMate/internal/rag/schema"
)

// RecordProcessor turns scraped JSON records into chunked documents ready for
// the embedding store. It normalizes heterogeneous nested structures into
// "key: value" prose before handing them to the splitter.
type RecordProcessor struct {
	splitter interfaces.Splitter
}

func NewRecordProcessor(splitter interfaces.Splitter) *RecordProcessor {
	return &RecordProcessor{splitter: splitter}
}

// FlattenRecord walks a nested mapping of primitives, sequences and mappings
// and produces a single newline-joined text blob. Scalar fields render as
// "key: value"; nested structures are flattened recursively.
func FlattenRecord(data map[string]interface{}) string {
	var parts []string
	for _, key := range sortedKeys(data) {
		value := data[key]
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				parts = append(parts, fmt.Sprintf("%s: %s", key, v))
			}
		case []interface{}:
			for _, item := range v {
				switch it := item.(type) {
				case string:
					parts = append(parts, it)
				case map[string]interface{}:
					if text := FlattenRecord(it); text != "" {
						parts = append(parts, text)
					}
				}
			}
		case map[string]interface{}:
			if text := FlattenRecord(v); text != "" {
				parts = append(parts, text)
			}
		case nil:
			// skip
		default:
			parts = append(parts, fmt.Sprintf("%s: %v", key, v))
		}
	}
	return strings.Join(parts, "\n")
}

// ProcessScholarshipData chunks a scraped scholarship record: the general
// information blob, each individual program and the requirements list.
func (p *RecordProcessor) ProcessScholarshipData(data map[string]interface{}) []*schema.Document {
	var docs []*schema.Document
	country := stringOr(data, "country", "Unknown")

	if general, ok := data["general_info"].(map[string]interface{}); ok {
		if text := FlattenRecord(general); text != "" {
			docs = append(docs, p.splitter.Split(text, map[string]interface{}{
				schema.MetadataKeyType:     "scholarship_general",
				schema.MetadataKeyCountry:  country,
				schema.MetadataKeySource:   "scholarship_scraper",
				schema.MetadataKeyCategory: "general_info",
			})...)
		}
	}

	if programs, ok := data["programs"].([]interface{}); ok {
		for i, raw := range programs {
			program, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			text := FlattenRecord(program)
			if text == "" {
				continue
			}
			docs = append(docs, p.splitter.Split(text, map[string]interface{}{
				schema.MetadataKeyType:         "scholarship_program",
				schema.MetadataKeyCountry:      country,
				schema.MetadataKeyProgramName:  stringOr(program, "name", fmt.Sprintf("Program %d", i)),
				schema.MetadataKeyProgramLevel: stringOr(program, "level", "Unknown"),
				schema.MetadataKeySource:       "scholarship_scraper",
				schema.MetadataKeyCategory:     "program_details",
			})...)
		}
	}

	if reqs, ok := data["requirements"].([]interface{}); ok {
		var lines []string
		for _, r := range reqs {
			if s, ok := r.(string); ok {
				lines = append(lines, s)
			}
		}
		if text := strings.Join(lines, "\n"); text != "" {
			docs = append(docs, p.splitter.Split(text, map[string]interface{}{
				schema.MetadataKeyType:     "scholarship_requirements",
				schema.MetadataKeyCountry:  country,
				schema.MetadataKeySource:   "scholarship_scraper",
				schema.MetadataKeyCategory: "requirements",
			})...)
		}
	}

	return docs
}

// countrySection describes one extract-bearing section of a scraped country record.
type countrySection struct {
	key      string
	docType  string
	category string
}

var countrySections = []countrySection{
	{"overview", "country_overview", "overview"},
	{"weather", "weather_info", "weather"},
	{"economy", "economy_info", "economy"},
	{"culture", "culture_info", "culture"},
	{"cost_of_living", "cost_of_living", "cost_of_living"},
	{"work_opportunities", "work_opportunities", "work_opportunities"},
	{"education_system", "education_system", "education_system"},
}

// ProcessCountryData chunks a scraped country record: the flat extract sections
// plus the per-city and per-university entries.
func (p *RecordProcessor) ProcessCountryData(data map[string]interface{}) []*schema.Document {
	var docs []*schema.Document
	country := stringOr(data, "country", "Unknown")

	for _, section := range countrySections {
		entry, ok := data[section.key].(map[string]interface{})
		if !ok {
			continue
		}
		text := stringOr(entry, "extract", "")
		if text == "" {
			continue
		}
		docs = append(docs, p.splitter.Split(text, map[string]interface{}{
			schema.MetadataKeyType:     section.docType,
			schema.MetadataKeyCountry:  country,
			schema.MetadataKeySource:   "wikipedia",
			schema.MetadataKeyCategory: section.category,
		})...)
	}

	if cities, ok := data["cities"].([]interface{}); ok {
		for _, raw := range cities {
			city, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			text := stringOr(city, "extract", "")
			if text == "" {
				continue
			}
			docs = append(docs, p.splitter.Split(text, map[string]interface{}{
				schema.MetadataKeyType:     "city_info",
				schema.MetadataKeyCountry:  country,
				schema.MetadataKeyCity:     stringOr(city, "title", "Unknown"),
				schema.MetadataKeySource:   "wikipedia",
				schema.MetadataKeyCategory: "cities",
			})...)
		}
	}

	if universities, ok := data["universities"].([]interface{}); ok {
		for _, raw := range universities {
			uni, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			text := stringOr(uni, "extract", "")
			if text == "" {
				continue
			}
			docs = append(docs, p.splitter.Split(text, map[string]interface{}{
				schema.MetadataKeyType:       "university_info",
				schema.MetadataKeyCountry:    country,
				schema.MetadataKeyUniversity: stringOr(uni, "title", "Unknown"),
				schema.MetadataKeySource:     "wikipedia",
				schema.MetadataKeyCategory:   "universities",
			})...)
		}
	}

	return docs
}

func stringOr(m map[string]interface{}, key, fallback string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic flattening keeps stored chunks stable across reloads.
	sort.Strings(keys)
	return keys
}
