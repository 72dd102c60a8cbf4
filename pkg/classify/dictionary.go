// Package classify maps an operator's free-text issue report onto a known
// issue code (or an empty classification) and, for equipment with numeric
// sensor readings, flags threshold breaches alongside the keyword match.
package classify

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed issues.yaml
var issuesYAML []byte

// Severity is the dictionary's fixed severity scale, ordered low to high.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityModerate Severity = "MODERATE"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Issue is one entry in the static issue dictionary.
type Issue struct {
	Code                string   `yaml:"code"`
	Description         string   `yaml:"description"`
	Category            string   `yaml:"category"`
	Severity            Severity `yaml:"severity"`
	CommonCauses        []string `yaml:"common_causes"`
	StandardSolutions   []string `yaml:"standard_solutions"`
	AffectedComponents  []string `yaml:"affected_components"`
	SearchKeywords      []string `yaml:"search_keywords"`
}

// Dictionary is the loaded, queryable issue catalogue.
type Dictionary struct {
	issues []Issue
	byCode map[string]Issue
}

// LoadDictionary parses the embedded static issue catalogue. It never fails
// at runtime — the catalogue is compiled into the binary — but returns an
// error rather than panicking so callers can fail startup cleanly if the
// embedded file is ever malformed.
func LoadDictionary() (*Dictionary, error) {
	var issues []Issue
	if err := yaml.Unmarshal(issuesYAML, &issues); err != nil {
		return nil, err
	}

	d := &Dictionary{issues: issues, byCode: make(map[string]Issue, len(issues))}
	for _, iss := range issues {
		d.byCode[iss.Code] = iss
	}
	return d, nil
}

// Lookup returns the issue entry for a known code.
func (d *Dictionary) Lookup(code string) (Issue, bool) {
	iss, ok := d.byCode[code]
	return iss, ok
}

// MatchKeywords scores every dictionary entry against the report text by
// counting how many of its search keywords appear (case-insensitively) in
// the text, and returns the entries with at least one match, best match
// first. Ties keep the dictionary's declaration order.
func (d *Dictionary) MatchKeywords(text string) []Issue {
	lower := strings.ToLower(text)

	type scored struct {
		issue Issue
		score int
	}
	var matches []scored
	for _, iss := range d.issues {
		score := 0
		for _, kw := range iss.SearchKeywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{issue: iss, score: score})
		}
	}

	// stable sort by score descending, preserving declaration order on ties
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].score > matches[j-1].score; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}

	result := make([]Issue, len(matches))
	for i, m := range matches {
		result[i] = m.issue
	}
	return result
}
