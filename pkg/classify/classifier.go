package classify

import (
	"context"

	"golang.org/x/sync/errgroup"

	"lineadvisor.app/advisor/pkg/retrieval"
)

// EquipmentReading is an optional numeric sensor reading accompanying a
// report. When present, the classifier evaluates it against the threshold
// tables alongside the keyword match.
type EquipmentReading struct {
	Equipment EquipmentType
	Metric    string
	Value     float64
}

// Classification is the classifier's output: the best-matching issue code
// (empty if nothing matched), every candidate match in ranked order, the
// equipment threshold status if a reading was supplied, and the retrieval
// context fetched for the best match.
type Classification struct {
	IssueCode        string
	Category         Category
	Matched          []Issue
	EquipmentStatus  Status
	HasEquipmentEval bool
	Retrieval        retrieval.Context
}

// Classifier derives an issue classification from free-text report content
// and, optionally, a numeric equipment reading.
type Classifier struct {
	dict     *Dictionary
	provider *retrieval.Provider
}

func NewClassifier(dict *Dictionary, provider *retrieval.Provider) *Classifier {
	return &Classifier{dict: dict, provider: provider}
}

// Classify runs the keyword match and the equipment threshold evaluation
// (when a reading is given) concurrently, then fetches retrieval context for
// the best-matching issue. Classification never fails outright: an
// unrecognized report still returns a Classification with an empty IssueCode
// so the workflow can fall back to the selector's default routing rule.
func (c *Classifier) Classify(ctx context.Context, reportText string, reading *EquipmentReading) (*Classification, error) {
	var matches []Issue
	var status Status
	var hasStatus bool

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		matches = c.dict.MatchKeywords(reportText)
		return nil
	})

	if reading != nil {
		g.Go(func() error {
			s, ok := Evaluate(reading.Equipment, reading.Metric, reading.Value)
			if ok {
				status, hasStatus = s, true
			}
			return nil
		})
	}

	_ = g.Wait() // both goroutines are pure and cannot fail

	result := &Classification{Matched: matches, EquipmentStatus: status, HasEquipmentEval: hasStatus}
	switch {
	case len(matches) > 0:
		result.IssueCode = matches[0].Code
		result.Category = categoryFor(matches[0])
	case hasStatus:
		// A numeric reading was evaluated but no keyword match backs it: route
		// through the numeric-trigger path instead of the dictionary.
		result.Category = CategoryNumeric
	default:
		result.Category = CategoryGeneral
	}

	if c.provider != nil {
		query := reportText
		if len(matches) > 0 {
			query = matches[0].Description + " " + reportText
		}
		result.Retrieval = c.provider.Fetch(gctx, query, 5)
	}

	return result, nil
}
