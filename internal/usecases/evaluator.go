// Package usecases contains the application's business logic
package usecases

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/abelzeko/water-quality/internal/classifier"
	"github.com/abelzeko/water-quality/internal/entities"
)

// SafeMessage is the summary shown when every check passes
const SafeMessage = "All parameters are within CPCB safe limits."

// Corrective suggestions for each CPCB rule
const (
	SuggestionTotalColiform = "Improve sewage treatment, prevent untreated waste discharge, and apply disinfection methods such as chlorination or UV treatment."
	SuggestionPH            = "Control industrial effluents and regulate chemical discharge to maintain neutral pH levels."
	SuggestionDO            = "Increase aeration, improve water flow, and reduce organic waste inflow."
	SuggestionBOD           = "Reduce organic pollution by improving wastewater treatment and limiting domestic and industrial waste discharge."
)

type rule struct {
	violation entities.Violation
	violated  func(r entities.Reading) bool
}

// rules are checked in this order; summary and suggestions follow it
var rules = []rule{
	{
		violation: entities.Violation{Label: "Total Coliform > 50", Suggestion: SuggestionTotalColiform},
		violated:  func(r entities.Reading) bool { return r.TotalColiform > 50 },
	},
	{
		// Written as a negated closed interval so NaN counts as out of range.
		violation: entities.Violation{Label: "pH outside 6.5–8.5", Suggestion: SuggestionPH},
		violated:  func(r entities.Reading) bool { return !(r.PH >= 6.5 && r.PH <= 8.5) },
	},
	{
		violation: entities.Violation{Label: "Dissolved Oxygen < 6 mg/l", Suggestion: SuggestionDO},
		violated:  func(r entities.Reading) bool { return r.DissolvedOxygen < 6 },
	},
	{
		violation: entities.Violation{Label: "BOD > 2 mg/l", Suggestion: SuggestionBOD},
		violated:  func(r entities.Reading) bool { return r.BOD > 2 },
	},
}

// Violations returns the CPCB threshold breaches of a reading in rule-check order
func Violations(r entities.Reading) []entities.Violation {
	var violations []entities.Violation
	for _, rl := range rules {
		if rl.violated(r) {
			violations = append(violations, rl.violation)
		}
	}
	return violations
}

// Evaluator combines the classifier prediction with the CPCB threshold rules
type Evaluator struct {
	classifier classifier.Classifier
	logger     logrus.FieldLogger
}

// NewEvaluator creates an evaluator around an already loaded classifier
func NewEvaluator(c classifier.Classifier, logger logrus.FieldLogger) *Evaluator {
	return &Evaluator{
		classifier: c,
		logger:     logger,
	}
}

// Evaluate judges a single reading. The sample is safe only when the classifier
// predicts safe and no threshold is violated. Classifier errors are wrapped and returned
// with no partial result.
func (e *Evaluator) Evaluate(r entities.Reading) (entities.EvaluationResult, error) {
	log := e.logger.WithField("evaluation_id", uuid.NewString())
	log.Debugf("Evaluating reading pH=%v DO=%v BOD=%v TotalColiform=%v",
		r.PH, r.DissolvedOxygen, r.BOD, r.TotalColiform)

	prediction, err := e.classifier.Predict(r.Features())
	if err != nil {
		log.Errorf("Classifier prediction failed: %v", err)
		return entities.EvaluationResult{}, fmt.Errorf("classifier prediction failed: %w", err)
	}

	violations := Violations(r)
	if prediction == classifier.LabelSafe && len(violations) == 0 {
		log.Infof("Reading is safe")
		return entities.EvaluationResult{
			Status:      entities.StatusSafe,
			Summary:     SafeMessage,
			Suggestions: []string{},
		}, nil
	}

	labels := make([]string, 0, len(violations))
	suggestions := make([]string, 0, len(violations))
	for _, v := range violations {
		labels = append(labels, v.Label)
		suggestions = append(suggestions, v.Suggestion)
	}

	if len(violations) == 0 {
		// TODO: decide what to show the user when only the model flags pollution.
		log.Warnf("Classifier predicted %s with no threshold violations", prediction)
	} else {
		log.Infof("Reading is polluted: %s (classifier: %s)", strings.Join(labels, ", "), prediction)
	}

	return entities.EvaluationResult{
		Status:      entities.StatusPolluted,
		Summary:     strings.Join(labels, ", "),
		Suggestions: suggestions,
	}, nil
}
