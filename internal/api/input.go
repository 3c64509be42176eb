// Package api provides the interactive interfaces of the application
package api

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/abelzeko/water-quality/internal/entities"
)

// ReadingInput is the form's view of a reading; tags carry the input control ranges
type ReadingInput struct {
	PH              float64 `validate:"gte=0,lte=14"`
	DissolvedOxygen float64 `validate:"gte=0,lte=20"`
	BOD             float64 `validate:"gte=0,lte=10"`
	TotalColiform   float64 `validate:"gte=0,lte=5000"`
}

// Field describes one numeric input control
type Field struct {
	Title   string
	Tag     string // validator tag for the range
	Step    float64
	Default float64
	Integer bool
}

// Fields are the form controls in feature vector order
var Fields = [entities.FeatureCount]Field{
	{Title: "pH", Tag: "gte=0,lte=14", Step: 0.1, Default: 7.0},
	{Title: "Dissolved Oxygen (D.O. mg/l)", Tag: "gte=0,lte=20", Step: 0.1, Default: 7.0},
	{Title: "Biochemical Oxygen Demand (B.O.D. mg/l)", Tag: "gte=0,lte=10", Step: 0.1, Default: 2.0},
	{Title: "Total Coliform (MPN/100ml)", Tag: "gte=0,lte=5000", Step: 10, Default: 50, Integer: true},
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Format renders v the way the control displays it
func (f Field) Format(v float64) string {
	if f.Integer {
		return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// Range describes the accepted interval for prompts and error messages
func (f Field) Range() string {
	return fmt.Sprintf("%s to %s, step %s", f.Format(0), f.Format(f.upper()), strconv.FormatFloat(f.Step, 'f', -1, 64))
}

func (f Field) upper() float64 {
	for _, part := range strings.Split(f.Tag, ",") {
		if v, ok := strings.CutPrefix(part, "lte="); ok {
			upper, _ := strconv.ParseFloat(v, 64)
			return upper
		}
	}
	return 0
}

// Parse reads a typed value, checks the range and snaps it to the control step
func (f Field) Parse(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be a number", f.Title)
	}
	if err := validate.Var(v, f.Tag); err != nil {
		return 0, fmt.Errorf("%s must be in range %s", f.Title, f.Range())
	}
	return f.snap(v), nil
}

// Validate is the huh input validator for this field
func (f Field) Validate(s string) error {
	_, err := f.Parse(s)
	return err
}

// snap rounds to the nearest step, like a slider would
func (f Field) snap(v float64) float64 {
	steps := math.Round(v / f.Step)
	snapped := steps * f.Step
	if !f.Integer {
		// keep one decimal so 0.1 steps do not drift (7.000000000000001)
		snapped = math.Round(snapped*10) / 10
	}
	return snapped
}

// ParseReading turns the four raw form values into a reading
func ParseReading(raw [entities.FeatureCount]string) (entities.Reading, error) {
	var values [entities.FeatureCount]float64
	for i, f := range Fields {
		v, err := f.Parse(raw[i])
		if err != nil {
			return entities.Reading{}, err
		}
		values[i] = v
	}

	in := ReadingInput{PH: values[0], DissolvedOxygen: values[1], BOD: values[2], TotalColiform: values[3]}
	if err := validate.Struct(in); err != nil {
		return entities.Reading{}, fmt.Errorf("invalid reading: %w", err)
	}
	return entities.Reading{
		PH:              in.PH,
		DissolvedOxygen: in.DissolvedOxygen,
		BOD:             in.BOD,
		TotalColiform:   in.TotalColiform,
	}, nil
}

// DefaultValues returns the formatted starting values of the controls
func DefaultValues() [entities.FeatureCount]string {
	var raw [entities.FeatureCount]string
	for i, f := range Fields {
		raw[i] = f.Format(f.Default)
	}
	return raw
}

// ReadingValues formats a reading as prefilled control values, clamped to the control ranges
func ReadingValues(r entities.Reading) [entities.FeatureCount]string {
	features := r.Features()
	var raw [entities.FeatureCount]string
	for i, f := range Fields {
		v := math.Min(math.Max(features[i], 0), f.upper())
		raw[i] = f.Format(f.snap(v))
	}
	return raw
}
