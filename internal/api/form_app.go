package api

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/sirupsen/logrus"

	"github.com/abelzeko/water-quality/internal/entities"
	"github.com/abelzeko/water-quality/internal/usecases"
)

// manualEntry is the station picker choice that keeps the default values
const manualEntry = ""

// FormApp runs the terminal form: collect four readings, evaluate, show the result
type FormApp struct {
	evaluator  *usecases.Evaluator
	stations   *usecases.StationUseCase
	logger     logrus.FieldLogger
	out        io.Writer
	accessible bool
}

// NewFormApp creates the form application. stations may be nil when no station store is available.
func NewFormApp(evaluator *usecases.Evaluator, stations *usecases.StationUseCase, logger logrus.FieldLogger, out io.Writer, accessible bool) *FormApp {
	return &FormApp{
		evaluator:  evaluator,
		stations:   stations,
		logger:     logger,
		out:        out,
		accessible: accessible,
	}
}

// Start shows the form until the user quits. Aborting the form is not an error.
func (a *FormApp) Start(ctx context.Context) error {
	a.logger.Infof("Form started")
	fmt.Fprintln(a.out, RenderHeader())

	for {
		raw, err := a.initialValues(ctx)
		if err != nil {
			return a.stopOn(err)
		}

		if err := a.newForm(a.inputGroup(&raw)).RunWithContext(ctx); err != nil {
			return a.stopOn(err)
		}
		fmt.Fprintln(a.out, a.submit(raw))

		again := true
		confirm := huh.NewConfirm().
			Title("Evaluate another sample?").
			Affirmative("Yes").
			Negative("Quit").
			Value(&again)
		if err := a.newForm(huh.NewGroup(confirm)).RunWithContext(ctx); err != nil {
			return a.stopOn(err)
		}
		if !again {
			a.logger.Infof("Form closed by user")
			return nil
		}
	}
}

func (a *FormApp) newForm(groups ...*huh.Group) *huh.Form {
	return huh.NewForm(groups...).
		WithTheme(huh.ThemeCharm()).
		WithAccessible(a.accessible)
}

// stopOn turns a form error into the Start result
func (a *FormApp) stopOn(err error) error {
	if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, context.Canceled) {
		a.logger.Infof("Form aborted")
		return nil
	}
	return fmt.Errorf("form failed: %w", err)
}

// inputGroup builds the four numeric inputs bound to raw
func (a *FormApp) inputGroup(raw *[entities.FeatureCount]string) *huh.Group {
	fields := make([]huh.Field, 0, len(Fields))
	for i, f := range Fields {
		fields = append(fields, huh.NewInput().
			Title(f.Title).
			Description(f.Range()).
			Value(&raw[i]).
			Validate(f.Validate))
	}
	return huh.NewGroup(fields...).Title("Input Parameters")
}

// initialValues offers the station picker when stations are stored and returns
// the values the inputs start with
func (a *FormApp) initialValues(ctx context.Context) ([entities.FeatureCount]string, error) {
	if a.stations == nil {
		return DefaultValues(), nil
	}

	names, err := a.stations.GetAvailableStations()
	if err != nil {
		a.logger.Warnf("Station list unavailable, using manual entry: %v", err)
		return DefaultValues(), nil
	}
	if len(names) == 0 {
		return DefaultValues(), nil
	}

	options := make([]huh.Option[string], 0, len(names)+1)
	options = append(options, huh.NewOption("Manual entry", manualEntry))
	for _, name := range names {
		options = append(options, huh.NewOption(name, name))
	}

	choice := manualEntry
	picker := huh.NewSelect[string]().
		Title("Prefill from a monitoring station").
		Options(options...).
		Value(&choice)
	if err := a.newForm(huh.NewGroup(picker)).RunWithContext(ctx); err != nil {
		return DefaultValues(), err
	}
	return a.prefill(choice), nil
}

// prefill returns the latest readings of station as input values, or the defaults
func (a *FormApp) prefill(station string) [entities.FeatureCount]string {
	if station == manualEntry || a.stations == nil {
		return DefaultValues()
	}

	sr, err := a.stations.GetStationReading(station)
	if err != nil {
		a.logger.Warnf("Failed to load reading for station %s: %v", station, err)
		return DefaultValues()
	}
	if sr == nil {
		a.logger.Warnf("No reading stored for station %s", station)
		return DefaultValues()
	}
	a.logger.Infof("Prefilling form from station %s (%s)", station, sr.Timestamp.Format("2006-01-02 15:04"))
	return ReadingValues(sr.Reading)
}

// submit evaluates the raw input values and returns the text to display
func (a *FormApp) submit(raw [entities.FeatureCount]string) string {
	reading, err := ParseReading(raw)
	if err != nil {
		a.logger.Warnf("Rejected form input: %v", err)
		return RenderError(err)
	}

	result, err := a.evaluator.Evaluate(reading)
	if err != nil {
		return RenderError(err)
	}
	return RenderResult(result)
}
