// Package integration handles external service interactions
package integration

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/abelzeko/water-quality/internal/entities"
)

// stationColumns are the accepted headers of the station name column
var stationColumns = []string{"STATION", "STATION NAME", "MONITORING LOCATION"}

// StationScraper scrapes the latest monitoring station readings from a published HTML table
type StationScraper struct {
	sourceURL string
	client    *http.Client
	logger    logrus.FieldLogger
	now       func() time.Time
}

// NewStationScraper creates a new station readings scraper
func NewStationScraper(url string, timeout time.Duration, logger logrus.FieldLogger) *StationScraper {
	return &StationScraper{
		sourceURL: url,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
		now:       time.Now,
	}
}

// FetchStationReadings retrieves one reading per station row from the source page
func (ss *StationScraper) FetchStationReadings(ctx context.Context) ([]entities.StationReading, error) {
	ss.logger.Infof("Sending HTTP request to %s", ss.sourceURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ss.sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	res, err := ss.client.Do(req)
	if err != nil {
		ss.logger.Errorf("Error fetching station data: %v", err)
		return nil, fmt.Errorf("failed to fetch the webpage: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		ss.logger.Errorf("Received unexpected status code: %d %s", res.StatusCode, res.Status)
		return nil, fmt.Errorf("unexpected status code: %d %s", res.StatusCode, res.Status)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		ss.logger.Errorf("Error parsing HTML: %v", err)
		return nil, fmt.Errorf("failed to parse the webpage: %w", err)
	}

	return ss.ParseStationReadings(doc)
}

// ParseStationReadings extracts readings from the first table whose header row
// names the station column and all four reading columns
func (ss *StationScraper) ParseStationReadings(doc *goquery.Document) ([]entities.StationReading, error) {
	timestamp := ss.now().UTC()

	var (
		data       []entities.StationReading
		found      bool
		rowCount   int
		skipped    int
		columnsErr error
	)

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		header := table.Find("tr").First()
		columns, err := mapColumns(header)
		if err != nil {
			columnsErr = err
			return true
		}
		found = true

		table.Find("tr").Each(func(i int, row *goquery.Selection) {
			if i == 0 {
				return
			}
			cells := row.Find("td")
			if cells.Length() == 0 {
				return
			}
			rowCount++

			station := cellText(cells, columns.station)
			if station == "" {
				skipped++
				return
			}

			var values [entities.FeatureCount]float64
			for f, idx := range columns.features {
				v, ok := parseValue(cellText(cells, idx))
				if !ok {
					ss.logger.Warnf("Skipping station %s: no valid %s value", station, entities.FeatureNames[f])
					skipped++
					return
				}
				values[f] = v
			}

			data = append(data, entities.StationReading{
				Station: station,
				Reading: entities.Reading{
					PH:              values[0],
					DissolvedOxygen: values[1],
					BOD:             values[2],
					TotalColiform:   values[3],
				},
				Timestamp: timestamp,
			})
		})
		return false
	})

	if !found {
		if columnsErr != nil {
			return nil, fmt.Errorf("no station readings table found: %w", columnsErr)
		}
		return nil, fmt.Errorf("no station readings table found")
	}

	ss.logger.Infof("Parsed %d rows, extracted %d station readings, skipped %d", rowCount, len(data), skipped)
	return data, nil
}

type columnMap struct {
	station  int
	features [entities.FeatureCount]int
}

// mapColumns locates the station and reading columns by their header text
func mapColumns(header *goquery.Selection) (columnMap, error) {
	cm := columnMap{station: -1}
	for i := range cm.features {
		cm.features[i] = -1
	}

	header.Find("th, td").Each(func(i int, cell *goquery.Selection) {
		name := normalizeHeader(cell.Text())
		if slices.Contains(stationColumns, name) {
			if cm.station < 0 {
				cm.station = i
			}
			return
		}
		for f, feature := range entities.FeatureNames {
			if name == normalizeHeader(feature) && cm.features[f] < 0 {
				cm.features[f] = i
			}
		}
	})

	if cm.station < 0 {
		return cm, fmt.Errorf("missing station column")
	}
	for f, idx := range cm.features {
		if idx < 0 {
			return cm, fmt.Errorf("missing %q column", entities.FeatureNames[f])
		}
	}
	return cm, nil
}

// normalizeHeader upper-cases and collapses whitespace so header formatting does not matter
func normalizeHeader(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

func cellText(cells *goquery.Selection, idx int) string {
	if idx >= cells.Length() {
		return ""
	}
	return strings.TrimSpace(cells.Eq(idx).Text())
}

// parseValue reads a numeric cell. Placeholders such as "NA" or "-" are rejected.
func parseValue(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
