// Package entities contains the core domain objects for the water-quality application
package entities

import (
	"time"
)

// FeatureCount is the number of readings the classifier consumes
const FeatureCount = 4

// FeatureNames are the training-set column names, in feature vector order
var FeatureNames = [FeatureCount]string{
	"PH",
	"D.O. (mg/l)",
	"B.O.D. (mg/l)",
	"TOTAL COLIFORM (MPN/100ml)Mean",
}

// FeatureVector is the classifier input: pH, DO, BOD, Total Coliform, in that order
type FeatureVector [FeatureCount]float64

// Reading holds the four water-quality measurements of a single sample
type Reading struct {
	PH              float64 // Dimensionless, 0-14
	DissolvedOxygen float64 // D.O. in mg/l
	BOD             float64 // Biochemical Oxygen Demand in mg/l
	TotalColiform   float64 // MPN/100ml
}

// Features builds the fixed-order feature vector for the classifier
func (r Reading) Features() FeatureVector {
	return FeatureVector{r.PH, r.DissolvedOxygen, r.BOD, r.TotalColiform}
}

// StationReading is the latest published reading of a monitoring station.
// It only ever prefills the form; predictions are not stored.
type StationReading struct {
	ID        int64
	Station   string    // Monitoring station name
	Reading             // Measurements reported by the station
	Timestamp time.Time // When the data was fetched
}
