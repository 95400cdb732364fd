package insights

import "errors"

// ErrInsufficientData is returned by a Predictor that lacks enough history.
var ErrInsufficientData = errors.New("insufficient data for prediction")

// Features is the numeric input shared by every predictor.
// History is ordered oldest first; Recent is the trailing slice of interest
// for predictors that compare a recent period with the whole history.
type Features struct {
	History []float64
	Recent  []float64
}

// Predictor turns features into a single score. Heuristics and any future
// trained model plug in behind the same interface.
type Predictor interface {
	Predict(f Features) (float64, error)
}

// MovingAverage predicts the next value of History as the mean of its last
// Window points, refusing to predict from fewer than MinPoints points.
type MovingAverage struct {
	Window    int
	MinPoints int
}

// DefaultForecaster needs two weeks of daily totals and averages the last week.
var DefaultForecaster = MovingAverage{Window: 7, MinPoints: 14}

func (m MovingAverage) Predict(f Features) (float64, error) {
	if len(f.History) == 0 || len(f.History) < m.MinPoints || m.Window < 1 {
		return 0, ErrInsufficientData
	}
	window := m.Window
	if window > len(f.History) {
		window = len(f.History)
	}
	return mean(f.History[len(f.History)-window:]), nil
}

// GrowthRatio scores how the mean of Recent compares with the mean of History.
// A score of 1.5 means recent values run 50% above the long-run average.
type GrowthRatio struct{}

func (GrowthRatio) Predict(f Features) (float64, error) {
	if len(f.History) == 0 || len(f.Recent) == 0 {
		return 0, ErrInsufficientData
	}
	base := mean(f.History)
	if base == 0 {
		return 0, ErrInsufficientData
	}
	return mean(f.Recent) / base, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
