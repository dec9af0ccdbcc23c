package transit

import (
	"math"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/kentrehber/durak/internal/models"
)

// DefaultJitterBand is the relative spread applied around a base time
const DefaultJitterBand = 0.20

// Estimator turns static base times into slightly varying ETAs so
// repeated views of a stop don't show a frozen number.
type Estimator struct {
	mu   sync.Mutex
	rng  *rand.Rand
	band float64
}

// NewEstimator creates an estimator drawing from src. A negative band
// falls back to DefaultJitterBand.
func NewEstimator(src rand.Source, band float64) *Estimator {
	if band < 0 {
		band = DefaultJitterBand
	}
	return &Estimator{rng: rand.New(src), band: band}
}

// NewSeededEstimator creates an estimator whose output is fully
// determined by seed
func NewSeededEstimator(seed uint64, band float64) *Estimator {
	return NewEstimator(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15), band)
}

// Band returns the relative jitter band
func (e *Estimator) Band() float64 {
	return e.band
}

// Spread returns the maximum deviation in minutes for a base time.
// It is never less than one minute.
func (e *Estimator) Spread(baseMinutes int) int {
	if baseMinutes < 1 {
		baseMinutes = 1
	}
	amp := int(math.Round(float64(baseMinutes) * e.band))
	if amp < 1 {
		amp = 1
	}
	return amp
}

// EstimateArrival returns an ETA in whole minutes within Spread of the
// base time, never below 1 ("arriving now").
func (e *Estimator) EstimateArrival(baseMinutes int) int {
	if baseMinutes < 1 {
		baseMinutes = 1
	}
	amp := float64(e.Spread(baseMinutes))

	e.mu.Lock()
	offset := (e.rng.Float64()*2 - 1) * amp
	e.mu.Unlock()

	minutes := int(math.Round(float64(baseMinutes) + offset))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// Arrivals estimates every line at a stop, soonest first
func (e *Estimator) Arrivals(stop models.Stop) []models.Arrival {
	arrivals := make([]models.Arrival, 0, len(stop.Lines))
	for _, ls := range stop.Lines {
		arrivals = append(arrivals, models.Arrival{
			Line:        ls.Line,
			Route:       ls.Route,
			Color:       ls.Color,
			BaseTime:    ls.BaseTime,
			MinutesAway: e.EstimateArrival(ls.BaseTime),
		})
	}

	sort.SliceStable(arrivals, func(i, j int) bool {
		return arrivals[i].MinutesAway < arrivals[j].MinutesAway
	})

	return arrivals
}
