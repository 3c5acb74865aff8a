package timeline

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/verte-zerg/peloton/internal/model"
)

// DefaultPenaltySeconds places abandoned riders behind the last ranked rider.
const DefaultPenaltySeconds = 300

var (
	// ErrNoStages is returned when interpolating over an empty tour.
	ErrNoStages = errors.New("no stages")
	// ErrEmptyStage is returned when a stage has no ranked riders.
	ErrEmptyStage = errors.New("stage has no riders")
	// ErrMissingRider is returned when a rider has no standing in the left stage.
	ErrMissingRider = errors.New("rider missing from stage")
	// ErrInvalidIndex is returned for a NaN stage index.
	ErrInvalidIndex = errors.New("invalid stage index")
)

// Viewport describes the chart area riders are projected onto.
type Viewport struct {
	WindowSeconds  float64
	PenaltySeconds float64
	MarginLeft     float64
	MarginRight    float64
	Top            float64
	Bottom         float64
}

// Straddle resolves a continuous stage index into the left and right stage
// indexes and the ratio between them. The index is clamped to the tour.
func Straddle(count int, at float64) (left, right int, ratio float64, err error) {
	if count == 0 {
		return 0, 0, 0, ErrNoStages
	}
	if math.IsNaN(at) {
		return 0, 0, 0, ErrInvalidIndex
	}
	last := float64(count - 1)
	if at < 0 {
		at = 0
	}
	if at > last {
		at = last
	}
	floor := math.Floor(at)
	left = int(floor)
	right = left + 1
	if right > count-1 {
		right = count - 1
	}
	return left, right, at - floor, nil
}

// PositionAt interpolates every rider between the two stages straddling at and
// projects them onto the viewport. Riders are ordered back to front, so the
// leader comes last.
func PositionAt(tour *model.Tour, at float64, view Viewport) ([]model.PositionedRider, error) {
	left, right, ratio, err := Straddle(len(tour.Stages), at)
	if err != nil {
		return nil, err
	}
	return position(tour, &tour.Stages[left], &tour.Stages[right], ratio, view)
}

func position(tour *model.Tour, left, right *model.AggregatedStage, ratio float64, view Viewport) ([]model.PositionedRider, error) {
	riders, err := interpolate(left, right, ratio, view.PenaltySeconds)
	if err != nil {
		return nil, err
	}
	start := domainStart(left, right, ratio)
	scale := Scale{
		DomainStart: start,
		DomainEnd:   start + view.WindowSeconds,
		RangeStart:  view.MarginLeft,
		RangeEnd:    view.MarginRight,
	}

	out := make([]model.PositionedRider, 0, len(riders))
	for _, r := range riders {
		summary, ok := tour.Riders[r.name]
		if !ok {
			return nil, fmt.Errorf("%q has no summary: %w", r.name, ErrMissingRider)
		}
		// The tour total says nothing about this frame; Seconds carries the time.
		identity := *summary
		identity.AccumulatedSeconds = 0
		out = append(out, model.PositionedRider{
			Rider:     identity,
			Seconds:   r.seconds,
			X:         scale.Map(r.seconds),
			Y:         Lerp(view.Top, view.Bottom, summary.Lane),
			Jerseys:   r.jerseys,
			Abandoned: r.abandoned,
		})
	}
	return out, nil
}

// domainStart is the interpolated time of the race leader.
func domainStart(left, right *model.AggregatedStage, ratio float64) float64 {
	return Lerp(float64(left.Riders[0].AccumulatedSeconds), float64(right.Riders[0].AccumulatedSeconds), ratio)
}

type interpolated struct {
	name      string
	leftRank  int
	seconds   float64
	jerseys   []model.Jersey
	abandoned bool
}

func interpolate(left, right *model.AggregatedStage, ratio, penalty float64) ([]interpolated, error) {
	if len(left.Riders) == 0 || len(right.Riders) == 0 {
		return nil, ErrEmptyStage
	}
	names := unionNames(left, right)
	lastRight := float64(right.Riders[len(right.Riders)-1].AccumulatedSeconds)

	out := make([]interpolated, 0, len(names))
	for _, name := range names {
		l, ok := left.Rider(name)
		if !ok {
			return nil, fmt.Errorf("%q in %s: %w", name, left.Index, ErrMissingRider)
		}
		leftTime := float64(l.AccumulatedSeconds)
		jerseys := l.Jerseys

		r, present := right.Rider(name)
		rightTime := lastRight + penalty
		if present {
			rightTime = float64(r.AccumulatedSeconds)
			if ratio >= 0.5 {
				jerseys = r.Jerseys
			}
		}
		out = append(out, interpolated{
			name:      name,
			leftRank:  left.ByName[name],
			seconds:   Lerp(leftTime, rightTime, ratio),
			jerseys:   jerseys,
			abandoned: !present,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].seconds == out[j].seconds {
			return out[i].leftRank > out[j].leftRank
		}
		return out[i].seconds > out[j].seconds
	})
	return out, nil
}

func unionNames(left, right *model.AggregatedStage) []string {
	seen := make(map[string]struct{}, len(left.Riders))
	names := make([]string, 0, len(left.Riders))
	for _, stage := range []*model.AggregatedStage{left, right} {
		for _, r := range stage.Riders {
			if _, ok := seen[r.Name]; ok {
				continue
			}
			seen[r.Name] = struct{}{}
			names = append(names, r.Name)
		}
	}
	return names
}
