package timeline

import "github.com/verte-zerg/peloton/internal/model"

// Frame is everything a renderer needs to draw one animation tick.
type Frame struct {
	At          float64                 `json:"at"`
	Left        int                     `json:"left"`
	Right       int                     `json:"right"`
	Ratio       float64                 `json:"ratio"`
	Title       string                  `json:"title"`
	Date        string                  `json:"date"`
	DomainStart float64                 `json:"domainStart"`
	DomainEnd   float64                 `json:"domainEnd"`
	Scale       Scale                   `json:"-"`
	Riders      []model.PositionedRider `json:"riders"`
}

// FrameAt builds the frame for a continuous stage index.
func FrameAt(tour *model.Tour, at float64, view Viewport) (Frame, error) {
	left, right, ratio, err := Straddle(len(tour.Stages), at)
	if err != nil {
		return Frame{}, err
	}
	ls, rs := &tour.Stages[left], &tour.Stages[right]
	riders, err := position(tour, ls, rs, ratio, view)
	if err != nil {
		return Frame{}, err
	}

	nearer := ls
	if ratio >= 0.5 {
		nearer = rs
	}
	start := domainStart(ls, rs, ratio)
	return Frame{
		At:          float64(left) + ratio,
		Left:        left,
		Right:       right,
		Ratio:       ratio,
		Title:       nearer.Title(),
		Date:        nearer.Date,
		DomainStart: start,
		DomainEnd:   start + view.WindowSeconds,
		Scale: Scale{
			DomainStart: start,
			DomainEnd:   start + view.WindowSeconds,
			RangeStart:  view.MarginLeft,
			RangeEnd:    view.MarginRight,
		},
		Riders: riders,
	}, nil
}
