package standings

import "github.com/verte-zerg/peloton/internal/model"

// HistoryPoint is a rider's general classification after one stage.
type HistoryPoint struct {
	Ordinal            int
	Stage              string
	Rank               int
	AccumulatedSeconds int64
	GapSeconds         int64
}

// History lists a rider's rank and gap to the leader for every stage they finished.
func History(tour *model.Tour, name string) []HistoryPoint {
	var points []HistoryPoint
	for _, stage := range tour.Stages {
		rider, ok := stage.Rider(name)
		if !ok {
			continue
		}
		leader, _ := Leader(stage)
		points = append(points, HistoryPoint{
			Ordinal:            stage.Ordinal,
			Stage:              stage.Index,
			Rank:               stage.ByName[name] + 1,
			AccumulatedSeconds: rider.AccumulatedSeconds,
			GapSeconds:         rider.AccumulatedSeconds - leader.AccumulatedSeconds,
		})
	}
	return points
}
