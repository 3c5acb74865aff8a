package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/verte-zerg/peloton/internal/model"
	"github.com/verte-zerg/peloton/internal/racetime"
	"github.com/verte-zerg/peloton/internal/standings"
)

// ErrUnknownRider is returned when a history is requested for a rider not in the tour.
var ErrUnknownRider = errors.New("unknown rider")

// Standings writes the general classification after one stage. A positive
// top limits the number of rows.
func Standings(w io.Writer, stage *model.AggregatedStage, top int) error {
	if _, err := fmt.Fprintln(w, stage.Title()); err != nil {
		return err
	}
	if stage.Date != "" {
		if _, err := fmt.Fprintln(w, stage.Date); err != nil {
			return err
		}
	}
	riders := stage.Riders
	if top > 0 && len(riders) > top {
		riders = riders[:top]
	}
	var leader int64
	if len(stage.Riders) > 0 {
		leader = stage.Riders[0].AccumulatedSeconds
	}

	headers := []string{"Rank", "Rider", "Team", "Time", "Gap", "Bonus"}
	rows := make([][]string, 0, len(riders))
	for i, r := range riders {
		elapsed, err := racetime.FormatDuration(r.AccumulatedSeconds)
		if err != nil {
			return fmt.Errorf("rider %s: %w", r.Name, err)
		}
		bonus := ""
		if r.Bonus > 0 {
			bonus = "-" + strconv.FormatInt(r.Bonus, 10) + "s"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.Name,
			r.Team,
			elapsed,
			racetime.FormatGap(r.AccumulatedSeconds, leader),
			bonus,
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{0: true, 3: true, 4: true, 5: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// History plots a rider's rank and gap to the leader across stages.
func History(w io.Writer, tour *model.Tour, name string, width int) error {
	points := standings.History(tour, name)
	if len(points) == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRider, name)
	}
	ranks := make([]float64, len(points))
	gaps := make([]float64, len(points))
	for i, p := range points {
		ranks[i] = float64(p.Rank)
		gaps[i] = float64(p.GapSeconds)
	}
	first, last := points[0], points[len(points)-1]
	title := fmt.Sprintf("%s: %s to %s", name, first.Stage, last.Stage)
	series := []Series{
		{Name: "Rank", Values: ranks, Inverted: true},
		{Name: "Gap to leader", Values: gaps, Inverted: true, Format: formatGapLabel},
	}
	if err := Plot(w, title, series, width, 0); err != nil {
		return err
	}
	elapsed, err := racetime.FormatDuration(last.AccumulatedSeconds)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Final: rank %d, %s (%s)\n", last.Rank, elapsed,
		racetime.FormatGap(last.GapSeconds, 0))
	return err
}

func formatGapLabel(v float64) string {
	s, err := racetime.FormatDuration(int64(v))
	if err != nil {
		return "?"
	}
	return "+" + s
}
