// Package standings turns published stage results into general classification standings.
package standings

import (
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/verte-zerg/peloton/internal/model"
	"github.com/verte-zerg/peloton/internal/racetime"
)

// DefaultAvatarPattern matches the avatar references of the 2017 dataset.
const DefaultAvatarPattern = `_TDF_2017_RIDER_(\d+).jpg`

// TimeTrialType marks stages that award no time bonus.
const TimeTrialType = "TT"

var bonusByPosition = map[string]int64{
	"1": 10,
	"2": 6,
	"3": 4,
}

// Options controls an aggregation pass.
type Options struct {
	// AvatarPattern is a regexp whose first group is the 1-based rider number.
	AvatarPattern string
	// Rand draws the vertical lane of each rider. Nil seeds from the clock.
	Rand *rand.Rand
}

// TimeBonus returns the seconds deducted for a finishing position on a stage.
func TimeBonus(stageType, position string) int64 {
	if stageType == TimeTrialType {
		return 0
	}
	return bonusByPosition[position]
}

// AvatarIndex extracts the zero-based avatar tile index from an avatar reference.
func AvatarIndex(avatar string, pattern *regexp.Regexp) (int, error) {
	match := pattern.FindStringSubmatch(avatar)
	if len(match) < 2 {
		return 0, fmt.Errorf("no rider number in avatar %q", avatar)
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, fmt.Errorf("invalid rider number in avatar %q: %w", avatar, err)
	}
	return n - 1, nil
}

// Aggregate computes accumulated times for every stage in order.
// The input stages are not modified.
func Aggregate(stages []model.Stage, opts Options) (*model.Tour, error) {
	pattern := opts.AvatarPattern
	if pattern == "" {
		pattern = DefaultAvatarPattern
	}
	avatarRe, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid avatar pattern: %w", err)
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	tour := &model.Tour{
		Stages: make([]model.AggregatedStage, 0, len(stages)),
		Riders: make(map[string]*model.RiderSummary),
	}
	for i, stage := range stages {
		agg, err := aggregateStage(tour, i, stage, avatarRe, rnd)
		if err != nil {
			return nil, err
		}
		tour.Stages = append(tour.Stages, agg)
	}
	return tour, nil
}

func aggregateStage(tour *model.Tour, ordinal int, stage model.Stage, avatarRe *regexp.Regexp, rnd *rand.Rand) (model.AggregatedStage, error) {
	riders := make([]model.StandingRider, 0, len(stage.Riders))
	for _, result := range stage.Riders {
		summary, ok := tour.Riders[result.Name]
		if !ok {
			idx, err := AvatarIndex(result.Avatar, avatarRe)
			if err != nil {
				return model.AggregatedStage{}, fmt.Errorf("stage %q, rider %q: %w", stage.Index, result.Name, err)
			}
			summary = &model.RiderSummary{
				Name:        result.Name,
				Team:        result.Team,
				AvatarIndex: idx,
				Flag:        result.Flag,
				Country:     result.Country,
				Lane:        rnd.Float64(),
			}
			tour.Riders[result.Name] = summary
			if idx > tour.MaxAvatarIndex {
				tour.MaxAvatarIndex = idx
			}
		}

		stageSeconds, err := racetime.ParseFieldTime(result.FieldTime)
		if err != nil {
			return model.AggregatedStage{}, fmt.Errorf("stage %q, rider %q: %w", stage.Index, result.Name, err)
		}
		bonus := TimeBonus(stage.Type, result.Position)
		summary.AccumulatedSeconds += stageSeconds - bonus

		row := model.StandingRider{
			RiderResult:        result,
			StageSeconds:       stageSeconds,
			Bonus:              bonus,
			AccumulatedSeconds: summary.AccumulatedSeconds,
		}
		row.Jerseys = append([]model.Jersey(nil), result.Jerseys...)
		riders = append(riders, row)
	}

	sort.SliceStable(riders, func(i, j int) bool {
		return riders[i].AccumulatedSeconds < riders[j].AccumulatedSeconds
	})
	byName := make(map[string]int, len(riders))
	for i, r := range riders {
		byName[r.Name] = i
	}

	return model.AggregatedStage{
		Ordinal:     ordinal,
		Index:       stage.Index,
		Description: stage.Description,
		Type:        stage.Type,
		Date:        stage.Date,
		Riders:      riders,
		ByName:      byName,
	}, nil
}

// Leader returns the rider with the lowest accumulated time on a stage.
func Leader(stage model.AggregatedStage) (model.StandingRider, bool) {
	if len(stage.Riders) == 0 {
		return model.StandingRider{}, false
	}
	return stage.Riders[0], true
}

// Reindex rebuilds the name lookup of every stage, e.g. after decoding.
func Reindex(tour *model.Tour) {
	for i := range tour.Stages {
		stage := &tour.Stages[i]
		stage.ByName = make(map[string]int, len(stage.Riders))
		for j, r := range stage.Riders {
			stage.ByName[r.Name] = j
		}
	}
}
