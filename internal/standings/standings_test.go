package standings

import (
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/verte-zerg/peloton/internal/model"
)

func rider(position, name, fieldTime string, number int) model.RiderResult {
	return model.RiderResult{
		Position:  position,
		Name:      name,
		Team:      "Team " + name,
		Avatar:    "https://img.example/_TDF_2017_RIDER_" + strconv.Itoa(number) + ".jpg",
		FieldTime: fieldTime,
	}
}

func testOptions() Options {
	return Options{Rand: rand.New(rand.NewSource(1))}
}

func TestTimeBonus(t *testing.T) {
	cases := []struct {
		stageType string
		position  string
		want      int64
	}{
		{"Flat", "1", 10},
		{"Flat", "2", 6},
		{"Flat", "3", 4},
		{"Flat", "4", 0},
		{"Flat", "DNF", 0},
		{"Flat", "01", 0},
		{"Mountain", " 1", 0},
		{"TT", "1", 0},
		{"TT", "2", 0},
		{"TT", "3", 0},
	}
	for _, tc := range cases {
		if got := TimeBonus(tc.stageType, tc.position); got != tc.want {
			t.Fatalf("TimeBonus(%q, %q) = %d, want %d", tc.stageType, tc.position, got, tc.want)
		}
	}
}

func TestAvatarIndexIsZeroBased(t *testing.T) {
	re := regexp.MustCompile(DefaultAvatarPattern)
	idx, err := AvatarIndex("/sites/default/files/_TDF_2017_RIDER_42.jpg", re)
	if err != nil {
		t.Fatalf("AvatarIndex failed: %v", err)
	}
	if idx != 41 {
		t.Fatalf("expected index 41, got %d", idx)
	}
	if _, err := AvatarIndex("/img/unknown.png", re); err == nil {
		t.Fatalf("expected error for avatar without rider number")
	}
}

func TestAggregateAccumulatesAcrossStages(t *testing.T) {
	stages := []model.Stage{
		{Index: "Stage 1", Type: "Flat", Riders: []model.RiderResult{
			rider("4", "A", "04:30:10", 1),
		}},
		{Index: "Stage 2", Type: "Flat", Riders: []model.RiderResult{
			rider("5", "A", "05:00:00", 1),
		}},
	}
	tour, err := Aggregate(stages, testOptions())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	got, ok := tour.Stages[1].Rider("A")
	if !ok {
		t.Fatalf("expected rider A in stage 2")
	}
	if got.AccumulatedSeconds != 34210 {
		t.Fatalf("expected 34210 seconds, got %d", got.AccumulatedSeconds)
	}
	if tour.Riders["A"].AccumulatedSeconds != 34210 {
		t.Fatalf("expected summary to hold 34210 seconds, got %d", tour.Riders["A"].AccumulatedSeconds)
	}
	first, _ := tour.Stages[0].Rider("A")
	if first.AccumulatedSeconds != 16210 {
		t.Fatalf("expected stage 1 time 16210, got %d", first.AccumulatedSeconds)
	}
}

func TestAggregateAppliesBonusesExceptTimeTrials(t *testing.T) {
	stages := []model.Stage{
		{Index: "Stage 1", Type: "TT", Riders: []model.RiderResult{
			rider("1", "A", "00:20:00", 1),
			rider("2", "B", "00:20:03", 2),
		}},
		{Index: "Stage 2", Type: "Flat", Riders: []model.RiderResult{
			rider("1", "B", "04:00:00", 2),
			rider("2", "A", "04:00:00", 1),
		}},
	}
	tour, err := Aggregate(stages, testOptions())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	a, _ := tour.Stages[1].Rider("A")
	b, _ := tour.Stages[1].Rider("B")
	if a.AccumulatedSeconds != 1200+14400-6 {
		t.Fatalf("unexpected time for A: %d", a.AccumulatedSeconds)
	}
	if b.AccumulatedSeconds != 1203+14400-10 {
		t.Fatalf("unexpected time for B: %d", b.AccumulatedSeconds)
	}
	if tour.Stages[1].Riders[0].Name != "B" {
		t.Fatalf("expected B to lead after bonuses, got %s", tour.Stages[1].Riders[0].Name)
	}
}

func TestAggregateSortsEveryStage(t *testing.T) {
	stages := []model.Stage{
		{Index: "Stage 1", Type: "Flat", Riders: []model.RiderResult{
			rider("1", "A", "04:00:00", 1),
			rider("2", "B", "04:00:00", 2),
			rider("3", "C", "04:01:00", 3),
		}},
		{Index: "Stage 2", Type: "Flat", Riders: []model.RiderResult{
			rider("1", "C", "03:50:00", 3),
			rider("2", "B", "03:52:00", 2),
			rider("3", "A", "03:55:00", 1),
		}},
	}
	tour, err := Aggregate(stages, testOptions())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	for _, stage := range tour.Stages {
		for i := 1; i < len(stage.Riders); i++ {
			if stage.Riders[i-1].AccumulatedSeconds > stage.Riders[i].AccumulatedSeconds {
				t.Fatalf("stage %s not sorted at %d", stage.Index, i)
			}
		}
		for name, idx := range stage.ByName {
			if stage.Riders[idx].Name != name {
				t.Fatalf("lookup for %s points at %s", name, stage.Riders[idx].Name)
			}
		}
	}
	if got := tour.Stages[1].Riders[0].Name; got != "C" {
		t.Fatalf("expected C to lead after stage 2, got %s", got)
	}
}

func TestAggregateDoesNotMutateInput(t *testing.T) {
	stages := []model.Stage{
		{Index: "Stage 1", Type: "Flat", Riders: []model.RiderResult{
			rider("2", "B", "04:00:10", 2),
			rider("1", "A", "04:00:00", 1),
		}},
	}
	if _, err := Aggregate(stages, testOptions()); err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if stages[0].Riders[0].Name != "B" {
		t.Fatalf("input riders were reordered")
	}
}

func TestAggregateKeepsIdentityAndLanes(t *testing.T) {
	stages := []model.Stage{
		{Index: "Stage 1", Type: "Flat", Riders: []model.RiderResult{
			rider("1", "A", "04:00:00", 7),
			rider("2", "B", "04:00:10", 12),
		}},
		{Index: "Stage 2", Type: "Flat", Riders: []model.RiderResult{
			rider("1", "A", "04:00:00", 7),
		}},
	}
	tour, err := Aggregate(stages, testOptions())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(tour.Riders) != 2 {
		t.Fatalf("expected 2 riders, got %d", len(tour.Riders))
	}
	if tour.Riders["A"].AvatarIndex != 6 || tour.Riders["B"].AvatarIndex != 11 {
		t.Fatalf("unexpected avatar indexes: %+v %+v", tour.Riders["A"], tour.Riders["B"])
	}
	if tour.MaxAvatarIndex != 11 {
		t.Fatalf("expected max avatar index 11, got %d", tour.MaxAvatarIndex)
	}
	for name, summary := range tour.Riders {
		if summary.Lane < 0 || summary.Lane >= 1 {
			t.Fatalf("lane for %s out of range: %f", name, summary.Lane)
		}
	}
	// B abandoned after stage 1 and stops accumulating, keeping the 6s bonus.
	if tour.Riders["B"].AccumulatedSeconds != 4*3600+10-6 {
		t.Fatalf("unexpected time for abandoned rider: %d", tour.Riders["B"].AccumulatedSeconds)
	}
}

func TestAggregateFailsOnMalformedRows(t *testing.T) {
	badTime := []model.Stage{{Index: "Stage 1", Riders: []model.RiderResult{rider("1", "A", "DNF", 1)}}}
	if _, err := Aggregate(badTime, testOptions()); err == nil || !strings.Contains(err.Error(), "field time") {
		t.Fatalf("expected field time error, got %v", err)
	}
	badAvatar := []model.Stage{{Index: "Stage 1", Riders: []model.RiderResult{{Name: "A", Avatar: "x.png", FieldTime: "01:00:00"}}}}
	if _, err := Aggregate(badAvatar, testOptions()); err == nil || !strings.Contains(err.Error(), "avatar") {
		t.Fatalf("expected avatar error, got %v", err)
	}
	if _, err := Aggregate(nil, Options{AvatarPattern: "("}); err == nil {
		t.Fatalf("expected error for invalid pattern")
	}
}

func TestHistory(t *testing.T) {
	stages := []model.Stage{
		{Index: "Stage 1", Type: "Flat", Riders: []model.RiderResult{
			rider("4", "A", "04:00:00", 1),
			rider("5", "B", "04:01:00", 2),
		}},
		{Index: "Stage 2", Type: "Flat", Riders: []model.RiderResult{
			rider("4", "B", "04:00:00", 2),
			rider("5", "A", "04:02:00", 1),
		}},
	}
	tour, err := Aggregate(stages, testOptions())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	points := History(tour, "A")
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Rank != 1 || points[0].GapSeconds != 0 {
		t.Fatalf("unexpected first point: %+v", points[0])
	}
	if points[1].Rank != 2 || points[1].GapSeconds != 60 {
		t.Fatalf("unexpected second point: %+v", points[1])
	}
	if got := History(tour, "nobody"); len(got) != 0 {
		t.Fatalf("expected no history for unknown rider")
	}
}
