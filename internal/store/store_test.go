package store

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/verte-zerg/peloton/internal/model"
	"github.com/verte-zerg/peloton/internal/standings"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "peloton.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func sampleTour(t *testing.T) *model.Tour {
	t.Helper()
	stages := []model.Stage{
		{Index: "Stage 1", Description: "Prologue", Type: "TT", Date: "Jul 1", Riders: []model.RiderResult{
			{Position: "1", Name: "A", Team: "Sky", Avatar: "_TDF_2017_RIDER_1.jpg", FieldTime: "00:14:00",
				Jerseys: []model.Jersey{{ImgSrc: "y.png", Description: "Yellow Jersey"}, {ImgSrc: "w.png", Description: "White Jersey"}}},
			{Position: "2", Name: "B", Team: "BMC", Avatar: "_TDF_2017_RIDER_9.jpg", FieldTime: "00:14:05"},
		}},
		{Index: "Stage 2", Description: "Flat", Type: "Flat", Date: "Jul 2", Riders: []model.RiderResult{
			{Position: "1", Name: "B", Team: "BMC Racing", Country: "SUI", Avatar: "_TDF_2017_RIDER_9.jpg", FieldTime: "04:00:00",
				Jerseys: []model.Jersey{{ImgSrc: "y.png", Description: "Yellow Jersey"}}},
		}},
	}
	tour, err := standings.Aggregate(stages, standings.Options{Rand: rand.New(rand.NewSource(3))})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	return tour
}

func TestLoadTourEmpty(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.LoadTour(context.Background()); !errors.Is(err, ErrNoTour) {
		t.Fatalf("expected ErrNoTour, got %v", err)
	}
}

func TestSaveAndLoadTour(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	want := sampleTour(t)
	if err := st.SaveTour(ctx, want); err != nil {
		t.Fatalf("save tour: %v", err)
	}
	// Saving twice replaces instead of duplicating.
	if err := st.SaveTour(ctx, want); err != nil {
		t.Fatalf("save tour again: %v", err)
	}

	got, err := st.LoadTour(ctx)
	if err != nil {
		t.Fatalf("load tour: %v", err)
	}
	if len(got.Stages) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(got.Stages))
	}
	if got.MaxAvatarIndex != 8 {
		t.Fatalf("expected max avatar index 8, got %d", got.MaxAvatarIndex)
	}
	for name, summary := range want.Riders {
		loaded, ok := got.Riders[name]
		if !ok {
			t.Fatalf("rider %s missing", name)
		}
		if *loaded != *summary {
			t.Fatalf("rider %s differs: %+v vs %+v", name, loaded, summary)
		}
	}
	for i, stage := range want.Stages {
		loaded := got.Stages[i]
		if loaded.Title() != stage.Title() || loaded.Type != stage.Type || loaded.Date != stage.Date {
			t.Fatalf("stage header differs: %+v", loaded)
		}
		if len(loaded.Riders) != len(stage.Riders) {
			t.Fatalf("stage %d rider count %d, want %d", i, len(loaded.Riders), len(stage.Riders))
		}
		for j, r := range stage.Riders {
			lr := loaded.Riders[j]
			if lr.Name != r.Name || lr.AccumulatedSeconds != r.AccumulatedSeconds || lr.Bonus != r.Bonus {
				t.Fatalf("stage %d rank %d differs: %+v vs %+v", i, j, lr, r)
			}
			if len(lr.Jerseys) != len(r.Jerseys) {
				t.Fatalf("stage %d rider %s jerseys %v, want %v", i, r.Name, lr.Jerseys, r.Jerseys)
			}
			if idx, ok := loaded.ByName[r.Name]; !ok || idx != j {
				t.Fatalf("lookup not rebuilt for %s", r.Name)
			}
		}
	}
	a, _ := got.Stages[0].Rider("A")
	if a.Jerseys[0].Description != "Yellow Jersey" || a.Jerseys[1].Description != "White Jersey" {
		t.Fatalf("jersey order not preserved: %+v", a.Jerseys)
	}
}

func TestSaveTourKeepsPerStageTeam(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if err := st.SaveTour(ctx, sampleTour(t)); err != nil {
		t.Fatalf("save tour: %v", err)
	}
	got, err := st.LoadTour(ctx)
	if err != nil {
		t.Fatalf("load tour: %v", err)
	}
	before, _ := got.Stages[0].Rider("B")
	after, _ := got.Stages[1].Rider("B")
	if before.Team != "BMC" || before.Country != "" {
		t.Fatalf("stage 1 identity changed: %+v", before.RiderResult)
	}
	if after.Team != "BMC Racing" || after.Country != "SUI" {
		t.Fatalf("stage 2 identity lost: %+v", after.RiderResult)
	}
}

func TestOpenAddsMissingStandingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE standings (
		stage INTEGER NOT NULL,
		rank INTEGER NOT NULL,
		name TEXT NOT NULL,
		position TEXT NOT NULL,
		avatar TEXT NOT NULL,
		field_time TEXT NOT NULL,
		field_gap TEXT NOT NULL,
		stage_s INTEGER NOT NULL,
		bonus_s INTEGER NOT NULL,
		accumulated_s INTEGER NOT NULL,
		PRIMARY KEY (stage, name)
	)`); err != nil {
		t.Fatalf("create old table: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close raw db: %v", err)
	}

	st, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	ctx := context.Background()
	if err := st.SaveTour(ctx, sampleTour(t)); err != nil {
		t.Fatalf("save tour after upgrade: %v", err)
	}
	got, err := st.LoadTour(ctx)
	if err != nil {
		t.Fatalf("load tour: %v", err)
	}
	if b, _ := got.Stages[1].Rider("B"); b.Team != "BMC Racing" {
		t.Fatalf("expected upgraded table to store team, got %q", b.Team)
	}
}
