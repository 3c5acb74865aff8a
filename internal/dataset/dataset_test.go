package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/peloton/internal/model"
)

const sampleDataset = `[
  {
    "index": "Stage 1",
    "description": "Düsseldorf > Düsseldorf",
    "type": "TT",
    "date": "01/07/2017",
    "riders": [
      {"position": "1", "name": "GERAINT THOMAS", "team": "TEAM SKY", "avatar": "/img/_TDF_2017_RIDER_5.jpg",
       "flag": "gbr.png", "country": "GBR", "fieldTime": "00:16:04", "fieldGap": "",
       "jerseys": [{"imgSrc": "yellow.png", "description": "Yellow Jersey"}]},
      {"position": "2", "name": "STEFAN KÜNG", "team": "BMC", "avatar": "/img/_TDF_2017_RIDER_17.jpg",
       "flag": "sui.png", "country": "SUI", "fieldTime": "00:16:09", "fieldGap": "+00:00:05", "jerseys": []}
    ]
  },
  {
    "index": "Stage 2",
    "description": "Düsseldorf > Liège",
    "type": "Flat",
    "date": "02/07/2017",
    "riders": [
      {"position": "1", "name": "STEFAN KÜNG", "team": "BMC", "avatar": "/img/_TDF_2017_RIDER_17.jpg",
       "flag": "sui.png", "country": "SUI", "fieldTime": "04:37:06", "fieldGap": "", "jerseys": []}
    ]
  }
]`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tour.json")
	if err := os.WriteFile(path, []byte(sampleDataset), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	stages, err := Load(context.Background(), writeSample(t), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(stages) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(stages))
	}
	first := stages[0].Riders[0]
	if first.Name != "GERAINT THOMAS" || first.FieldTime != "00:16:04" {
		t.Fatalf("unexpected first rider: %+v", first)
	}
	if len(first.Jerseys) != 1 || first.Jerseys[0].Description != "Yellow Jersey" {
		t.Fatalf("unexpected jerseys: %+v", first.Jerseys)
	}
}

func TestLoadFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tdf2017.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleDataset))
	}))
	defer srv.Close()

	stages, err := Load(context.Background(), srv.URL+"/tdf2017.json", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(stages) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(stages))
	}
	if _, err := Load(context.Background(), srv.URL+"/missing.json", nil); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestLoadRejectsInvalidRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	data := `[{"index": "Stage 1", "riders": [{"name": "A", "avatar": "x", "fieldTime": ""}]}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(context.Background(), path, nil); err == nil || !strings.Contains(err.Error(), "FieldTime") {
		t.Fatalf("expected FieldTime validation error, got %v", err)
	}
	if err := Validate(nil); !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "none.json"), nil); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestMergeStages(t *testing.T) {
	dir := t.TempDir()
	var stages []model.Stage
	if err := json.Unmarshal([]byte(sampleDataset), &stages); err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	for i, stage := range stages {
		data, err := json.Marshal(stage)
		if err != nil {
			t.Fatalf("encode stage: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, StageFileName(i+1)), data, 0o644); err != nil {
			t.Fatalf("write stage: %v", err)
		}
	}

	merged, err := ReadStages(dir, 2)
	if err != nil {
		t.Fatalf("ReadStages failed: %v", err)
	}
	out := filepath.Join(dir, "out", "tour.json")
	if err := WriteFile(out, merged); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	loaded, err := Load(context.Background(), out, nil)
	if err != nil {
		t.Fatalf("Load merged failed: %v", err)
	}
	if len(loaded) != 2 || loaded[1].Index != "Stage 2" {
		t.Fatalf("unexpected merged dataset: %+v", loaded)
	}
	if _, err := ReadStages(dir, 3); err == nil {
		t.Fatalf("expected error for missing stage-3.json")
	}
}

func TestRiderNamesAndAvatars(t *testing.T) {
	var stages []model.Stage
	if err := json.Unmarshal([]byte(sampleDataset), &stages); err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	names := RiderNames(stages)
	if len(names) != 2 || names[0] != "GERAINT THOMAS" || names[1] != "STEFAN KÜNG" {
		t.Fatalf("unexpected names: %v", names)
	}
	avatars, err := Avatars(stages, `_TDF_2017_RIDER_(\d+).jpg`)
	if err != nil {
		t.Fatalf("Avatars failed: %v", err)
	}
	if len(avatars) != 2 || avatars[0].Number != 5 || avatars[1].Number != 17 {
		t.Fatalf("unexpected avatars: %+v", avatars)
	}
	data, err := json.Marshal(avatars[:1])
	if err != nil {
		t.Fatalf("marshal avatars: %v", err)
	}
	if string(data) != `[[5,"/img/_TDF_2017_RIDER_5.jpg"]]` {
		t.Fatalf("unexpected avatar json: %s", data)
	}
}

func TestAvatarsRejectsReferenceWithoutNumber(t *testing.T) {
	stages := []model.Stage{{Index: "Stage 1", Riders: []model.RiderResult{
		{Name: "A", Avatar: "/img/_TDF_2017_RIDER_3.jpg"},
		{Name: "B", Avatar: "/img/unknown.png"},
	}}}
	_, err := Avatars(stages, `_TDF_2017_RIDER_(\d+).jpg`)
	if err == nil || !strings.Contains(err.Error(), "no rider number") || !strings.Contains(err.Error(), `"B"`) {
		t.Fatalf("expected missing number error for B, got %v", err)
	}
	avatars, err := Avatars(stages[:0], `(\d+)`)
	if err != nil || len(avatars) != 0 {
		t.Fatalf("expected no avatars, got %v %v", avatars, err)
	}
}
