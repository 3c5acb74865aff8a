// Package store handles SQLite persistence of an aggregated tour.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"github.com/verte-zerg/peloton/internal/model"
	"github.com/verte-zerg/peloton/internal/standings"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNoTour is returned when nothing has been imported yet.
var ErrNoTour = errors.New("no tour imported")

// Store wraps SQLite access for tour data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS stages (
			ordinal INTEGER PRIMARY KEY,
			label TEXT NOT NULL,
			description TEXT NOT NULL,
			type TEXT NOT NULL,
			date TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS riders (
			name TEXT PRIMARY KEY,
			team TEXT NOT NULL,
			avatar_index INTEGER NOT NULL,
			flag TEXT NOT NULL,
			country TEXT NOT NULL,
			accumulated_s INTEGER NOT NULL,
			lane REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS standings (
			stage INTEGER NOT NULL,
			rank INTEGER NOT NULL,
			name TEXT NOT NULL,
			team TEXT NOT NULL DEFAULT '',
			flag TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			position TEXT NOT NULL,
			avatar TEXT NOT NULL,
			field_time TEXT NOT NULL,
			field_gap TEXT NOT NULL,
			stage_s INTEGER NOT NULL,
			bonus_s INTEGER NOT NULL,
			accumulated_s INTEGER NOT NULL,
			PRIMARY KEY (stage, name)
		);`,
		`CREATE TABLE IF NOT EXISTS jerseys (
			stage INTEGER NOT NULL,
			name TEXT NOT NULL,
			seq INTEGER NOT NULL,
			img_src TEXT NOT NULL,
			description TEXT NOT NULL,
			PRIMARY KEY (stage, name, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_standings_name ON standings(name);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	// Databases created before per-stage identity was stored lack these.
	for _, column := range []string{"team", "flag", "country"} {
		if err := s.addColumn("standings", column); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) addColumn(table, column string) error {
	rows, err := s.db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return err
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	_, err = s.db.Exec("ALTER TABLE " + table + " ADD COLUMN " + column + " TEXT NOT NULL DEFAULT ''")
	return err
}

// SaveTour replaces the stored tour with the given one.
func (s *Store) SaveTour(ctx context.Context, tour *model.Tour) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	for _, table := range []string{"jerseys", "standings", "riders", "stages"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}

	for _, r := range tour.Riders {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO riders (name, team, avatar_index, flag, country, accumulated_s, lane)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.Name, r.Team, r.AvatarIndex, r.Flag, r.Country, r.AccumulatedSeconds, r.Lane,
		); err != nil {
			return err
		}
	}

	for _, stage := range tour.Stages {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO stages (ordinal, label, description, type, date) VALUES (?, ?, ?, ?, ?)`,
			stage.Ordinal, stage.Index, stage.Description, stage.Type, stage.Date,
		); err != nil {
			return err
		}
		for rank, r := range stage.Riders {
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO standings (stage, rank, name, team, flag, country, position, avatar, field_time, field_gap, stage_s, bonus_s, accumulated_s)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				stage.Ordinal, rank, r.Name, r.Team, r.Flag, r.Country, r.Position, r.Avatar, r.FieldTime, r.FieldGap,
				r.StageSeconds, r.Bonus, r.AccumulatedSeconds,
			); err != nil {
				return err
			}
			for seq, j := range r.Jerseys {
				if _, err = tx.ExecContext(ctx,
					`INSERT INTO jerseys (stage, name, seq, img_src, description) VALUES (?, ?, ?, ?, ?)`,
					stage.Ordinal, r.Name, seq, j.ImgSrc, j.Description,
				); err != nil {
					return err
				}
			}
		}
	}

	return tx.Commit()
}

// LoadTour reads the stored tour back, including rider lanes.
func (s *Store) LoadTour(ctx context.Context) (*model.Tour, error) {
	tour := &model.Tour{Riders: map[string]*model.RiderSummary{}}
	if err := s.loadRiders(ctx, tour); err != nil {
		return nil, err
	}
	if err := s.loadStages(ctx, tour); err != nil {
		return nil, err
	}
	if len(tour.Stages) == 0 {
		return nil, ErrNoTour
	}
	if err := s.loadStandings(ctx, tour); err != nil {
		return nil, err
	}
	if err := s.loadJerseys(ctx, tour); err != nil {
		return nil, err
	}
	standings.Reindex(tour)
	return tour, nil
}

func (s *Store) loadRiders(ctx context.Context, tour *model.Tour) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, team, avatar_index, flag, country, accumulated_s, lane FROM riders`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	for rows.Next() {
		var r model.RiderSummary
		if err := rows.Scan(&r.Name, &r.Team, &r.AvatarIndex, &r.Flag, &r.Country, &r.AccumulatedSeconds, &r.Lane); err != nil {
			return err
		}
		if r.AvatarIndex > tour.MaxAvatarIndex {
			tour.MaxAvatarIndex = r.AvatarIndex
		}
		tour.Riders[r.Name] = &r
	}
	return rows.Err()
}

func (s *Store) loadStages(ctx context.Context, tour *model.Tour) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ordinal, label, description, type, date FROM stages ORDER BY ordinal ASC`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	for rows.Next() {
		var st model.AggregatedStage
		if err := rows.Scan(&st.Ordinal, &st.Index, &st.Description, &st.Type, &st.Date); err != nil {
			return err
		}
		tour.Stages = append(tour.Stages, st)
	}
	return rows.Err()
}

func (s *Store) loadStandings(ctx context.Context, tour *model.Tour) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, name, team, flag, country, position, avatar, field_time, field_gap, stage_s, bonus_s, accumulated_s
		 FROM standings ORDER BY stage ASC, rank ASC`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	byOrdinal := stageSlots(tour)
	for rows.Next() {
		var ordinal int
		var r model.StandingRider
		if err := rows.Scan(&ordinal, &r.Name, &r.Team, &r.Flag, &r.Country, &r.Position, &r.Avatar, &r.FieldTime, &r.FieldGap,
			&r.StageSeconds, &r.Bonus, &r.AccumulatedSeconds); err != nil {
			return err
		}
		st, ok := byOrdinal[ordinal]
		if !ok {
			continue
		}
		st.Riders = append(st.Riders, r)
	}
	return rows.Err()
}

func (s *Store) loadJerseys(ctx context.Context, tour *model.Tour) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, name, img_src, description FROM jerseys ORDER BY stage ASC, name ASC, seq ASC`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	byOrdinal := stageSlots(tour)
	index := map[int]map[string]int{}
	for rows.Next() {
		var ordinal int
		var name string
		var j model.Jersey
		if err := rows.Scan(&ordinal, &name, &j.ImgSrc, &j.Description); err != nil {
			return err
		}
		st, ok := byOrdinal[ordinal]
		if !ok {
			continue
		}
		if _, ok := index[ordinal]; !ok {
			index[ordinal] = make(map[string]int, len(st.Riders))
			for i, r := range st.Riders {
				index[ordinal][r.Name] = i
			}
		}
		if i, ok := index[ordinal][name]; ok {
			st.Riders[i].Jerseys = append(st.Riders[i].Jerseys, j)
		}
	}
	return rows.Err()
}

func stageSlots(tour *model.Tour) map[int]*model.AggregatedStage {
	out := make(map[int]*model.AggregatedStage, len(tour.Stages))
	for i := range tour.Stages {
		out[tour.Stages[i].Ordinal] = &tour.Stages[i]
	}
	return out
}
