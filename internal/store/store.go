// Package store keeps remapping datasets in SQLite so that runs can be
// inspected with ordinary SQL tooling.
package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/remapgen/internal/dataset"
	"github.com/banshee-data/remapgen/internal/monitoring"
	"github.com/banshee-data/remapgen/internal/remap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding remapping runs.
type Store struct {
	*sql.DB
}

// Run is one saved remapping dataset.
type Run struct {
	ID         string
	Case       int64
	Source     string
	PolyIDs    int
	Intersects int
}

// Intersect is one saved intersect row. Grid indices and ID_HR are nil when
// the run's case did not produce them.
type Intersect struct {
	IDMask int64
	Weight float64
	IIndex *int64
	JIndex *int64
	IDHR   *int64
}

// Open opens (creating if needed) the database at path and migrates it to the
// latest schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// MigrateUp applies pending migrations. Already being at the latest version
// is not an error.
func (s *Store) MigrateUp() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	// Closing m would close the underlying DB connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the current migration version and dirty state.
func (s *Store) MigrateVersion() (version uint, dirty bool, err error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if err != nil && errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// Save stores ds under a new run id and returns it. source names the input
// the dataset was built from.
func (s *Store) Save(ds *dataset.Dataset, source string) (string, error) {
	c, err := remap.CaseOf(ds)
	if err != nil {
		return "", err
	}
	rnID, err := ds.Int64s(remap.VarRNID)
	if err != nil {
		return "", err
	}
	rnFR, err := ds.Int64s(remap.VarRNFR)
	if err != nil {
		return "", err
	}
	idMask, err := ds.Int64s(remap.VarIDMask)
	if err != nil {
		return "", err
	}
	weight, err := ds.Float64s(remap.VarWeight)
	if err != nil {
		return "", err
	}
	iIndex := optionalInts(ds, remap.VarIIndex)
	jIndex := optionalInts(ds, remap.VarJIndex)
	idHR := optionalInts(ds, remap.VarIDHR)

	runID := uuid.NewString()
	tx, err := s.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO remap_runs (run_id, easymore_case, source, n_polyid, n_intersect) VALUES (?, ?, ?, ?, ?)`,
		runID, c, source, len(rnID), len(idMask),
	); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	polyStmt, err := tx.Prepare(`INSERT INTO remap_polyid (run_id, polyid, rn_id, rn_fr) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer polyStmt.Close()
	for i := range rnID {
		if _, err := polyStmt.Exec(runID, i, rnID[i], rnFR[i]); err != nil {
			return "", fmt.Errorf("failed to insert polyid %d: %w", i, err)
		}
	}

	isStmt, err := tx.Prepare(`INSERT INTO remap_intersect
		(run_id, intersect_idx, idmask, weight, i_index, j_index, id_hr)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer isStmt.Close()
	for k := range idMask {
		if _, err := isStmt.Exec(runID, k, idMask[k], weight[k], at(iIndex, k), at(jIndex, k), at(idHR, k)); err != nil {
			return "", fmt.Errorf("failed to insert intersect %d: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	monitoring.Logf("saved remapping run %s (%d polyid, %d intersect)", runID, len(rnID), len(idMask))
	return runID, nil
}

// Runs lists saved runs, oldest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.Query(`SELECT run_id, easymore_case, source, n_polyid, n_intersect
		FROM remap_runs ORDER BY created_at, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Case, &r.Source, &r.PolyIDs, &r.Intersects); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Polys returns RN_ID and RN_FR of a run in polyid order.
func (s *Store) Polys(runID string) (rnID, rnFR []int64, err error) {
	rows, err := s.Query(`SELECT rn_id, rn_fr FROM remap_polyid WHERE run_id = ? ORDER BY polyid`, runID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, fr int64
		if err := rows.Scan(&id, &fr); err != nil {
			return nil, nil, err
		}
		rnID = append(rnID, id)
		rnFR = append(rnFR, fr)
	}
	return rnID, rnFR, rows.Err()
}

// Intersects returns the intersect rows of a run in intersect order.
func (s *Store) Intersects(runID string) ([]Intersect, error) {
	rows, err := s.Query(`SELECT idmask, weight, i_index, j_index, id_hr
		FROM remap_intersect WHERE run_id = ? ORDER BY intersect_idx`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Intersect
	for rows.Next() {
		var (
			r            Intersect
			ii, jj, idHR sql.NullInt64
		)
		if err := rows.Scan(&r.IDMask, &r.Weight, &ii, &jj, &idHR); err != nil {
			return nil, err
		}
		r.IIndex = nullable(ii)
		r.JIndex = nullable(jj)
		r.IDHR = nullable(idHR)
		out = append(out, r)
	}
	return out, rows.Err()
}

func optionalInts(ds *dataset.Dataset, name string) []int64 {
	if !ds.Has(name) {
		return nil
	}
	v, err := ds.Int64s(name)
	if err != nil {
		return nil
	}
	return v
}

func at(v []int64, k int) any {
	if v == nil {
		return nil
	}
	return v[k]
}

func nullable(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
