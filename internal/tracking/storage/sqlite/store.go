package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/motiontrack/internal/monitoring"
	"github.com/banshee-data/motiontrack/internal/timeutil"
	"github.com/banshee-data/motiontrack/internal/tracking/camera"
	"github.com/banshee-data/motiontrack/internal/tracking/geom"
	"github.com/banshee-data/motiontrack/internal/tracking/reconstruct"
	"github.com/banshee-data/motiontrack/internal/tracking/registry"
)

var logf = monitoring.Component("archive")

var (
	// ErrRunNotFound is returned for run IDs that are not in the archive.
	ErrRunNotFound = errors.New("run not found")
	// ErrNotReconstructed is returned when saving an object that has no
	// solved reconstruction.
	ErrNotReconstructed = errors.New("object is not reconstructed")
)

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// Run is one archived solve of a single object.
type Run struct {
	RunID      string
	Object     string
	CreatedAt  time.Time
	Keyframe1  int
	Keyframe2  int
	Error      float64
	Intrinsics camera.Intrinsics

	// Filled by ListRuns.
	Poses   int
	Bundles int
}

// Bundle is an archived reconstructed track position.
type Bundle struct {
	Track string
	Pos   geom.Vec3
	Error float64
}

// Store is the run archive.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens or creates the archive at path and migrates it to the latest
// schema. A nil clock uses the real clock.
func Open(path string, clock timeutil.Clock) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", p, err)
		}
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return New(db, clock), nil
}

// New wraps an already migrated database.
func New(db *sql.DB, clock timeutil.Clock) *Store {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Store{db: db, clock: clock}
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// SchemaVersion returns the applied migration version.
func (s *Store) SchemaVersion() (uint, error) {
	v, dirty, err := schemaVersion(s.db)
	if err != nil {
		return 0, err
	}
	if dirty {
		return v, fmt.Errorf("schema version %d is dirty", v)
	}
	return v, nil
}

// SaveRun archives the reconstruction of obj together with the set's
// current intrinsics. Only tracks with a bundle are stored.
func (s *Store) SaveRun(ctx context.Context, tr *registry.Tracking, obj *registry.Object) (*Run, error) {
	rec := &obj.Reconstruction
	if !rec.Reconstructed {
		return nil, fmt.Errorf("%s: %w", obj.Name, ErrNotReconstructed)
	}

	run := &Run{
		RunID:      uuid.New().String(),
		Object:     obj.Name,
		CreatedAt:  s.clock.Now(),
		Keyframe1:  obj.Keyframe1,
		Keyframe2:  obj.Keyframe2,
		Error:      rec.Error,
		Intrinsics: tr.Camera,
	}

	var bundles []Bundle
	for _, t := range obj.Tracks {
		if t.HasBundle() {
			bundles = append(bundles, Bundle{Track: t.Name, Pos: t.Bundle, Error: t.Error})
		}
	}

	err := retryOnBusy(s.clock, func() error {
		return s.insertRun(ctx, run, rec.Cameras, bundles)
	})
	if err != nil {
		return nil, err
	}
	run.Poses, run.Bundles = len(rec.Cameras), len(bundles)
	logf("Archived run %s for %q: %d poses, %d bundles", run.RunID, run.Object, run.Poses, run.Bundles)
	return run, nil
}

func (s *Store) insertRun(ctx context.Context, run *Run, cams []registry.CameraPose, bundles []Bundle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	in := run.Intrinsics
	_, err = tx.ExecContext(ctx, `
		INSERT INTO tracking_runs (
			run_id, object_name, created_at, keyframe1, keyframe2, error,
			focal, principal_x, principal_y, k1, k2, k3,
			pixel_aspect, sensor_width, image_width, image_height
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Object, run.CreatedAt.UnixNano(), run.Keyframe1, run.Keyframe2, run.Error,
		in.Focal, in.PrincipalX, in.PrincipalY, in.K1, in.K2, in.K3,
		in.PixelAspect, in.SensorWidth, in.ImageWidth, in.ImageHeight,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	poseStmt, err := tx.PrepareContext(ctx, `INSERT INTO camera_poses (run_id, frame, matrix, error) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare poses: %w", err)
	}
	defer poseStmt.Close()
	for _, c := range cams {
		m, err := json.Marshal(c.Mat)
		if err != nil {
			return fmt.Errorf("encode pose %d: %w", c.Frame, err)
		}
		if _, err := poseStmt.ExecContext(ctx, run.RunID, c.Frame, string(m), c.Error); err != nil {
			return fmt.Errorf("insert pose %d: %w", c.Frame, err)
		}
	}

	bundleStmt, err := tx.PrepareContext(ctx, `INSERT INTO track_bundles (run_id, track_name, x, y, z, error) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare bundles: %w", err)
	}
	defer bundleStmt.Close()
	for _, b := range bundles {
		if _, err := bundleStmt.ExecContext(ctx, run.RunID, b.Track, b.Pos.X, b.Pos.Y, b.Pos.Z, b.Error); err != nil {
			return fmt.Errorf("insert bundle %q: %w", b.Track, err)
		}
	}

	return tx.Commit()
}

const runColumns = `
	r.run_id, r.object_name, r.created_at, r.keyframe1, r.keyframe2, r.error,
	r.focal, r.principal_x, r.principal_y, r.k1, r.k2, r.k3,
	r.pixel_aspect, r.sensor_width, r.image_width, r.image_height,
	(SELECT COUNT(*) FROM camera_poses p WHERE p.run_id = r.run_id),
	(SELECT COUNT(*) FROM track_bundles b WHERE b.run_id = r.run_id)`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	var created int64
	in := &r.Intrinsics
	err := row.Scan(
		&r.RunID, &r.Object, &created, &r.Keyframe1, &r.Keyframe2, &r.Error,
		&in.Focal, &in.PrincipalX, &in.PrincipalY, &in.K1, &in.K2, &in.K3,
		&in.PixelAspect, &in.SensorWidth, &in.ImageWidth, &in.ImageHeight,
		&r.Poses, &r.Bundles,
	)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = time.Unix(0, created)
	return &r, nil
}

// ListRuns returns archived runs, newest first. An empty object name lists
// the runs of every object.
func (s *Store) ListRuns(ctx context.Context, object string) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM tracking_runs r
		WHERE ? = '' OR r.object_name = ?
		ORDER BY r.created_at DESC, r.run_id`, object, object)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns a single run.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM tracking_runs r WHERE r.run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return r, nil
}

// LoadPoses returns the camera poses of a run sorted by frame.
func (s *Store) LoadPoses(ctx context.Context, runID string) ([]registry.CameraPose, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT frame, matrix, error FROM camera_poses
		WHERE run_id = ?
		ORDER BY frame`, runID)
	if err != nil {
		return nil, fmt.Errorf("query poses: %w", err)
	}
	defer rows.Close()

	var poses []registry.CameraPose
	for rows.Next() {
		var p registry.CameraPose
		var m string
		if err := rows.Scan(&p.Frame, &m, &p.Error); err != nil {
			return nil, fmt.Errorf("scan pose: %w", err)
		}
		if err := json.Unmarshal([]byte(m), &p.Mat); err != nil {
			return nil, fmt.Errorf("decode pose %d: %w", p.Frame, err)
		}
		poses = append(poses, p)
	}
	return poses, rows.Err()
}

// LoadBundles returns the archived bundles of a run sorted by track name.
func (s *Store) LoadBundles(ctx context.Context, runID string) ([]Bundle, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT track_name, x, y, z, error FROM track_bundles
		WHERE run_id = ?
		ORDER BY track_name`, runID)
	if err != nil {
		return nil, fmt.Errorf("query bundles: %w", err)
	}
	defer rows.Close()

	var bundles []Bundle
	for rows.Next() {
		var b Bundle
		if err := rows.Scan(&b.Track, &b.Pos.X, &b.Pos.Y, &b.Pos.Z, &b.Error); err != nil {
			return nil, fmt.Errorf("scan bundle: %w", err)
		}
		bundles = append(bundles, b)
	}
	return bundles, rows.Err()
}

// DeleteRun removes a run with its poses and bundles. Children are deleted
// explicitly since foreign_keys is a per-connection pragma.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	return retryOnBusy(s.clock, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		for _, q := range []string{
			`DELETE FROM camera_poses WHERE run_id = ?`,
			`DELETE FROM track_bundles WHERE run_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, runID); err != nil {
				return fmt.Errorf("delete run data: %w", err)
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM tracking_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
		}
		return tx.Commit()
	})
}

// Replay returns a solver that reproduces an archived run. Solving the
// same tracks with it restores the archived cameras, bundles and
// intrinsics.
func (s *Store) Replay(ctx context.Context, runID string) (*reconstruct.ReferenceSolver, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	poses, err := s.LoadPoses(ctx, runID)
	if err != nil {
		return nil, err
	}
	bundles, err := s.LoadBundles(ctx, runID)
	if err != nil {
		return nil, err
	}

	in := run.Intrinsics
	sol := &reconstruct.ReferenceSolver{
		Cameras:     make(map[int]geom.Mat4, len(poses)),
		FrameErrors: make(map[int]float64, len(poses)),
		Points:      make(map[string]geom.Vec3, len(bundles)),
		TrackErrors: make(map[string]float64, len(bundles)),
		Intrinsics:  &in,
		Keyframes:   [2]int{run.Keyframe1, run.Keyframe2},
		Error:       run.Error,
	}
	for _, p := range poses {
		sol.Cameras[p.Frame] = p.Mat
		sol.FrameErrors[p.Frame] = p.Error
	}
	for _, b := range bundles {
		sol.Points[b.Track] = b.Pos
		sol.TrackErrors[b.Track] = b.Error
	}
	return sol, nil
}
