package store

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kwikdrytn/kwikdry-sub000/core/geo"
	"github.com/kwikdrytn/kwikdry-sub000/core/model"
	corestore "github.com/kwikdrytn/kwikdry-sub000/core/store"
)

//go:embed schema.sql
var schema string

// Postgres is a core/store.ReadWriter backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ corestore.ReadWriter = (*Postgres)(nil)

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Migrate creates the tables when they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Zones returns zones ordered by priority then id.
func (p *Postgres) Zones(ctx context.Context) ([]model.ServiceZone, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, color, boundary, postal_codes
		 FROM service_zones ORDER BY priority, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query zones: %w", err)
	}
	defer rows.Close()

	var zones []model.ServiceZone
	for rows.Next() {
		var (
			z   model.ServiceZone
			raw []byte
		)
		if err := rows.Scan(&z.ID, &z.Name, &z.Color, &raw, &z.PostalCodes); err != nil {
			return nil, fmt.Errorf("failed to scan zone: %w", err)
		}
		if len(raw) > 0 {
			b, err := geo.ParseBoundaryGeoJSON(raw)
			if err != nil {
				return nil, fmt.Errorf("zone %s boundary: %w", z.ID, err)
			}
			z.Boundary = b
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read zones: %w", err)
	}
	return zones, nil
}

func (p *Postgres) Technicians(ctx context.Context) ([]model.Technician, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, address, home_lat, home_lon FROM technicians ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query technicians: %w", err)
	}
	defer rows.Close()

	var techs []model.Technician
	for rows.Next() {
		var (
			t        model.Technician
			lat, lon *float64
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Address, &lat, &lon); err != nil {
			return nil, fmt.Errorf("failed to scan technician: %w", err)
		}
		t.Home = coordinate(lat, lon)
		techs = append(techs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read technicians: %w", err)
	}
	return techs, nil
}

func (p *Postgres) SkillRecords(ctx context.Context) ([]model.SkillRecord, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT technician_id, service_type, level, note
		 FROM skill_records ORDER BY technician_id, service_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to query skill records: %w", err)
	}
	defer rows.Close()

	var records []model.SkillRecord
	for rows.Next() {
		var (
			r     model.SkillRecord
			level string
		)
		if err := rows.Scan(&r.TechnicianID, &r.ServiceType, &level, &r.Note); err != nil {
			return nil, fmt.Errorf("failed to scan skill record: %w", err)
		}
		r.Level = model.SkillLevel(level)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read skill records: %w", err)
	}
	return records, nil
}

const jobColumns = `id, address, lat, lon,
	to_char(scheduled_date, 'YYYY-MM-DD'),
	to_char(scheduled_start, 'HH24:MI'),
	to_char(scheduled_end, 'HH24:MI'),
	technician_id, city, service_names`

func (p *Postgres) ScheduledJobs(ctx context.Context, from, to model.Date) ([]model.ExistingJob, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE status <> 'completed'
		   AND scheduled_date >= $1::text::date AND scheduled_date < $2::text::date
		 ORDER BY scheduled_date, scheduled_start, id`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled jobs: %w", err)
	}
	return collectJobs(rows)
}

func (p *Postgres) CompletedJobs(ctx context.Context, limit int) ([]model.ExistingJob, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE status = 'completed'
		 ORDER BY scheduled_date DESC NULLS LAST, id
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed jobs: %w", err)
	}
	return collectJobs(rows)
}

func (p *Postgres) JobsMissingCoordinates(ctx context.Context) ([]model.ExistingJob, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE (lat IS NULL OR lon IS NULL) AND address <> ''
		 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs missing coordinates: %w", err)
	}
	return collectJobs(rows)
}

func collectJobs(rows pgx.Rows) ([]model.ExistingJob, error) {
	defer rows.Close()

	var jobs []model.ExistingJob
	for rows.Next() {
		var (
			j                   model.ExistingJob
			lat, lon            *float64
			date, start, finish *string
		)
		if err := rows.Scan(&j.ID, &j.Address, &lat, &lon, &date, &start, &finish,
			&j.TechnicianID, &j.City, &j.ServiceNames); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		j.Coordinate = coordinate(lat, lon)
		if date != nil {
			d, err := model.ParseDate(*date)
			if err != nil {
				return nil, fmt.Errorf("job %s: %w", j.ID, err)
			}
			j.ScheduledDate = &d
		}
		var err error
		if j.ScheduledStart, err = timeOfDay(start); err != nil {
			return nil, fmt.Errorf("job %s: %w", j.ID, err)
		}
		if j.ScheduledEnd, err = timeOfDay(finish); err != nil {
			return nil, fmt.Errorf("job %s: %w", j.ID, err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read jobs: %w", err)
	}
	return jobs, nil
}

func (p *Postgres) SetJobCoordinate(ctx context.Context, jobID string, c model.Coordinate) error {
	return p.update(ctx, "job coordinate",
		`UPDATE jobs SET lat = $1, lon = $2 WHERE id = $3`,
		c.Latitude, c.Longitude, jobID)
}

func (p *Postgres) SetTechnicianHome(ctx context.Context, techID string, c model.Coordinate) error {
	return p.update(ctx, "technician home",
		`UPDATE technicians SET home_lat = $1, home_lon = $2 WHERE id = $3`,
		c.Latitude, c.Longitude, techID)
}

func (p *Postgres) SetZoneBoundary(ctx context.Context, zoneID string, b *model.Boundary) error {
	raw, err := boundaryJSON(b)
	if err != nil {
		return err
	}
	return p.update(ctx, "zone boundary",
		`UPDATE service_zones SET boundary = $1 WHERE id = $2`,
		raw, zoneID)
}

func (p *Postgres) update(ctx context.Context, what, sql string, args ...any) error {
	tag, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", what, err)
	}
	if tag.RowsAffected() == 0 {
		return corestore.ErrNotFound
	}
	return nil
}

// Import upserts every record of a fixture in one transaction.
func (p *Postgres) Import(ctx context.Context, f *Fixture) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for i, z := range f.Zones {
		raw, err := boundaryJSON(z.Boundary)
		if err != nil {
			return err
		}
		codes := z.PostalCodes
		if codes == nil {
			codes = []string{}
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO service_zones (id, name, color, priority, boundary, postal_codes)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO UPDATE SET name = $2, color = $3, priority = $4, boundary = $5, postal_codes = $6`,
			z.ID, z.Name, z.Color, i, raw, codes); err != nil {
			return fmt.Errorf("failed to import zone %s: %w", z.ID, err)
		}
	}
	for _, t := range f.Technicians {
		lat, lon := split(t.Home)
		if _, err := tx.Exec(ctx,
			`INSERT INTO technicians (id, name, address, home_lat, home_lon)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE SET name = $2, address = $3, home_lat = $4, home_lon = $5`,
			t.ID, t.Name, t.Address, lat, lon); err != nil {
			return fmt.Errorf("failed to import technician %s: %w", t.ID, err)
		}
	}
	for _, s := range f.Skills {
		if _, err := tx.Exec(ctx,
			`INSERT INTO skill_records (technician_id, service_type, level, note)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (technician_id, service_type) DO UPDATE SET level = $3, note = $4`,
			s.TechnicianID, s.ServiceType, string(s.Level), s.Note); err != nil {
			return fmt.Errorf("failed to import skill %s/%s: %w", s.TechnicianID, s.ServiceType, err)
		}
	}
	for _, j := range f.Jobs {
		lat, lon := split(j.Coordinate)
		status := StatusScheduled
		if j.Completed() {
			status = StatusCompleted
		}
		names := j.ServiceNames
		if names == nil {
			names = []string{}
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO jobs (id, address, lat, lon, scheduled_date, scheduled_start, scheduled_end,
			                   technician_id, city, service_names, status)
			 VALUES ($1, $2, $3, $4, $5::text::date, $6::text::time, $7::text::time, $8, $9, $10, $11)
			 ON CONFLICT (id) DO UPDATE SET address = $2, lat = $3, lon = $4, scheduled_date = $5::text::date,
			   scheduled_start = $6::text::time, scheduled_end = $7::text::time,
			   technician_id = $8, city = $9, service_names = $10, status = $11`,
			j.ID, j.Address, lat, lon, stringOrNil(j.ScheduledDate), stringOrNil(j.ScheduledStart), stringOrNil(j.ScheduledEnd),
			j.TechnicianID, j.City, names, status); err != nil {
			return fmt.Errorf("failed to import job %s: %w", j.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}

func boundaryJSON(b *model.Boundary) ([]byte, error) {
	if b == nil {
		return nil, nil
	}
	raw, err := geo.BoundaryGeoJSON(b)
	if err != nil {
		return nil, fmt.Errorf("failed to encode boundary: %w", err)
	}
	return raw, nil
}

func coordinate(lat, lon *float64) *model.Coordinate {
	if lat == nil || lon == nil {
		return nil
	}
	return &model.Coordinate{Latitude: *lat, Longitude: *lon}
}

func split(c *model.Coordinate) (lat, lon *float64) {
	if c == nil {
		return nil, nil
	}
	return &c.Latitude, &c.Longitude
}

func timeOfDay(s *string) (*model.TimeOfDay, error) {
	if s == nil {
		return nil, nil
	}
	t, err := model.ParseTimeOfDay(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func stringOrNil[T fmt.Stringer](v *T) *string {
	if v == nil {
		return nil
	}
	s := (*v).String()
	return &s
}
