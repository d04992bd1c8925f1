package repositories

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelgauge/reelgauge/internal/domain/job"
	"github.com/reelgauge/reelgauge/internal/domain/rubric"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

// JobRepository is the pgx implementation of job.Repository.
type JobRepository struct {
	pool *pgxpool.Pool
}

// NewJobRepository constructs the repository.
func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

const jobColumns = `
	id, account_id, video_uri, filename, size_bytes, duration_seconds,
	check_sets, fingerprint, funnel_context, status, stage, progress_pct,
	estimated_cost, actual_cost, cache_hit, report_id, skipped_check_sets,
	error_code, error_message, created_at, started_at, finished_at`

func (r *JobRepository) Create(ctx context.Context, j *job.Job) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		j.ID, j.AccountID, j.Source.URI, j.Source.Filename, j.Source.SizeBytes,
		j.Source.DurationSeconds, checkSetStrings(j.CheckSets), j.Fingerprint,
		j.FunnelContext, string(j.Status), j.Stage, j.ProgressPct,
		j.EstimatedCost, j.ActualCost, j.CacheHit, j.ReportID,
		checkSetStrings(j.SkippedCheckSets), j.ErrorCode, j.ErrorMessage,
		j.CreatedAt, j.StartedAt, j.FinishedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Newf(errors.ErrCodeConflict, "job %s already exists", j.ID)
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create job")
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, j *job.Job) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE jobs SET
			status = $2, stage = $3, progress_pct = $4, actual_cost = $5,
			cache_hit = $6, report_id = $7, skipped_check_sets = $8,
			error_code = $9, error_message = $10, started_at = $11,
			finished_at = $12
		WHERE id = $1`,
		j.ID, string(j.Status), j.Stage, j.ProgressPct, j.ActualCost,
		j.CacheHit, j.ReportID, checkSetStrings(j.SkippedCheckSets),
		j.ErrorCode, j.ErrorMessage, j.StartedAt, j.FinishedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update job")
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeJobNotFound, "job %s not found", j.ID)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	j, err := scanJob(row)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Newf(errors.ErrCodeJobNotFound, "job %s not found", id)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load job")
	}
	return j, nil
}

func (r *JobRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*job.Job, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+jobColumns+` FROM jobs
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list jobs")
	}
	defer rows.Close()
	return collectJobs(rows)
}

func (r *JobRepository) ListStale(ctx context.Context, cutoff time.Time) ([]*job.Job, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+jobColumns+` FROM jobs
		WHERE status IN ('queued', 'running') AND created_at < $1`, cutoff)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list stale jobs")
	}
	defer rows.Close()
	return collectJobs(rows)
}

func collectJobs(rows pgx.Rows) ([]*job.Job, error) {
	var out []*job.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan job")
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "job listing failed")
	}
	return out, nil
}

func scanJob(row pgx.Row) (*job.Job, error) {
	var j job.Job
	var status string
	var checkSets, skipped []string
	if err := row.Scan(
		&j.ID, &j.AccountID, &j.Source.URI, &j.Source.Filename,
		&j.Source.SizeBytes, &j.Source.DurationSeconds, &checkSets,
		&j.Fingerprint, &j.FunnelContext, &status, &j.Stage, &j.ProgressPct,
		&j.EstimatedCost, &j.ActualCost, &j.CacheHit, &j.ReportID, &skipped,
		&j.ErrorCode, &j.ErrorMessage, &j.CreatedAt, &j.StartedAt, &j.FinishedAt,
	); err != nil {
		return nil, err
	}
	j.Status = job.Status(status)
	j.CheckSets = toCheckSets(checkSets)
	j.SkippedCheckSets = toCheckSets(skipped)
	return &j, nil
}

func checkSetStrings(sets []rubric.CheckSet) []string {
	out := make([]string, 0, len(sets))
	for _, cs := range sets {
		out = append(out, string(cs))
	}
	return out
}

func toCheckSets(names []string) []rubric.CheckSet {
	if len(names) == 0 {
		return nil
	}
	out := make([]rubric.CheckSet, 0, len(names))
	for _, n := range names {
		out = append(out, rubric.CheckSet(n))
	}
	return out
}
