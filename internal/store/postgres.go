package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/Merit/internal/ahp"
	"github.com/MikeSquared-Agency/Merit/internal/stats"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

// --- Teachers ---

func (s *PostgresStore) CreateTeacher(ctx context.Context, t *Teacher) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO teachers (name, nip, position, joined_on)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		t.Name, nullString(t.NIP), t.Position, t.JoinedOn,
	).Scan(&t.ID, &t.CreatedAt)
}

func (s *PostgresStore) GetTeacher(ctx context.Context, id int64) (*Teacher, error) {
	t := &Teacher{}
	var nip sql.NullString
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, nip, position, joined_on, created_at
		FROM teachers WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &nip, &t.Position, &t.JoinedOn, &t.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.NIP = nip.String
	return t, nil
}

func (s *PostgresStore) ListTeachers(ctx context.Context) ([]*Teacher, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, nip, position, joined_on, created_at
		FROM teachers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teachers []*Teacher
	for rows.Next() {
		t := &Teacher{}
		var nip sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &nip, &t.Position, &t.JoinedOn, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.NIP = nip.String
		teachers = append(teachers, t)
	}
	return teachers, rows.Err()
}

func (s *PostgresStore) UpdateTeacher(ctx context.Context, t *Teacher) (bool, error) {
	err := s.pool.QueryRow(ctx, `
		UPDATE teachers SET name = $2, nip = $3, position = $4, joined_on = $5
		WHERE id = $1
		RETURNING created_at`,
		t.ID, t.Name, nullString(t.NIP), t.Position, t.JoinedOn,
	).Scan(&t.CreatedAt)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteTeacher removes the teacher with their scores and ranking rows.
func (s *PostgresStore) DeleteTeacher(ctx context.Context, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM teachers WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// --- Criteria ---

func (s *PostgresStore) CreateCriterion(ctx context.Context, c *Criterion) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO criteria (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at`,
		c.Name, c.Description,
	).Scan(&c.ID, &c.CreatedAt)
}

func (s *PostgresStore) GetCriterion(ctx context.Context, id int64) (*Criterion, error) {
	c := &Criterion{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, description, created_at
		FROM criteria WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	subs, err := s.ListSubcriteria(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Subcriteria = subs
	return c, nil
}

func (s *PostgresStore) ListCriteria(ctx context.Context) ([]*Criterion, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, description, created_at
		FROM criteria ORDER BY id`)
	if err != nil {
		return nil, err
	}
	var criteria []*Criterion
	byID := make(map[int64]*Criterion)
	for rows.Next() {
		c := &Criterion{Subcriteria: []*Subcriterion{}}
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		criteria = append(criteria, c)
		byID[c.ID] = c
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	subs, err := s.listSubcriteria(ctx, s.pool, nil)
	if err != nil {
		return nil, err
	}
	for _, sc := range subs {
		if c, ok := byID[sc.CriterionID]; ok {
			c.Subcriteria = append(c.Subcriteria, sc)
		}
	}
	return criteria, nil
}

func (s *PostgresStore) CreateSubcriterion(ctx context.Context, sc *Subcriterion) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO subcriteria (criterion_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		sc.CriterionID, sc.Name, sc.Description,
	).Scan(&sc.ID, &sc.CreatedAt)
}

func (s *PostgresStore) ListSubcriteria(ctx context.Context, criterionID int64) ([]*Subcriterion, error) {
	return s.listSubcriteria(ctx, s.pool, &criterionID)
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *PostgresStore) listSubcriteria(ctx context.Context, q querier, criterionID *int64) ([]*Subcriterion, error) {
	rows, err := q.Query(ctx, `
		SELECT id, criterion_id, name, description, created_at
		FROM subcriteria
		WHERE $1::bigint IS NULL OR criterion_id = $1
		ORDER BY criterion_id, id`, criterionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []*Subcriterion{}
	for rows.Next() {
		sc := &Subcriterion{}
		if err := rows.Scan(&sc.ID, &sc.CriterionID, &sc.Name, &sc.Description, &sc.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sc)
	}
	return subs, rows.Err()
}

// --- Comparisons ---

func (s *PostgresStore) ListCriteriaComparisons(ctx context.Context) ([]ahp.Comparison, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT item_a, item_b, ratio FROM criteria_comparisons ORDER BY item_a, item_b`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComparisons(rows)
}

func (s *PostgresStore) UpsertCriteriaComparisons(ctx context.Context, comps []ahp.Comparison, assessorID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, c := range comps {
		c = NormalizePair(c)
		if _, err := tx.Exec(ctx, `
			INSERT INTO criteria_comparisons (item_a, item_b, ratio, assessor_id)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (item_a, item_b) DO UPDATE
			SET ratio = EXCLUDED.ratio, assessor_id = EXCLUDED.assessor_id, updated_at = now()`,
			c.A, c.B, c.Ratio, assessorID,
		); err != nil {
			return fmt.Errorf("upsert criteria comparison (%d, %d): %w", c.A, c.B, err)
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) ResetCriteriaComparisons(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM criteria_comparisons`)
	return err
}

func (s *PostgresStore) DeleteCriteriaComparison(ctx context.Context, a, b int64) (bool, error) {
	a, b = orderedPair(a, b)
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM criteria_comparisons WHERE item_a = $1 AND item_b = $2`, a, b)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ListSubcriteriaComparisons(ctx context.Context, criterionID int64) ([]ahp.Comparison, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT item_a, item_b, ratio FROM subcriteria_comparisons
		WHERE criterion_id = $1 ORDER BY item_a, item_b`, criterionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComparisons(rows)
}

func (s *PostgresStore) UpsertSubcriteriaComparisons(ctx context.Context, criterionID int64, comps []ahp.Comparison, assessorID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, c := range comps {
		c = NormalizePair(c)
		if _, err := tx.Exec(ctx, `
			INSERT INTO subcriteria_comparisons (criterion_id, item_a, item_b, ratio, assessor_id)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (criterion_id, item_a, item_b) DO UPDATE
			SET ratio = EXCLUDED.ratio, assessor_id = EXCLUDED.assessor_id, updated_at = now()`,
			criterionID, c.A, c.B, c.Ratio, assessorID,
		); err != nil {
			return fmt.Errorf("upsert sub-criteria comparison (%d, %d): %w", c.A, c.B, err)
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) ResetSubcriteriaComparisons(ctx context.Context, criterionID int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM subcriteria_comparisons WHERE criterion_id = $1`, criterionID)
	return err
}

func (s *PostgresStore) DeleteSubcriteriaComparison(ctx context.Context, criterionID, a, b int64) (bool, error) {
	a, b = orderedPair(a, b)
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM subcriteria_comparisons
		WHERE criterion_id = $1 AND item_a = $2 AND item_b = $3`, criterionID, a, b)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanComparisons(rows pgx.Rows) ([]ahp.Comparison, error) {
	comps := []ahp.Comparison{}
	for rows.Next() {
		var c ahp.Comparison
		if err := rows.Scan(&c.A, &c.B, &c.Ratio); err != nil {
			return nil, err
		}
		comps = append(comps, c)
	}
	return comps, rows.Err()
}

// --- Scores ---

func (s *PostgresStore) UpsertScores(ctx context.Context, scores []*ScoreRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, sc := range scores {
		var q string
		var leafID int64
		switch {
		case sc.SubcriterionID != nil:
			leafID = *sc.SubcriterionID
			q = `
			INSERT INTO scores (teacher_id, subcriterion_id, value, assessed_on, assessor_id)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (teacher_id, subcriterion_id, assessed_on) WHERE subcriterion_id IS NOT NULL
			DO UPDATE SET value = EXCLUDED.value, assessor_id = EXCLUDED.assessor_id
			RETURNING id, created_at`
		case sc.CriterionID != nil:
			leafID = *sc.CriterionID
			q = `
			INSERT INTO scores (teacher_id, criterion_id, value, assessed_on, assessor_id)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (teacher_id, criterion_id, assessed_on) WHERE criterion_id IS NOT NULL
			DO UPDATE SET value = EXCLUDED.value, assessor_id = EXCLUDED.assessor_id
			RETURNING id, created_at`
		default:
			return fmt.Errorf("score for teacher %d has no criterion or sub-criterion", sc.TeacherID)
		}
		if err := tx.QueryRow(ctx, q, sc.TeacherID, leafID, sc.Value, sc.AssessedOn, sc.AssessorID).
			Scan(&sc.ID, &sc.CreatedAt); err != nil {
			return fmt.Errorf("upsert score for teacher %d on %s: %w", sc.TeacherID, sc.Leaf(), err)
		}
	}
	return tx.Commit(ctx)
}

// ListObservations returns sub-criterion scores and the sub-criteria they
// cover, ordered by id.
func (s *PostgresStore) ListObservations(ctx context.Context, filter ObservationFilter) ([]stats.Observation, []stats.Column, error) {
	query := `
		SELECT n.teacher_id, n.subcriterion_id, sc.name, n.value, n.assessed_on
		FROM scores n
		JOIN subcriteria sc ON sc.id = n.subcriterion_id
		WHERE 1=1`
	args := []any{}
	n := 0

	if filter.TeacherID != nil {
		n++
		query += fmt.Sprintf(" AND n.teacher_id = $%d", n)
		args = append(args, *filter.TeacherID)
	}
	if filter.From != nil {
		n++
		query += fmt.Sprintf(" AND n.assessed_on >= $%d", n)
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		n++
		query += fmt.Sprintf(" AND n.assessed_on <= $%d", n)
		args = append(args, *filter.To)
	}
	query += " ORDER BY n.teacher_id, n.assessed_on"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var obs []stats.Observation
	names := make(map[int64]string)
	for rows.Next() {
		var o stats.Observation
		var name string
		if err := rows.Scan(&o.TeacherID, &o.ColumnID, &name, &o.Value, &o.AssessedOn); err != nil {
			return nil, nil, err
		}
		names[o.ColumnID] = name
		obs = append(obs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	cols := make([]stats.Column, 0, len(names))
	for id, name := range names {
		cols = append(cols, stats.Column{ID: id, Name: name})
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].ID < cols[j].ID })
	return obs, cols, nil
}

// --- Snapshot ---

// Snapshot reads criteria, comparisons, teachers and the latest score per
// (teacher, leaf) inside one repeatable-read transaction.
func (s *PostgresStore) Snapshot(ctx context.Context) (*ahp.Snapshot, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	snap := &ahp.Snapshot{
		SubsByCriterion:        make(map[int64][]ahp.Item),
		ComparisonsByCriterion: make(map[int64][]ahp.Comparison),
	}

	rows, err := tx.Query(ctx, `SELECT id, name FROM criteria ORDER BY id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var it ahp.Item
		if err := rows.Scan(&it.ID, &it.Name); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Criteria = append(snap.Criteria, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	subs, err := s.listSubcriteria(ctx, tx, nil)
	if err != nil {
		return nil, err
	}
	for _, sc := range subs {
		snap.SubsByCriterion[sc.CriterionID] = append(snap.SubsByCriterion[sc.CriterionID], sc.Item())
	}

	rows, err = tx.Query(ctx, `SELECT item_a, item_b, ratio FROM criteria_comparisons ORDER BY item_a, item_b`)
	if err != nil {
		return nil, err
	}
	snap.CriteriaComparisons, err = scanComparisons(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	rows, err = tx.Query(ctx, `
		SELECT criterion_id, item_a, item_b, ratio FROM subcriteria_comparisons
		ORDER BY criterion_id, item_a, item_b`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var cid int64
		var c ahp.Comparison
		if err := rows.Scan(&cid, &c.A, &c.B, &c.Ratio); err != nil {
			rows.Close()
			return nil, err
		}
		snap.ComparisonsByCriterion[cid] = append(snap.ComparisonsByCriterion[cid], c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = tx.Query(ctx, `SELECT id, name FROM teachers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var e ahp.Entity
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Entities = append(snap.Entities, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = tx.Query(ctx, `
		SELECT DISTINCT ON (teacher_id, criterion_id, subcriterion_id)
			teacher_id, criterion_id, subcriterion_id, value
		FROM scores
		ORDER BY teacher_id, criterion_id, subcriterion_id, assessed_on DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var rec ScoreRecord
		if err := rows.Scan(&rec.TeacherID, &rec.CriterionID, &rec.SubcriterionID, &rec.Value); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Scores = append(snap.Scores, ahp.Score{EntityID: rec.TeacherID, Leaf: rec.Leaf(), Value: rec.Value})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snap, tx.Commit(ctx)
}

// --- Rankings ---

func (s *PostgresStore) SaveRankingRun(ctx context.Context, run *RankingRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	leavesJSON, err := json.Marshal(run.Leaves)
	if err != nil {
		return fmt.Errorf("marshal leaf weights: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx, `
		INSERT INTO ranking_runs (id, method, criteria_cr, consistency, triggered_by, leaf_weights)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING computed_at`,
		run.ID, string(run.Method), run.CriteriaCR, string(run.Consistency), run.TriggeredBy, leavesJSON,
	).Scan(&run.ComputedAt); err != nil {
		return fmt.Errorf("insert ranking run: %w", err)
	}

	rows := make([][]any, len(run.Results))
	for i, r := range run.Results {
		rows[i] = []any{run.ID, r.TeacherID, r.Total, r.Rank}
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"ranking_results"},
		[]string{"run_id", "teacher_id", "total", "rank"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("copy ranking results: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) GetLatestRankingRun(ctx context.Context) (*RankingRun, error) {
	run := &RankingRun{}
	var method, consistency string
	var leavesJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT id, method, criteria_cr, consistency, triggered_by, leaf_weights, computed_at
		FROM ranking_runs ORDER BY computed_at DESC LIMIT 1`,
	).Scan(&run.ID, &method, &run.CriteriaCR, &consistency, &run.TriggeredBy, &leavesJSON, &run.ComputedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	run.Method = ahp.Method(method)
	run.Consistency = ahp.Consistency(consistency)
	if run.Leaves, err = decodeLeaves(leavesJSON); err != nil {
		return nil, fmt.Errorf("run %s: %w", run.ID, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT r.teacher_id, t.name, r.total, r.rank
		FROM ranking_results r
		JOIN teachers t ON t.id = r.teacher_id
		WHERE r.run_id = $1
		ORDER BY r.rank, r.teacher_id`, run.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	run.Results = []RankingResult{}
	for rows.Next() {
		var r RankingResult
		if err := rows.Scan(&r.TeacherID, &r.TeacherName, &r.Total, &r.Rank); err != nil {
			return nil, err
		}
		run.Results = append(run.Results, r)
	}
	return run, rows.Err()
}

// decodeLeaves reads the leaf_weights column. NULL decodes to no leaves.
func decodeLeaves(data []byte) (ahp.LeafWeights, error) {
	if data == nil {
		return nil, nil
	}
	var leaves ahp.LeafWeights
	if err := json.Unmarshal(data, &leaves); err != nil {
		return nil, fmt.Errorf("decode leaf weights: %w", err)
	}
	return leaves, nil
}
