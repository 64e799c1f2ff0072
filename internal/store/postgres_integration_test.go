//go:build integration

package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Merit/internal/ahp"
)

func setupTestDB(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	if err := Migrate(dbURL, -1, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	t.Cleanup(func() {
		_, _ = s.pool.Exec(ctx, "TRUNCATE ranking_runs, scores, subcriteria_comparisons, criteria_comparisons, subcriteria, criteria, teachers RESTART IDENTITY CASCADE")
		s.Close()
	})

	return s
}

func seedHierarchy(t *testing.T, s *PostgresStore) (crit []*Criterion, subs []*Subcriterion, teachers []*Teacher) {
	t.Helper()
	ctx := context.Background()
	for _, name := range []string{"Pedagogy", "Professionalism", "Social"} {
		c := &Criterion{Name: name}
		if err := s.CreateCriterion(ctx, c); err != nil {
			t.Fatalf("CreateCriterion failed: %v", err)
		}
		crit = append(crit, c)
	}
	for _, name := range []string{"Planning", "Delivery"} {
		sc := &Subcriterion{CriterionID: crit[0].ID, Name: name}
		if err := s.CreateSubcriterion(ctx, sc); err != nil {
			t.Fatalf("CreateSubcriterion failed: %v", err)
		}
		subs = append(subs, sc)
	}
	for _, name := range []string{"Ana", "Budi"} {
		tc := &Teacher{Name: name, Position: "Guru"}
		if err := s.CreateTeacher(ctx, tc); err != nil {
			t.Fatalf("CreateTeacher failed: %v", err)
		}
		teachers = append(teachers, tc)
	}
	return crit, subs, teachers
}

func TestTeacherRoundTrip(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	joined := time.Date(2019, 7, 15, 0, 0, 0, 0, time.UTC)
	tc := &Teacher{Name: "Ana", NIP: "198501012010012001", Position: "Guru Madya", JoinedOn: &joined}
	if err := s.CreateTeacher(ctx, tc); err != nil {
		t.Fatalf("CreateTeacher failed: %v", err)
	}
	if tc.ID == 0 {
		t.Fatal("expected id after create")
	}

	got, err := s.GetTeacher(ctx, tc.ID)
	if err != nil {
		t.Fatalf("GetTeacher failed: %v", err)
	}
	if got.NIP != tc.NIP || got.Position != tc.Position || got.JoinedOn == nil || !got.JoinedOn.Equal(joined) {
		t.Errorf("unexpected teacher %+v", got)
	}

	missing, err := s.GetTeacher(ctx, tc.ID+1000)
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing teacher, got %v, %v", missing, err)
	}
}

func TestTeacherUpdateAndDelete(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	_, _, teachers := seedHierarchy(t, s)

	ana := teachers[0]
	ana.Name, ana.NIP, ana.Position = "Ana Lestari", "198501012010012001", "Guru Muda"
	ok, err := s.UpdateTeacher(ctx, ana)
	if err != nil || !ok {
		t.Fatalf("UpdateTeacher failed: ok=%v err=%v", ok, err)
	}
	got, err := s.GetTeacher(ctx, ana.ID)
	if err != nil {
		t.Fatalf("GetTeacher failed: %v", err)
	}
	if got.Name != "Ana Lestari" || got.NIP != ana.NIP || got.Position != "Guru Muda" {
		t.Errorf("unexpected teacher after update %+v", got)
	}

	ok, err = s.UpdateTeacher(ctx, &Teacher{ID: ana.ID + 1000, Name: "Ghost"})
	if err != nil || ok {
		t.Errorf("expected false, nil for missing teacher, got %v, %v", ok, err)
	}

	ok, err = s.DeleteTeacher(ctx, ana.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteTeacher failed: ok=%v err=%v", ok, err)
	}
	if got, _ := s.GetTeacher(ctx, ana.ID); got != nil {
		t.Errorf("expected teacher to be gone, got %+v", got)
	}
	if ok, err := s.DeleteTeacher(ctx, ana.ID); err != nil || ok {
		t.Errorf("expected second delete to report false, got %v, %v", ok, err)
	}
}

func TestDeleteSingleComparison(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	crit, subs, _ := seedHierarchy(t, s)

	if err := s.UpsertCriteriaComparisons(ctx, []ahp.Comparison{
		{A: crit[0].ID, B: crit[1].ID, Ratio: 3},
		{A: crit[0].ID, B: crit[2].ID, Ratio: 5},
	}, "assessor-1"); err != nil {
		t.Fatalf("UpsertCriteriaComparisons failed: %v", err)
	}
	// either order addresses the stored pair
	ok, err := s.DeleteCriteriaComparison(ctx, crit[1].ID, crit[0].ID)
	if err != nil || !ok {
		t.Fatalf("DeleteCriteriaComparison failed: ok=%v err=%v", ok, err)
	}
	comps, _ := s.ListCriteriaComparisons(ctx)
	if len(comps) != 1 || comps[0].B != crit[2].ID {
		t.Errorf("expected only (0, 2) to remain, got %+v", comps)
	}
	if ok, _ := s.DeleteCriteriaComparison(ctx, crit[0].ID, crit[1].ID); ok {
		t.Error("expected deleting a missing pair to report false")
	}

	if err := s.UpsertSubcriteriaComparisons(ctx, crit[0].ID, []ahp.Comparison{{A: subs[0].ID, B: subs[1].ID, Ratio: 2}}, "assessor-1"); err != nil {
		t.Fatalf("UpsertSubcriteriaComparisons failed: %v", err)
	}
	if ok, _ := s.DeleteSubcriteriaComparison(ctx, crit[1].ID, subs[0].ID, subs[1].ID); ok {
		t.Error("expected delete scoped to another criterion to report false")
	}
	ok, err = s.DeleteSubcriteriaComparison(ctx, crit[0].ID, subs[1].ID, subs[0].ID)
	if err != nil || !ok {
		t.Fatalf("DeleteSubcriteriaComparison failed: ok=%v err=%v", ok, err)
	}
	if comps, _ := s.ListSubcriteriaComparisons(ctx, crit[0].ID); len(comps) != 0 {
		t.Errorf("expected no sub-criteria comparisons, got %+v", comps)
	}
}

func TestComparisonsNormalizedAndUpserted(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	crit, _, _ := seedHierarchy(t, s)

	// flipped pair is stored as (a, b, 1/r)
	err := s.UpsertCriteriaComparisons(ctx, []ahp.Comparison{
		{A: crit[1].ID, B: crit[0].ID, Ratio: 0.5},
		{A: crit[0].ID, B: crit[2].ID, Ratio: 5},
	}, "assessor-1")
	if err != nil {
		t.Fatalf("UpsertCriteriaComparisons failed: %v", err)
	}
	if err := s.UpsertCriteriaComparisons(ctx, []ahp.Comparison{{A: crit[0].ID, B: crit[2].ID, Ratio: 7}}, "assessor-2"); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	comps, err := s.ListCriteriaComparisons(ctx)
	if err != nil {
		t.Fatalf("ListCriteriaComparisons failed: %v", err)
	}
	if len(comps) != 2 {
		t.Fatalf("expected 2 comparisons, got %d", len(comps))
	}
	if comps[0] != (ahp.Comparison{A: crit[0].ID, B: crit[1].ID, Ratio: 2}) {
		t.Errorf("unexpected first comparison %+v", comps[0])
	}
	if comps[1].Ratio != 7 {
		t.Errorf("expected upserted ratio 7, got %f", comps[1].Ratio)
	}

	if err := s.ResetCriteriaComparisons(ctx); err != nil {
		t.Fatalf("ResetCriteriaComparisons failed: %v", err)
	}
	comps, _ = s.ListCriteriaComparisons(ctx)
	if len(comps) != 0 {
		t.Errorf("expected no comparisons after reset, got %d", len(comps))
	}
}

func TestSnapshotUsesLatestScore(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	crit, subs, teachers := seedHierarchy(t, s)

	if err := s.UpsertSubcriteriaComparisons(ctx, crit[0].ID, []ahp.Comparison{{A: subs[0].ID, B: subs[1].ID, Ratio: 3}}, "a"); err != nil {
		t.Fatalf("UpsertSubcriteriaComparisons failed: %v", err)
	}

	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	err := s.UpsertScores(ctx, []*ScoreRecord{
		{TeacherID: teachers[0].ID, SubcriterionID: &subs[0].ID, Value: 60, AssessedOn: jan},
		{TeacherID: teachers[0].ID, SubcriterionID: &subs[0].ID, Value: 85, AssessedOn: feb},
		{TeacherID: teachers[0].ID, CriterionID: &crit[2].ID, Value: 70, AssessedOn: jan},
	})
	if err != nil {
		t.Fatalf("UpsertScores failed: %v", err)
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Criteria) != 3 || len(snap.Entities) != 2 {
		t.Fatalf("unexpected snapshot sizes: %d criteria, %d entities", len(snap.Criteria), len(snap.Entities))
	}
	if len(snap.SubsByCriterion[crit[0].ID]) != 2 || len(snap.ComparisonsByCriterion[crit[0].ID]) != 1 {
		t.Errorf("unexpected sub-criteria snapshot %+v", snap.SubsByCriterion)
	}
	table := ahp.NewScoreTable(snap.Scores)
	if v := table.Get(teachers[0].ID, ahp.SubcriterionLeaf(subs[0].ID)); v != 85 {
		t.Errorf("expected latest score 85, got %f", v)
	}
	if v := table.Get(teachers[0].ID, ahp.CriterionLeaf(crit[2].ID)); v != 70 {
		t.Errorf("expected criterion score 70, got %f", v)
	}
}

func TestObservationsFilter(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	_, subs, teachers := seedHierarchy(t, s)

	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	_ = s.UpsertScores(ctx, []*ScoreRecord{
		{TeacherID: teachers[0].ID, SubcriterionID: &subs[0].ID, Value: 60, AssessedOn: jan},
		{TeacherID: teachers[0].ID, SubcriterionID: &subs[1].ID, Value: 65, AssessedOn: jan},
		{TeacherID: teachers[1].ID, SubcriterionID: &subs[0].ID, Value: 80, AssessedOn: feb},
	})

	obs, cols, err := s.ListObservations(ctx, ObservationFilter{})
	if err != nil {
		t.Fatalf("ListObservations failed: %v", err)
	}
	if len(obs) != 3 || len(cols) != 2 {
		t.Errorf("expected 3 observations over 2 columns, got %d / %d", len(obs), len(cols))
	}

	from := feb
	obs, _, _ = s.ListObservations(ctx, ObservationFilter{From: &from})
	if len(obs) != 1 || obs[0].TeacherID != teachers[1].ID {
		t.Errorf("expected one February observation, got %+v", obs)
	}

	tid := teachers[0].ID
	obs, _, _ = s.ListObservations(ctx, ObservationFilter{TeacherID: &tid})
	if len(obs) != 2 {
		t.Errorf("expected 2 observations for teacher, got %d", len(obs))
	}
}

func TestRankingRunRoundTrip(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	_, _, teachers := seedHierarchy(t, s)

	latest, err := s.GetLatestRankingRun(ctx)
	if err != nil || latest != nil {
		t.Fatalf("expected no run yet, got %v, %v", latest, err)
	}

	run := &RankingRun{
		Method:      ahp.MethodEigenvector,
		CriteriaCR:  0.0032,
		Consistency: ahp.Consistent,
		TriggeredBy: "test",
		Leaves:      ahp.LeafWeights{{Key: ahp.CriterionLeaf(1), CriterionID: 1, Weight: 1}},
		Results: []RankingResult{
			{TeacherID: teachers[1].ID, Total: 88, Rank: 1},
			{TeacherID: teachers[0].ID, Total: 70, Rank: 2},
		},
	}
	if err := s.SaveRankingRun(ctx, run); err != nil {
		t.Fatalf("SaveRankingRun failed: %v", err)
	}
	if run.ID == uuid.Nil {
		t.Fatal("expected run id")
	}

	latest, err = s.GetLatestRankingRun(ctx)
	if err != nil {
		t.Fatalf("GetLatestRankingRun failed: %v", err)
	}
	if latest.ID != run.ID || len(latest.Results) != 2 {
		t.Fatalf("unexpected latest run %+v", latest)
	}
	if latest.Results[0].TeacherName != "Budi" || latest.Results[0].Rank != 1 {
		t.Errorf("unexpected first result %+v", latest.Results[0])
	}
	if len(latest.Leaves) != 1 || latest.Leaves[0].Key != ahp.CriterionLeaf(1) {
		t.Errorf("unexpected leaves %+v", latest.Leaves)
	}
}
