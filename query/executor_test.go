// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package query_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mdhender/aresmem"
	"github.com/mdhender/aresmem/model"
	"github.com/mdhender/aresmem/query"
	"github.com/mdhender/aresmem/web/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func scenario(t *testing.T) *query.Executor {
	t.Helper()
	s, err := store.NewMemoryStoreFromLines(
		`{"case_id":"c1","step_id":1,"fps":30}`,
		`{"case_id":"c1","step_id":2,"fps":60}`,
		`{"case_id":"c2","step_id":1,"fps":15}`,
		`{"case_id":"c2","step_id":`,
	)
	require.NoError(t, err)
	return query.New(s)
}

func keys(records []*model.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = fmt.Sprintf("%s/%d", r.CaseID, r.StepID)
	}
	return out
}

func TestScenario_Stats(t *testing.T) {
	stats, err := scenario(t).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalRecords)
	assert.Equal(t, 2, stats.NCases)
	assert.Equal(t, 2, stats.NSteps)
	assert.Equal(t, []string{"c1", "c2"}, stats.CasesExample)
}

func TestScenario_SearchMinFPS(t *testing.T) {
	got, err := scenario(t).Search(context.Background(), query.Filters{MinFPS: ptr(20.0)}, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1/1", "c1/2"}, keys(got))
}

func TestScenario_GetCaseNotFound(t *testing.T) {
	_, err := scenario(t).GetCase(context.Background(), "c3")
	var nf *aresmem.NotFoundError
	require.True(t, errors.As(err, &nf), "want NotFoundError, got %v", err)
	assert.Equal(t, "case_id not found", nf.Detail())
}

func TestScenario_ListCasesPage(t *testing.T) {
	got, err := scenario(t).ListCases(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"c2"}, got)
}

func TestGetCase_ReturnsAllInLoadOrder(t *testing.T) {
	got, err := scenario(t).GetCase(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1/1", "c1/2"}, keys(got))
}

func TestGetStep(t *testing.T) {
	s, err := store.NewMemoryStoreFromLines(
		`{"case_id":"a","step_id":1,"step_name":"first"}`,
		`{"case_id":"a","step_id":1,"step_name":"duplicate"}`,
		`{"case_id":"b","step_id":"2"}`,
	)
	require.NoError(t, err)
	e := query.New(s)
	ctx := context.Background()

	r, err := e.GetStep(ctx, "a", 1)
	require.NoError(t, err)
	require.NotNil(t, r.StepName)
	assert.Equal(t, "first", *r.StepName, "first match in load order wins")

	r, err = e.GetStep(ctx, "b", 2)
	require.NoError(t, err)
	assert.Equal(t, "b", r.CaseID)
	assert.Equal(t, 2, r.StepID)

	_, err = e.GetStep(ctx, "a", 2)
	assert.Equal(t, aresmem.ErrCodeNotFound, aresmem.ErrorCode(err))
}

func TestSearch_Filters(t *testing.T) {
	s, err := store.NewMemoryStoreFromLines(
		`{"case_id":"k1","step_id":1,"fps":30,"bleeding_score":0.2,"rules_text":"Suture the VESSEL"}`,
		`{"case_id":"k1","step_id":2,"video_meta":{"fps":25},"metrics":{"bleeding_score":0.7}}`,
		`{"case_id":"k2","step_id":1,"metrics":{"bleeding_score":0.5}}`,
		`{"case_id":"k2","step_id":2,"fps":"50","video_meta":"broken","rules_json":{"tool":"vessel sealer"}}`,
	)
	require.NoError(t, err)
	e := query.New(s)

	tests := []struct {
		name string
		f    query.Filters
		want []string
	}{
		{"none", query.Filters{}, []string{"k1/1", "k1/2", "k2/1", "k2/2"}},
		{"q is case-insensitive", query.Filters{Q: "vessel"}, []string{"k1/1", "k2/2"}},
		{"q matches keys and numbers", query.Filters{Q: `"fps": 25`}, []string{"k1/2"}},
		{"step", query.Filters{StepID: ptr(2)}, []string{"k1/2", "k2/2"}},
		{"max fps uses nested fallback", query.Filters{MaxFPS: ptr(25.0)}, []string{"k1/2"}},
		{"fps range drops missing", query.Filters{MinFPS: ptr(0.0)}, []string{"k1/1", "k1/2", "k2/2"}},
		{"bleeding range", query.Filters{MinBleeding: ptr(0.3), MaxBleeding: ptr(0.7)}, []string{"k1/2", "k2/1"}},
		{"conjunction", query.Filters{StepID: ptr(1), MinBleeding: ptr(0.3)}, []string{"k2/1"}},
		{"nothing matches", query.Filters{Q: "no such text"}, []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := e.Search(context.Background(), tc.f, 100, 0)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, keys(got))
		})
	}
}

func TestSearch_ResultsSatisfyEveryPredicate(t *testing.T) {
	var lines []string
	for i := 0; i < 60; i++ {
		lines = append(lines, fmt.Sprintf(`{"case_id":"c%02d","step_id":%d,"fps":%d,"metrics":{"bleeding_score":%g}}`,
			i%7, i%5, 10+i, float64(i%10)/10))
	}
	s, err := store.NewMemoryStoreFromLines(lines...)
	require.NoError(t, err)
	e := query.New(s)
	all, err := s.Load(context.Background())
	require.NoError(t, err)

	f := query.Filters{MinFPS: ptr(20.0), MaxFPS: ptr(55.0), MaxBleeding: ptr(0.5), StepID: ptr(3)}
	got, err := e.Search(context.Background(), f, 1000, 0)
	require.NoError(t, err)
	require.NotEmpty(t, got)

	inStore := make(map[*model.Record]bool, len(all))
	for _, r := range all {
		inStore[r] = true
	}
	for _, r := range got {
		assert.True(t, inStore[r], "result must come from the store")
		for _, keep := range f.Predicates() {
			assert.True(t, keep(r), "record %s/%d fails a predicate", r.CaseID, r.StepID)
		}
	}
}

func TestSearch_Pagination(t *testing.T) {
	var lines []string
	for i := 0; i < 25; i++ {
		lines = append(lines, fmt.Sprintf(`{"case_id":"c%d","step_id":%d}`, i, i))
	}
	s, err := store.NewMemoryStoreFromLines(lines...)
	require.NoError(t, err)
	e := query.New(s)
	ctx := context.Background()

	full, err := e.Search(ctx, query.Filters{}, 1<<30, 0)
	require.NoError(t, err)
	require.Len(t, full, 25)

	for _, pg := range []struct{ limit, offset int }{{10, 0}, {10, 20}, {5, 3}, {0, 0}, {100, 24}, {10, 25}, {10, 99}} {
		got, err := e.Search(ctx, query.Filters{}, pg.limit, pg.offset)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(got), pg.limit)
		for i, r := range got {
			assert.Same(t, full[pg.offset+i], r, "limit %d offset %d index %d", pg.limit, pg.offset, i)
		}
		if pg.offset >= len(full) {
			assert.Empty(t, got)
		}
	}
}

func TestPaginate(t *testing.T) {
	items := []int{0, 1, 2, 3, 4}
	assert.Equal(t, []int{1, 2}, query.Paginate(items, 2, 1))
	assert.Equal(t, []int{3, 4}, query.Paginate(items, 10, 3))
	assert.Equal(t, []int{}, query.Paginate(items, 2, 5))
	assert.Equal(t, []int{0, 1}, query.Paginate(items, 2, -4))
	assert.Equal(t, []int{}, query.Paginate(items, -1, 0))
	assert.Equal(t, []int{4}, query.Paginate(items, int(^uint(0)>>1), 4))
}

func TestStats_CasesExampleIsFirstTenSorted(t *testing.T) {
	var lines []string
	for i := 15; i > 0; i-- {
		lines = append(lines, fmt.Sprintf(`{"case_id":"case-%02d","step_id":1}`, i))
	}
	s, err := store.NewMemoryStoreFromLines(lines...)
	require.NoError(t, err)
	stats, err := query.New(s).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15, stats.NCases)
	assert.Equal(t, 1, stats.NSteps)
	require.Len(t, stats.CasesExample, 10)
	assert.Equal(t, "case-01", stats.CasesExample[0])
	assert.Equal(t, "case-10", stats.CasesExample[9])
}

type failingSource struct{ err error }

func (f failingSource) Load(context.Context) ([]*model.Record, error) { return nil, f.err }

func TestExecutor_PropagatesLoadErrors(t *testing.T) {
	e := query.New(failingSource{err: &aresmem.NotFoundError{What: "data file", Key: "/x"}})
	ctx := context.Background()

	_, err := e.Stats(ctx)
	assert.Equal(t, aresmem.ErrCodeNotFound, aresmem.ErrorCode(err))
	_, err = e.Search(ctx, query.Filters{}, 10, 0)
	assert.Error(t, err)
	_, err = e.ListCases(ctx, 10, 0)
	assert.Error(t, err)
	_, err = e.GetCase(ctx, "c1")
	assert.Error(t, err)
	_, err = e.GetStep(ctx, "c1", 1)
	assert.Error(t, err)
}

func TestSearch_ExplicitNullDoesNotFallBack(t *testing.T) {
	s, err := store.NewMemoryStoreFromLines(
		`{"case_id":"a","step_id":1,"fps":null,"video_meta":{"fps":24}}`,
		`{"case_id":"b","step_id":1,"video_meta":{"fps":24}}`,
	)
	require.NoError(t, err)
	got, err := query.New(s).Search(context.Background(), query.Filters{MinFPS: ptr(20.0)}, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b/1"}, keys(got))
}

func TestSearch_MatchesEscapedText(t *testing.T) {
	s, err := store.NewMemoryStoreFromLines(
		`{"case_id":"a","step_id":1,"rules_text":"dell\u0027arteria: \u00e8 necessaria"}`,
		`{"case_id":"b","step_id":1,"rules_text":"nessun sanguinamento"}`,
	)
	require.NoError(t, err)
	e := query.New(s)
	for _, q := range []string{"È necessaria", "dell'arteria"} {
		got, err := e.Search(context.Background(), query.Filters{Q: q}, 100, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"a/1"}, keys(got), "q=%q", q)
	}
}

func TestStats_LargeStepIDs(t *testing.T) {
	s, err := store.NewMemoryStoreFromLines(
		`{"case_id":"a","step_id":3000000000}`,
		`{"case_id":"b","step_id":"3000000000"}`,
	)
	require.NoError(t, err)
	stats, err := query.New(s).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalRecords)
	assert.Equal(t, []string{"a", "b"}, stats.CasesExample)
	assert.Equal(t, 1, stats.NSteps)
}
