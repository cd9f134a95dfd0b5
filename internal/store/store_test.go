package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"entgo.io/ent/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "studyplan.db"))
	require.NoError(t, err, "open test store")
	t.Cleanup(func() { s.Close() })
	return s
}

func twoTurns() []Turn {
	return []Turn{
		{Role: "user", Content: "prompt"},
		{Role: "assistant", Content: "plan"},
	}
}

func newTestPlan(studentID int, conv []Turn) NewPlan {
	return NewPlan{
		StudentID:     studentID,
		StartDate:     "2025-03-03",
		Availability:  map[string]int{"monday": 2, "tuesday": 0, "saturday": 4},
		Skills:        SkillLevels{Python: "beginner", SQL: "none", Cloud: "intermediate"},
		UsedGit:       true,
		Interests:     []string{"data engineering"},
		MainChallenge: "time",
		Conversation:  conv,
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		require.NoError(t, db.QueryRow("PRAGMA "+tt.pragma).Scan(&got), tt.pragma)
		assert.Equal(t, tt.want, got, "PRAGMA %s", tt.pragma)
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)

	for _, table := range []string{tableStudents, tablePlans, tableLLMEvents, tableSequence} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestGetOrCreateStudent_Idempotent(t *testing.T) {
	s := openTestStore(t)
	repo := s.Students()
	ctx := context.Background()

	first, err := repo.GetOrCreateStudent(ctx, "Ana", "ana@example.com")
	require.NoError(t, err)
	second, err := repo.GetOrCreateStudent(ctx, "Ana", "ana@example.com")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	var count int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM students").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestGetOrCreateStudent_RefreshesName(t *testing.T) {
	s := openTestStore(t)
	repo := s.Students()
	ctx := context.Background()

	first, err := repo.GetOrCreateStudent(ctx, "Ana", "ana@example.com")
	require.NoError(t, err)
	renamed, err := repo.GetOrCreateStudent(ctx, "Ana Souza", "ana@example.com")
	require.NoError(t, err)

	assert.Equal(t, first.ID, renamed.ID)
	assert.Equal(t, "Ana Souza", renamed.Name)

	var name string
	require.NoError(t, s.DB().QueryRow("SELECT name FROM students WHERE id = ?", first.ID).Scan(&name))
	assert.Equal(t, "Ana Souza", name)
}

func TestCreatePlan_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	st, err := s.Students().GetOrCreateStudent(ctx, "Ana", "ana@example.com")
	require.NoError(t, err)

	conv := twoTurns()
	created, err := s.Plans().CreatePlan(ctx, newTestPlan(st.ID, conv))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := s.Plans().GetPlan(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, conv, got.Conversation)
	assert.Equal(t, st.ID, got.StudentID)
	assert.Equal(t, "2025-03-03", got.StartDate)
	assert.Equal(t, map[string]int{"monday": 2, "tuesday": 0, "saturday": 4}, got.Availability)
	assert.Equal(t, SkillLevels{Python: "beginner", SQL: "none", Cloud: "intermediate"}, got.Skills)
	assert.True(t, got.UsedGit)
	assert.False(t, got.UsedDocker)
	assert.Equal(t, []string{"data engineering"}, got.Interests)
	assert.Equal(t, "time", got.MainChallenge)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestCreatePlan_RejectsShortConversation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	st, err := s.Students().GetOrCreateStudent(ctx, "Ana", "ana@example.com")
	require.NoError(t, err)

	_, err = s.Plans().CreatePlan(ctx, newTestPlan(st.ID, twoTurns()[:1]))
	assert.ErrorIs(t, err, ErrConversationTooShort)
}

func TestCreatePlan_UnknownStudentRollsBack(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Plans().CreatePlan(context.Background(), newTestPlan(999, twoTurns()))
	require.Error(t, err)

	var count int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM study_plans").Scan(&count))
	assert.Zero(t, count)
}

func TestAppendConversation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	st, err := s.Students().GetOrCreateStudent(ctx, "Ana", "ana@example.com")
	require.NoError(t, err)
	plan, err := s.Plans().CreatePlan(ctx, newTestPlan(st.ID, twoTurns()))
	require.NoError(t, err)

	conv := append(twoTurns(),
		Turn{Role: "user", Content: "make it shorter"},
		Turn{Role: "assistant", Content: "shorter plan"},
	)
	updated, err := s.Plans().AppendConversation(ctx, plan.ID, conv)
	require.NoError(t, err)
	assert.Equal(t, conv, updated.Conversation)
	assert.False(t, updated.UpdatedAt.Before(plan.UpdatedAt))

	got, err := s.Plans().GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, conv, got.Conversation)
}

func TestAppendConversation_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Plans().AppendConversation(context.Background(), 42, twoTurns())
	assert.True(t, IsNotFound(err), "expected ErrNotFound, got %v", err)
}

func TestAppendConversation_RejectsRewrite(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	st, err := s.Students().GetOrCreateStudent(ctx, "Ana", "ana@example.com")
	require.NoError(t, err)
	plan, err := s.Plans().CreatePlan(ctx, newTestPlan(st.ID, twoTurns()))
	require.NoError(t, err)

	tests := map[string][]Turn{
		"same length": twoTurns(),
		"reordered": {
			{Role: "assistant", Content: "plan"},
			{Role: "user", Content: "prompt"},
			{Role: "user", Content: "more"},
		},
		"edited history": {
			{Role: "user", Content: "other prompt"},
			{Role: "assistant", Content: "plan"},
			{Role: "user", Content: "more"},
		},
	}
	for name, conv := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.Plans().AppendConversation(ctx, plan.ID, conv)
			assert.ErrorIs(t, err, ErrConversationConflict)
		})
	}

	got, err := s.Plans().GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, twoTurns(), got.Conversation)
}

func TestListPlansByStudent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ana, err := s.Students().GetOrCreateStudent(ctx, "Ana", "ana@example.com")
	require.NoError(t, err)
	bruno, err := s.Students().GetOrCreateStudent(ctx, "Bruno", "bruno@example.com")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := s.Plans().CreatePlan(ctx, newTestPlan(ana.ID, twoTurns()))
		require.NoError(t, err)
	}
	_, err = s.Plans().CreatePlan(ctx, newTestPlan(bruno.ID, twoTurns()))
	require.NoError(t, err)

	plans, err := s.Plans().ListPlansByStudent(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Less(t, plans[0].ID, plans[1].ID)
}

func TestLLMEvents_AppendQueryAndUsage(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "plan-generate", InputTokens: 100, OutputTokens: 50, Success: true},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "chat-continue", InputTokens: 40, OutputTokens: 10, Success: true},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "chat-continue", Success: false, ErrorMessage: "boom"},
		{Provider: "gemini", Model: "gemini-2.0-flash", Purpose: "plan-generate", InputTokens: 7, OutputTokens: 3, Success: true},
	}
	for _, e := range events {
		require.NoError(t, repo.AppendLLMRequest(ctx, e))
	}

	got, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, int64(4), got[0].Sequence, "newest first")
	assert.Equal(t, "gemini", got[0].Provider)

	limited, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2, After: 1})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, int64(4), limited[0].Sequence)

	// The purpose filter applies before the limit.
	continued, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2, Purpose: "chat-continue"})
	require.NoError(t, err)
	require.Len(t, continued, 2)
	assert.Equal(t, int64(3), continued[0].Sequence)
	assert.Equal(t, int64(2), continued[1].Sequence)

	usage, err := repo.LLMUsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, usage, 2)
	assert.Equal(t, ModelUsage{Provider: "gemini", Model: "gemini-2.0-flash", Calls: 1, InputTokens: 7, OutputTokens: 3}, usage[0])
	assert.Equal(t, ModelUsage{Provider: "openai", Model: "gpt-4o-mini", Calls: 3, Failures: 1, InputTokens: 140, OutputTokens: 60}, usage[1])
}

func TestSequenceIsMonotonicUnderConcurrency(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "mock", Success: true})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, got, 10)
	seen := map[int64]bool{}
	for _, e := range got {
		seen[e.Sequence] = true
	}
	for i := int64(1); i <= 10; i++ {
		assert.True(t, seen[i], "missing sequence %d", i)
	}
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Run("explicit file", func(t *testing.T) {
		t.Setenv("STUDYPLAN_DB", filepath.Join(dir, "a", "x.db"))
		p, err := DefaultDBPath()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "a", "x.db"), p)
		assert.DirExists(t, filepath.Join(dir, "a"))
	})

	t.Run("directory override", func(t *testing.T) {
		t.Setenv("STUDYPLAN_DB", "")
		t.Setenv("STUDYPLAN_DB_DIR", filepath.Join(dir, "b"))
		p, err := DefaultDBPath()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "b", "studyplan.db"), p)
	})

	t.Run("xdg", func(t *testing.T) {
		t.Setenv("STUDYPLAN_DB", "")
		t.Setenv("STUDYPLAN_DB_DIR", "")
		t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "xdg"))
		p, err := DefaultDBPath()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "xdg", "studyplan", "studyplan.db"), p)
	})
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.withTx(ctx, func(tx dialect.Tx) error {
		_, err := insertStudent(ctx, tx, "Ghost", "ghost@example.com")
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = findStudentByEmail(ctx, s.drv, "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
