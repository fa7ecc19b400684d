package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Tomlord1122/todo-api/internal/domain"
)

func strPtr(s string) *string { return &s }

func mustCreate(t require.TestingT, r TodoRepository, title string) domain.Todo {
	todo := domain.Todo{Title: title}
	require.NoError(t, r.Create(context.Background(), &todo))
	return todo
}

func TestMemoryRepositoryScenario(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTodoRepository()

	milk := mustCreate(t, r, "buy milk")
	assert.Equal(t, domain.Todo{ID: 1, Title: "buy milk"}, milk)

	dog := mustCreate(t, r, "walk dog")
	assert.Equal(t, int64(2), dog.ID)

	all, err := r.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []domain.Todo{milk, dog}, all)

	require.NoError(t, r.Delete(ctx, 1))

	_, err = r.FindByID(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrTodoNotFound)

	all, err = r.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []domain.Todo{dog}, all)
}

func TestMemoryRepositoryListPagination(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTodoRepository()
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		mustCreate(t, r, title)
	}

	tests := []struct {
		name        string
		skip, limit int
		want        []int64
	}{
		{"first page", 0, 2, []int64{1, 2}},
		{"middle page", 2, 2, []int64{3, 4}},
		{"short last page", 4, 2, []int64{5}},
		{"skip at end", 5, 10, []int64{}},
		{"skip beyond end", 50, 10, []int64{}},
		{"zero limit", 0, 0, []int64{}},
		{"negative skip clamps", -3, 2, []int64{1, 2}},
		{"negative limit clamps", 0, -1, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.List(ctx, tt.skip, tt.limit)
			require.NoError(t, err)
			ids := make([]int64, 0, len(got))
			for _, todo := range got {
				ids = append(ids, todo.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestMemoryRepositoryUpdateReplacesWholeRecord(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTodoRepository()

	todo := domain.Todo{Title: "buy milk", Description: strPtr("two litres")}
	require.NoError(t, r.Create(ctx, &todo))

	require.NoError(t, r.Update(ctx, &domain.Todo{ID: todo.ID, Title: "buy oat milk", IsCompleted: true}))

	got, err := r.FindByID(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, &domain.Todo{ID: 1, Title: "buy oat milk", IsCompleted: true}, got)
}

func TestMemoryRepositoryMissingID(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTodoRepository()
	mustCreate(t, r, "only")

	_, err := r.FindByID(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrTodoNotFound)
	assert.ErrorIs(t, r.Update(ctx, &domain.Todo{ID: 42, Title: "x"}), domain.ErrTodoNotFound)
	assert.ErrorIs(t, r.Delete(ctx, 42), domain.ErrTodoNotFound)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryRepositoryDoesNotReuseTailID(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTodoRepository()
	mustCreate(t, r, "a")
	b := mustCreate(t, r, "b")

	require.NoError(t, r.Delete(ctx, b.ID))
	c := mustCreate(t, r, "c")
	assert.Equal(t, int64(3), c.ID)
}

func TestMemoryRepositoryDeleteClearsVacatedSlot(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTodoRepository()
	for _, title := range []string{"a", "b", "c"} {
		todo := domain.Todo{Title: title, Description: strPtr(title + " details")}
		require.NoError(t, r.Create(ctx, &todo))
	}

	require.NoError(t, r.Delete(ctx, 1))

	require.Len(t, r.todos, 2)
	assert.Equal(t, []int64{2, 3}, []int64{r.todos[0].ID, r.todos[1].ID})
	// The slot past the new length must not keep the shifted record alive.
	vacated := r.todos[:len(r.todos)+1][len(r.todos)]
	assert.Equal(t, domain.Todo{}, vacated)
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTodoRepository()
	todo := domain.Todo{Title: "a", Description: strPtr("keep")}
	require.NoError(t, r.Create(ctx, &todo))

	*todo.Description = "caller edit"
	got, err := r.FindByID(ctx, todo.ID)
	require.NoError(t, err)
	*got.Description = "another edit"

	again, err := r.FindByID(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep", *again.Description)
}

func TestMemoryRepositoryConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTodoRepository()

	const n = 100
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			todo := domain.Todo{Title: "x"}
			if err := r.Create(ctx, &todo); err == nil {
				ids <- todo.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool, n)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestMemoryRepositoryHealth(t *testing.T) {
	r := NewMemoryTodoRepository()
	mustCreate(t, r, "a")

	h := r.Health()
	assert.Equal(t, "up", h["status"])
	assert.Equal(t, "1", h["todos"])
}

func TestMemoryRepositoryProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		r := NewMemoryTodoRepository()
		var last int64
		issued := map[int64]bool{}
		live := []int64{}

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			if len(live) > 0 && rapid.Bool().Draw(t, "delete") {
				idx := rapid.IntRange(0, len(live)-1).Draw(t, "idx")
				id := live[idx]
				if err := r.Delete(ctx, id); err != nil {
					t.Fatalf("delete %d: %v", id, err)
				}
				live = append(live[:idx], live[idx+1:]...)
				if _, err := r.FindByID(ctx, id); err != domain.ErrTodoNotFound {
					t.Fatalf("deleted id %d still found: %v", id, err)
				}
				continue
			}

			title := rapid.String().Draw(t, "title")
			todo := domain.Todo{Title: title}
			if err := r.Create(ctx, &todo); err != nil {
				t.Fatalf("create: %v", err)
			}
			if todo.ID <= last || issued[todo.ID] {
				t.Fatalf("id %d not strictly increasing after %d", todo.ID, last)
			}
			last = todo.ID
			issued[todo.ID] = true
			live = append(live, todo.ID)

			got, err := r.FindByID(ctx, todo.ID)
			if err != nil || got.Title != title {
				t.Fatalf("get after create: %v %+v", err, got)
			}
		}

		skip := rapid.IntRange(0, 70).Draw(t, "skip")
		limit := rapid.IntRange(0, 70).Draw(t, "limit")
		first, _ := r.List(ctx, skip, limit)
		second, _ := r.List(ctx, skip, limit)
		if len(first) != len(second) {
			t.Fatalf("list not idempotent: %d vs %d", len(first), len(second))
		}
		for i := range first {
			if first[i].ID != second[i].ID {
				t.Fatalf("list not idempotent at %d", i)
			}
		}
		if len(first) > limit {
			t.Fatalf("list returned %d > limit %d", len(first), limit)
		}
	})
}
