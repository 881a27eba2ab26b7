package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tasknest/internal/errors"
	"tasknest/internal/model"
	"tasknest/internal/repository"
	"tasknest/internal/storage"
)

func TestTaskService_AddTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemory())
	u := f.login(t, "grace@example.com", "pw")

	task, err := f.tasks.AddTask(ctx, u, model.TaskFields{Title: "  write report ", Description: "q3", DueDate: "2024-10-01"})
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "write report", task.Title)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.Equal(t, u.ID, task.UserID)
	assert.Equal(t, u.ID, task.CreatedBy)
	assert.False(t, task.CreatedAt.IsZero())

	owned, err := f.tasks.UserTasks(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, *task, owned[0])
}

func TestTaskService_AddTaskRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemory())
	u := f.login(t, "grace@example.com", "pw")

	tests := []struct {
		name          string
		actor         *model.User
		fields        model.TaskFields
		expectedError error
	}{
		{name: "anonymous", actor: nil, fields: model.TaskFields{Title: "x"}, expectedError: apperrors.ErrNotAuthenticated},
		{name: "missing title", actor: u, fields: model.TaskFields{Title: "  "}, expectedError: apperrors.ErrInvalidTask},
		{name: "bad priority", actor: u, fields: model.TaskFields{Title: "x", Priority: "urgent"}, expectedError: apperrors.ErrInvalidTask},
		{name: "bad due date", actor: u, fields: model.TaskFields{Title: "x", DueDate: "tomorrow"}, expectedError: apperrors.ErrInvalidTask},
		{name: "unknown assignee", actor: u, fields: model.TaskFields{Title: "x", AssignedTo: "ghost"}, expectedError: apperrors.ErrInvalidAssignee},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := f.tasks.AddTask(ctx, tt.actor, tt.fields)
			assert.ErrorIs(t, err, tt.expectedError)
			assert.Nil(t, task)
		})
	}

	all, err := f.tasks.AllTasks(ctx, u)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTaskService_UpdateTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemory())
	admin := f.admin1(t)
	owner := f.login(t, "grace@example.com", "pw")
	stranger := f.login(t, "eve@example.com", "pw")

	task, err := f.tasks.AddTask(ctx, owner, model.TaskFields{Title: "draft", Priority: model.PriorityLow})
	require.NoError(t, err)

	tests := []struct {
		name          string
		actor         *model.User
		patch         model.TaskPatch
		expectedError error
		expectedTitle string
	}{
		{name: "anonymous", actor: nil, patch: model.TaskPatch{Title: ptr("nope")}, expectedError: apperrors.ErrNotAuthenticated, expectedTitle: "draft"},
		{name: "stranger", actor: stranger, patch: model.TaskPatch{Title: ptr("pwned")}, expectedError: apperrors.ErrUnauthorized, expectedTitle: "draft"},
		{name: "stranger completion", actor: stranger, patch: model.TaskPatch{Completed: ptr(true)}, expectedError: apperrors.ErrUnauthorized, expectedTitle: "draft"},
		{name: "owner", actor: owner, patch: model.TaskPatch{Title: ptr("final")}, expectedTitle: "final"},
		{name: "admin", actor: admin, patch: model.TaskPatch{Title: ptr("approved")}, expectedTitle: "approved"},
		{name: "invalid patch", actor: owner, patch: model.TaskPatch{Priority: ptr(model.Priority("urgent"))}, expectedError: apperrors.ErrInvalidTask, expectedTitle: "approved"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tasks.UpdateTask(ctx, tt.actor, task.ID, tt.patch)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			got, err := f.tasks.GetTask(ctx, task.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedTitle, got.Title)
			assert.Equal(t, owner.ID, got.UserID, "ownership never changes")
		})
	}

	_, err = f.tasks.UpdateTask(ctx, owner, "missing", model.TaskPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)
}

func TestTaskService_UnauthorizedMutationLeavesTaskIntact(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemory())
	owner := f.login(t, "grace@example.com", "pw")
	stranger := f.login(t, "eve@example.com", "pw")

	task, err := f.tasks.AddTask(ctx, owner, model.TaskFields{Title: "keep me", Description: "d", Priority: model.PriorityHigh})
	require.NoError(t, err)
	before, err := f.tasks.AllTasks(ctx, owner)
	require.NoError(t, err)

	_, err = f.tasks.UpdateTask(ctx, stranger, task.ID, model.TaskPatch{Title: ptr("x"), Completed: ptr(true)})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.ErrorIs(t, f.tasks.DeleteTask(ctx, stranger, task.ID), apperrors.ErrUnauthorized)

	after, err := f.tasks.AllTasks(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

// Regression: one prototype deleted the task exactly when the actor was NOT allowed to.
func TestTaskService_DeleteOnlyWhenAuthorized(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemory())
	admin := f.admin1(t)
	owner := f.login(t, "grace@example.com", "pw")
	stranger := f.login(t, "eve@example.com", "pw")

	mine, err := f.tasks.AddTask(ctx, owner, model.TaskFields{Title: "mine"})
	require.NoError(t, err)
	other, err := f.tasks.AddTask(ctx, owner, model.TaskFields{Title: "other"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.tasks.DeleteTask(ctx, stranger, mine.ID), apperrors.ErrUnauthorized)
	_, err = f.tasks.GetTask(ctx, mine.ID)
	assert.NoError(t, err, "unauthorized delete must keep the task")

	require.NoError(t, f.tasks.DeleteTask(ctx, owner, mine.ID))
	_, err = f.tasks.GetTask(ctx, mine.ID)
	assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)

	require.NoError(t, f.tasks.DeleteTask(ctx, admin, other.ID))
	_, err = f.tasks.GetTask(ctx, other.ID)
	assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)

	assert.ErrorIs(t, f.tasks.DeleteTask(ctx, admin, other.ID), apperrors.ErrTaskNotFound)
	assert.ErrorIs(t, f.tasks.DeleteTask(ctx, nil, other.ID), apperrors.ErrNotAuthenticated)
}

func TestTaskService_AllTasks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemory())
	admin := f.admin1(t)
	u := f.user2(t)
	grace := f.login(t, "grace@example.com", "pw")

	t1, err := f.tasks.AddTask(ctx, grace, model.TaskFields{Title: "grace's"})
	require.NoError(t, err)
	t2, err := f.tasks.AddTask(ctx, admin, model.TaskFields{Title: "for user", AssignedTo: u.ID})
	require.NoError(t, err)
	t3, err := f.tasks.AddTask(ctx, u, model.TaskFields{Title: "user's own"})
	require.NoError(t, err)
	t4, err := f.tasks.AddTask(ctx, admin, model.TaskFields{Title: "admin only"})
	require.NoError(t, err)

	all, err := f.tasks.AllTasks(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, []string{t1.ID, t2.ID, t3.ID, t4.ID}, taskIDs(all))

	visible, err := f.tasks.AllTasks(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, []string{t2.ID, t3.ID}, taskIDs(visible))

	visible, err = f.tasks.AllTasks(ctx, grace)
	require.NoError(t, err)
	assert.Equal(t, []string{t1.ID}, taskIDs(visible))

	none, err := f.tasks.AllTasks(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	assigned, err := f.tasks.AssignedTasks(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{t2.ID}, taskIDs(assigned))
}

// Admin "1" assigns T1 to user "2". The assignee may complete it, nothing more.
func TestTaskService_AssigneeMayOnlyToggleCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemory())
	admin := f.admin1(t)
	assignee := f.user2(t)
	require.Equal(t, "1", admin.ID)
	require.Equal(t, "2", assignee.ID)

	t1, err := f.tasks.AddTask(ctx, admin, model.TaskFields{Title: "T1", AssignedTo: assignee.ID})
	require.NoError(t, err)

	done, err := f.tasks.UpdateTask(ctx, assignee, t1.ID, model.TaskPatch{Completed: ptr(true)})
	require.NoError(t, err)
	assert.True(t, done.Completed)
	assert.Equal(t, admin.ID, done.UserID)

	_, err = f.tasks.UpdateTask(ctx, assignee, t1.ID, model.TaskPatch{Title: ptr("renamed")})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = f.tasks.UpdateTask(ctx, assignee, t1.ID, model.TaskPatch{Completed: ptr(false), AssignedTo: ptr("")})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.ErrorIs(t, f.tasks.DeleteTask(ctx, assignee, t1.ID), apperrors.ErrUnauthorized)

	got, err := f.tasks.GetTask(ctx, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, "T1", got.Title)
	assert.True(t, got.Completed)
}

func TestTaskService_RoundTripAcrossRestart(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	f := newFixture(t, store)
	admin := f.admin1(t)
	u := f.user2(t)

	for _, title := range []string{"c", "a", "b"} {
		_, err := f.tasks.AddTask(ctx, admin, model.TaskFields{Title: title, AssignedTo: u.ID, DueDate: "2025-01-31"})
		require.NoError(t, err)
	}
	before, err := f.tasks.AllTasks(ctx, admin)
	require.NoError(t, err)

	restarted := newFixture(t, store)
	after, err := restarted.tasks.AllTasks(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestTaskService_WritesKeepOtherProcessesTasks(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	server := newFixture(t, store)
	importer := newFixture(t, store)
	admin := server.admin1(t)

	// The server has loaded the collection before the import lands.
	all, err := server.tasks.AllTasks(ctx, admin)
	require.NoError(t, err)
	require.Empty(t, all)

	imported, err := importer.tasks.AddTask(ctx, admin, model.TaskFields{Title: "imported"})
	require.NoError(t, err)
	added, err := server.tasks.AddTask(ctx, admin, model.TaskFields{Title: "added"})
	require.NoError(t, err)

	persisted, err := repository.NewTaskRepository(store).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{imported.ID, added.ID}, taskIDs(persisted))

	all, err = server.tasks.AllTasks(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, []string{imported.ID, added.ID}, taskIDs(all))
}

func TestTaskService_FailedPersistLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	store := &failingStorage{Memory: storage.NewMemory()}
	f := newFixture(t, store)
	u := f.login(t, "grace@example.com", "pw")

	task, err := f.tasks.AddTask(ctx, u, model.TaskFields{Title: "stable"})
	require.NoError(t, err)

	store.failWrites = true
	_, err = f.tasks.AddTask(ctx, u, model.TaskFields{Title: "lost"})
	assert.ErrorIs(t, err, errDiskFull)
	_, err = f.tasks.UpdateTask(ctx, u, task.ID, model.TaskPatch{Title: ptr("changed")})
	assert.ErrorIs(t, err, errDiskFull)
	assert.ErrorIs(t, f.tasks.DeleteTask(ctx, u, task.ID), errDiskFull)

	all, err := f.tasks.AllTasks(ctx, u)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "stable", all[0].Title)

	persisted, err := repository.NewTaskRepository(store).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, all, persisted)
}

func TestTaskService_Subscribe(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemory())
	u := f.login(t, "grace@example.com", "pw")

	var seen [][]model.Task
	unsubscribe := f.tasks.Subscribe(func(tasks []model.Task) { seen = append(seen, tasks) })

	task, err := f.tasks.AddTask(ctx, u, model.TaskFields{Title: "one"})
	require.NoError(t, err)
	_, err = f.tasks.UpdateTask(ctx, u, task.ID, model.TaskPatch{Completed: ptr(true)})
	require.NoError(t, err)
	_, err = f.tasks.UpdateTask(ctx, nil, task.ID, model.TaskPatch{Completed: ptr(false)})
	require.Error(t, err)

	require.Len(t, seen, 2, "refused operations do not notify")
	assert.False(t, seen[0][0].Completed)
	assert.True(t, seen[1][0].Completed)

	unsubscribe()
	require.NoError(t, f.tasks.DeleteTask(ctx, u, task.ID))
	assert.Len(t, seen, 2)
}

func TestTaskService_RemoveTasksFor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemory())
	admin := f.admin1(t)
	u := f.user2(t)

	_, err := f.tasks.AddTask(ctx, admin, model.TaskFields{Title: "assigned", AssignedTo: u.ID})
	require.NoError(t, err)
	_, err = f.tasks.AddTask(ctx, u, model.TaskFields{Title: "owned"})
	require.NoError(t, err)
	kept, err := f.tasks.AddTask(ctx, admin, model.TaskFields{Title: "unrelated"})
	require.NoError(t, err)

	removed, err := f.tasks.RemoveTasksFor(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	all, err := f.tasks.AllTasks(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, []string{kept.ID}, taskIDs(all))
}

func TestFilterTasks(t *testing.T) {
	tasks := []model.Task{{ID: "a"}, {ID: "b", Completed: true}, {ID: "c"}}

	assert.Equal(t, []string{"a", "b", "c"}, taskIDs(FilterTasks(tasks, model.FilterAll)))
	assert.Equal(t, []string{"a", "c"}, taskIDs(FilterTasks(tasks, model.FilterActive)))
	assert.Equal(t, []string{"b"}, taskIDs(FilterTasks(tasks, model.FilterCompleted)))
}

func taskIDs(tasks []model.Task) []string {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return ids
}
