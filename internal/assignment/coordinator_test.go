package assignment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zepul/pipeline-service/internal/assignment"
	"zepul/pipeline-service/internal/auth"
	"zepul/pipeline-service/internal/pipeline"
	"zepul/pipeline-service/internal/storage/memory"
)

func newCoordinator(t *testing.T) (*assignment.Coordinator, *memory.AssignmentStore) {
	t.Helper()

	store := memory.NewAssignmentStore()
	store.AddJob(pipeline.Job{ID: "job-1", CompanyID: "acme", Title: "Backend Engineer"})

	directory := memory.NewDirectory()
	directory.AddActor(auth.Actor{ID: "admin-1", Role: auth.RoleAdmin})
	directory.AddActor(auth.Actor{ID: "mgr-1", Role: auth.RoleManager, CompanyID: "acme"})
	directory.AddActor(auth.Actor{ID: "mgr-2", Role: auth.RoleManager, CompanyID: "globex"})
	directory.AddActor(auth.Actor{ID: "rec-1", Role: auth.RoleRecruiter, CompanyID: "acme", ManagerID: "mgr-1"})
	directory.AddActor(auth.Actor{ID: "rec-2", Role: auth.RoleRecruiter, CompanyID: "acme", ManagerID: "mgr-1"})
	directory.AddActor(auth.Actor{ID: "rec-3", Role: auth.RoleRecruiter, CompanyID: "acme", ManagerID: "mgr-1"})

	return assignment.NewCoordinator(store, directory, auth.New(directory, store)), store
}

// Assign is a whole-set replace: the second call's set fully supersedes the
// first, it never accumulates.
func TestAssign_ReplacesEntireSet(t *testing.T) {
	coord, _ := newCoordinator(t)
	ctx := context.Background()

	got, err := coord.Assign(ctx, "mgr-1", "job-1", []string{"rec-1", "rec-2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"rec-1", "rec-2"}, got)

	got, err = coord.Assign(ctx, "mgr-1", "job-1", []string{"rec-2", "rec-3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"rec-2", "rec-3"}, got)

	current, err := coord.Assignees(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"rec-2", "rec-3"}, current, "rec-1 must be gone")
}

func TestAssign_DeduplicatesAndDropsEmpty(t *testing.T) {
	coord, _ := newCoordinator(t)

	got, err := coord.Assign(context.Background(), "mgr-1", "job-1",
		[]string{"rec-2", "rec-1", "rec-2", "", "rec-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"rec-1", "rec-2"}, got)
}

func TestAssign_EmptySetClearsJob(t *testing.T) {
	coord, store := newCoordinator(t)
	ctx := context.Background()

	_, err := coord.Assign(ctx, "mgr-1", "job-1", []string{"rec-1"})
	require.NoError(t, err)

	got, err := coord.Assign(ctx, "mgr-1", "job-1", nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	n, err := store.CountPickedJobs(ctx, "acme")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n, "a cleared job no longer counts as picked")
}

func TestAssign_JobNotFound(t *testing.T) {
	coord, _ := newCoordinator(t)

	_, err := coord.Assign(context.Background(), "mgr-1", "job-404", []string{"rec-1"})
	assert.ErrorIs(t, err, pipeline.ErrJobNotFound)
}

func TestAssign_Forbidden(t *testing.T) {
	coord, _ := newCoordinator(t)
	ctx := context.Background()

	// Recruiters never manage assignment sets; mgr-2 manages another company.
	for _, actor := range []string{"rec-1", "mgr-2", "ghost"} {
		_, err := coord.Assign(ctx, actor, "job-1", []string{"rec-1"})
		assert.ErrorIs(t, err, pipeline.ErrForbidden, "actor %s", actor)
	}
}

func TestAssign_AdminMayAssignAnywhere(t *testing.T) {
	coord, _ := newCoordinator(t)

	got, err := coord.Assign(context.Background(), "admin-1", "job-1", []string{"rec-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"rec-1"}, got)
}

func TestListAssignable_SortedReports(t *testing.T) {
	coord, _ := newCoordinator(t)

	got, err := coord.ListAssignable(context.Background(), "mgr-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"rec-1", "rec-2", "rec-3"}, got)

	none, err := coord.ListAssignable(context.Background(), "mgr-2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCountPickedJobs(t *testing.T) {
	coord, store := newCoordinator(t)
	ctx := context.Background()

	store.AddJob(pipeline.Job{ID: "job-2", CompanyID: "acme", Title: "SRE"})
	store.AddJob(pipeline.Job{ID: "job-3", CompanyID: "globex", Title: "Analyst"})

	_, err := coord.Assign(ctx, "mgr-1", "job-1", []string{"rec-1"})
	require.NoError(t, err)
	_, err = coord.Assign(ctx, "admin-1", "job-3", []string{"rec-1"})
	require.NoError(t, err)

	n, err := store.CountPickedJobs(ctx, "acme")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "job-2 has no recruiters, job-3 is another company's")
}
