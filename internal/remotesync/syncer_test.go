package remotesync

import (
	"context"
	"errors"
	"testing"

	"github.com/nhle/novatasks/internal/model"
	"github.com/nhle/novatasks/tests/testutil"
)

type fakeRemote struct {
	pushed  []model.Task
	pulled  []model.Task
	pushErr error
	pullErr error
}

func (f *fakeRemote) Push(_ context.Context, tasks []model.Task) (int, error) {
	if f.pushErr != nil {
		return 0, f.pushErr
	}
	f.pushed = tasks
	return len(tasks), nil
}

func (f *fakeRemote) Pull(context.Context) ([]model.Task, error) {
	return f.pulled, f.pullErr
}

func TestSyncerPushNotifiesSuccess(t *testing.T) {
	ctx := context.Background()
	tr := testutil.NewTestTracker(t)
	if _, err := tr.CreateTask(ctx, model.Task{Title: "Water plants"}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	remote := &fakeRemote{}
	n, err := NewSyncer(tr, remote, nil).Push(ctx)
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if n != 1 || len(remote.pushed) != 1 {
		t.Errorf("n = %d, pushed = %d", n, len(remote.pushed))
	}

	items := tr.Notifications()
	if len(items) == 0 || items[0].Kind != model.KindSuccess || items[0].Message != "Synced with remote database" {
		t.Errorf("notifications = %+v", items)
	}
}

func TestSyncerPushFailureNotifiesDanger(t *testing.T) {
	ctx := context.Background()
	tr := testutil.NewTestTracker(t)
	boom := errors.New("connection refused")

	_, err := NewSyncer(tr, &fakeRemote{pushErr: boom}, nil).Push(ctx)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	items := tr.Notifications()
	if len(items) != 1 || items[0].Kind != model.KindDanger {
		t.Errorf("notifications = %+v", items)
	}
}

func TestSyncerPullRemoteWins(t *testing.T) {
	ctx := context.Background()
	tr := testutil.NewTestTracker(t)
	local, err := tr.CreateTask(ctx, model.Task{Title: "Local title"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	remoteCopy := local
	remoteCopy.Title = "Remote title"
	remoteCopy.Priority = model.PriorityHigh
	remote := &fakeRemote{pulled: []model.Task{
		remoteCopy,
		{ID: "other", Title: "From phone", Status: model.StatusPending, Priority: model.PriorityLow},
	}}

	n, err := NewSyncer(tr, remote, nil).Pull(ctx)
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if n != 2 {
		t.Errorf("n = %d", n)
	}

	got, err := tr.Task(ctx, local.ID)
	if err != nil {
		t.Fatalf("Task: %v", err)
	}
	if got.Title != "Remote title" || got.Priority != model.PriorityHigh {
		t.Errorf("task = %+v", got)
	}
	all, _ := tr.Tasks(ctx)
	if len(all) != 2 {
		t.Errorf("len(tasks) = %d", len(all))
	}
	if items := tr.Notifications(); items[0].Message != "Pulled tasks from remote database" {
		t.Errorf("latest notification = %q", items[0].Message)
	}
}

func TestSyncerPullFailureLeavesTasks(t *testing.T) {
	ctx := context.Background()
	tr := testutil.NewTestTracker(t)
	if _, err := tr.CreateTask(ctx, model.Task{Title: "Keep me"}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	_, err := NewSyncer(tr, &fakeRemote{pullErr: &AuthError{URL: "x"}}, nil).Pull(ctx)
	if !IsAuthError(err) {
		t.Fatalf("err = %v", err)
	}
	all, _ := tr.Tasks(ctx)
	if len(all) != 1 {
		t.Errorf("len(tasks) = %d", len(all))
	}
}
