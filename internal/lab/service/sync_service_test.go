package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bitfantasy/labtrack/internal/lab/entity"
	"github.com/bitfantasy/labtrack/internal/lab/repository"
	"github.com/bitfantasy/labtrack/internal/lab/testutil"
	"go.uber.org/zap"
)

// stubOriginating 记录覆写调用的发起方协作方测试替身
type stubOriginating struct {
	statuses map[string]string
	err      error
	calls    int
}

func (s *stubOriginating) OverwriteStatus(ctx context.Context, labRequestID, newStatus string) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	if s.statuses == nil {
		s.statuses = make(map[string]string)
	}
	s.statuses[labRequestID] = newStatus
	return nil
}

func setupSyncTest(t *testing.T, originating OriginatingRequests) (*LabRequestService, *SyncService, *repository.Repositories) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	labSvc := NewLabRequestService(repos, db, zap.NewNop())
	syncSvc := NewSyncService(repos.Event, originating, nil, nil, zap.NewNop())
	labSvc.SetSyncService(syncSvc)
	return labSvc, syncSvc, repos
}

func TestProjectStatus(t *testing.T) {
	cases := map[string]string{
		entity.StatusPending:    "submitted",
		entity.StatusInProgress: "in_progress",
		entity.StatusCompleted:  "completed",
		entity.StatusRejected:   "rejected",
		"Bogus":                 "submitted",
	}
	for in, want := range cases {
		if got := ProjectStatus(in); got != want {
			t.Errorf("ProjectStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDispatchOverwritesOriginatingStatus(t *testing.T) {
	stub := &stubOriginating{}
	labSvc, syncSvc, repos := setupSyncTest(t, stub)
	ctx := context.Background()

	req := mustCreate(t, labSvc)
	if _, err := labSvc.SetStatus(ctx, req.ID, entity.StatusCompleted, "operator-1"); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	if err := syncSvc.DispatchPending(ctx); err != nil {
		t.Fatalf("DispatchPending: %v", err)
	}

	if stub.statuses[req.ID] != "completed" {
		t.Errorf("originating status = %q, want completed", stub.statuses[req.ID])
	}
	if n, _ := repos.Event.CountPending(ctx, req.ID); n != 0 {
		t.Errorf("expected no pending events after dispatch, got %d", n)
	}
}

func TestDispatchFailureKeepsEventPending(t *testing.T) {
	stub := &stubOriginating{err: errors.New("originating store unavailable")}
	labSvc, syncSvc, repos := setupSyncTest(t, stub)
	ctx := context.Background()

	req := mustCreate(t, labSvc)
	if _, err := labSvc.SetStatus(ctx, req.ID, entity.StatusInProgress, "operator-1"); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	if err := syncSvc.DispatchPending(ctx); err != nil {
		t.Fatalf("DispatchPending: %v", err)
	}

	// 失败：事件保持pending，重试计数+1，源变更不受影响
	events, err := repos.Event.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 pending event after failed dispatch, got %d", len(events))
	}
	if events[0].Attempts != 1 {
		t.Errorf("attempts = %d, want 1", events[0].Attempts)
	}
	if events[0].LastError == "" {
		t.Error("expected last_error to be recorded")
	}

	// 恢复后重试成功
	stub.err = nil
	if err := syncSvc.DispatchPending(ctx); err != nil {
		t.Fatalf("retry DispatchPending: %v", err)
	}
	if n, _ := repos.Event.CountPending(ctx, req.ID); n != 0 {
		t.Errorf("expected event dispatched after retry, got %d pending", n)
	}
	if stub.statuses[req.ID] != "in_progress" {
		t.Errorf("originating status = %q, want in_progress", stub.statuses[req.ID])
	}
}

func TestDispatchWithoutLinkedRequestSucceeds(t *testing.T) {
	stub := &stubOriginating{err: ErrNoLinkedRequest}
	labSvc, syncSvc, repos := setupSyncTest(t, stub)
	ctx := context.Background()

	req := mustCreate(t, labSvc)
	if _, err := labSvc.SetStatus(ctx, req.ID, entity.StatusRejected, "operator-1"); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	if err := syncSvc.DispatchPending(ctx); err != nil {
		t.Fatalf("DispatchPending: %v", err)
	}

	// 委托单可独立存在：无关联按已投递处理
	if n, _ := repos.Event.CountPending(ctx, req.ID); n != 0 {
		t.Errorf("expected no pending events, got %d", n)
	}
	if stub.calls != 1 {
		t.Errorf("expected 1 overwrite attempt, got %d", stub.calls)
	}
}
