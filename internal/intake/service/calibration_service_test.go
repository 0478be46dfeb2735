package service

import (
	"context"
	"testing"

	"github.com/bitfantasy/labtrack/internal/intake/entity"
	"github.com/bitfantasy/labtrack/internal/intake/repository"
	labentity "github.com/bitfantasy/labtrack/internal/lab/entity"
	labrepo "github.com/bitfantasy/labtrack/internal/lab/repository"
	labservice "github.com/bitfantasy/labtrack/internal/lab/service"
	"github.com/bitfantasy/labtrack/internal/lab/testutil"
	"go.uber.org/zap"
)

func setupCalibrationTest(t *testing.T) (*CalibrationService, *labservice.LabRequestService, *labservice.SyncService, *repository.CalibrationRepository) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := labrepo.NewRepositories(db)
	labSvc := labservice.NewLabRequestService(repos, db, zap.NewNop())
	calRepo := repository.NewCalibrationRepository(db)
	calSvc := NewCalibrationService(calRepo, labSvc, zap.NewNop())

	syncSvc := labservice.NewSyncService(repos.Event, calRepo, nil, nil, zap.NewNop())
	labSvc.SetSyncService(syncSvc)

	return calSvc, labSvc, syncSvc, calRepo
}

func TestSubmitCreatesAndLinksLabRequest(t *testing.T) {
	calSvc, labSvc, _, _ := setupCalibrationTest(t)
	ctx := context.Background()

	created, err := calSvc.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Status != entity.CalibrationStatusDraft {
		t.Errorf("initial status = %q, want draft", created.Status)
	}

	if _, err := calSvc.SaveProductDetails(ctx, created.ID, SaveProductDetailsReq{
		EUTName:      "Oscilloscope OSC-9",
		Manufacturer: "WaveTech",
	}); err != nil {
		t.Fatalf("SaveProductDetails: %v", err)
	}

	submitted, err := calSvc.Submit(ctx, created.ID, SubmitReq{
		SelectedLabs: []string{"Lab Alpha"},
		Region:       "Europe",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if submitted.Status != entity.CalibrationStatusSubmitted {
		t.Errorf("status = %q, want submitted", submitted.Status)
	}
	if submitted.LabRequestID == nil {
		t.Fatal("expected lab request to be linked on submit")
	}

	full, err := labSvc.GetFull(ctx, *submitted.LabRequestID)
	if err != nil {
		t.Fatalf("GetFull: %v", err)
	}
	if full.Request.ProductName != "Oscilloscope OSC-9" {
		t.Errorf("lab request product = %q, want EUT name", full.Request.ProductName)
	}
	if full.Request.ServiceType != "Calibration" {
		t.Errorf("service type = %q, want Calibration", full.Request.ServiceType)
	}
}

func TestSubmitWithoutProductDetailsUsesFallbackName(t *testing.T) {
	calSvc, labSvc, _, _ := setupCalibrationTest(t)
	ctx := context.Background()

	created, _ := calSvc.Create(ctx)
	submitted, err := calSvc.Submit(ctx, created.ID, SubmitReq{SelectedLabs: []string{"Lab Beta"}})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if submitted.LabRequestID == nil {
		t.Fatal("expected lab request to be linked")
	}

	full, _ := labSvc.GetFull(ctx, *submitted.LabRequestID)
	want := "Calibration Request #" + created.RequestCode
	if full.Request.ProductName != want {
		t.Errorf("product name = %q, want %q", full.Request.ProductName, want)
	}
}

func TestResubmitDoesNotDuplicateLabRequest(t *testing.T) {
	calSvc, _, _, _ := setupCalibrationTest(t)
	ctx := context.Background()

	created, _ := calSvc.Create(ctx)
	first, err := calSvc.Submit(ctx, created.ID, SubmitReq{SelectedLabs: []string{"Lab Alpha"}})
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	second, err := calSvc.Submit(ctx, created.ID, SubmitReq{SelectedLabs: []string{"Lab Alpha", "Lab Beta"}})
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}

	if second.LabRequestID == nil || *second.LabRequestID != *first.LabRequestID {
		t.Errorf("resubmit relinked: first %v, second %v", first.LabRequestID, second.LabRequestID)
	}
}

func TestStatusSyncOverwritesCalibrationStatus(t *testing.T) {
	calSvc, labSvc, syncSvc, calRepo := setupCalibrationTest(t)
	ctx := context.Background()

	created, _ := calSvc.Create(ctx)
	submitted, err := calSvc.Submit(ctx, created.ID, SubmitReq{SelectedLabs: []string{"Lab Alpha"}})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := labSvc.SetStatus(ctx, *submitted.LabRequestID, labentity.StatusCompleted, "operator-1"); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if err := syncSvc.DispatchPending(ctx); err != nil {
		t.Fatalf("DispatchPending: %v", err)
	}

	after, err := calRepo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if after.Status != entity.CalibrationStatusCompleted {
		t.Errorf("calibration status = %q, want completed", after.Status)
	}
}

func TestStatusViewJoinsLabRequest(t *testing.T) {
	calSvc, labSvc, _, _ := setupCalibrationTest(t)
	ctx := context.Background()

	created, _ := calSvc.Create(ctx)
	submitted, _ := calSvc.Submit(ctx, created.ID, SubmitReq{SelectedLabs: []string{"Lab Alpha"}})

	if _, err := labSvc.SetDetailedStatus(ctx, *submitted.LabRequestID, "Quote Sent", "", "operator-1"); err != nil {
		t.Fatalf("SetDetailedStatus: %v", err)
	}

	view, err := calSvc.Status(ctx, created.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if view.DetailedStatus != "Quote Sent" {
		t.Errorf("detailed status = %q, want Quote Sent", view.DetailedStatus)
	}
	if !view.ActionRequired {
		t.Error("Quote Sent should require customer action")
	}
	if len(view.Timeline) != 12 {
		t.Errorf("timeline length = %d, want 12", len(view.Timeline))
	}
}

func TestStatusViewWithoutLink(t *testing.T) {
	calSvc, _, _, _ := setupCalibrationTest(t)
	ctx := context.Background()

	created, _ := calSvc.Create(ctx)
	view, err := calSvc.Status(ctx, created.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if view.Status != entity.CalibrationStatusDraft {
		t.Errorf("status = %q, want draft", view.Status)
	}
	if view.DetailedStatus != "" || view.Timeline != nil {
		t.Errorf("unlinked view should not carry lab fields: %+v", view)
	}
}
