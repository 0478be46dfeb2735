package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/bitfantasy/labtrack/internal/lab/repository"
	"github.com/bitfantasy/labtrack/internal/lab/service"
	"github.com/bitfantasy/labtrack/internal/lab/testutil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func setupLabRequestHandlerTest(t *testing.T) *gin.Engine {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, zap.NewNop(), nil, "")
	h := NewHandlers(services)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")

	labRequests := api.Group("/lab-requests")
	labRequests.POST("", h.LabRequest.Create)
	labRequests.GET("", h.LabRequest.List)
	labRequests.GET("/export", h.LabRequest.Export)
	labRequests.GET("/:id/full", h.LabRequest.GetFull)
	labRequests.GET("/:id/timeline", h.LabRequest.Timeline)
	labRequests.PUT("/:id/status", h.LabRequest.UpdateStatus)
	labRequests.PUT("/:id/detailed-status", h.LabRequest.UpdateDetailedStatus)
	labRequests.POST("/:id/progress", h.LabRequest.AddProgress)
	labRequests.PUT("/:id/assign", h.LabRequest.AssignEngineer)
	labRequests.POST("/:id/schedule", h.LabRequest.CreateSchedule)
	labRequests.POST("/:id/quotes", h.Quote.Create)
	labRequests.PUT("/quotes/:quoteId/respond", h.Quote.Respond)

	return router
}

func createLabRequest(t *testing.T, router *gin.Engine, token string) string {
	t.Helper()
	w := testutil.DoRequest(router, "POST", "/api/v1/lab-requests", map[string]interface{}{
		"product_name": "Power Supply PSU-850",
		"service_type": "Safety",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	return data["id"].(string)
}

func TestCreateAndGetLabRequest(t *testing.T) {
	router := setupLabRequestHandlerTest(t)
	token := testutil.DefaultTestToken()

	id := createLabRequest(t, router, token)

	w := testutil.DoRequest(router, "GET", "/api/v1/lab-requests/"+id+"/full", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	request := data["request"].(map[string]interface{})

	if request["status"] != "Pending" {
		t.Errorf("status = %v, want Pending", request["status"])
	}
	if request["detailed_status"] != "Submitted" {
		t.Errorf("detailed_status = %v, want Submitted", request["detailed_status"])
	}
}

func TestCreateLabRequestValidation(t *testing.T) {
	router := setupLabRequestHandlerTest(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(router, "POST", "/api/v1/lab-requests", map[string]interface{}{
		"product_name": "No Service Type",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing service_type, got %d", w.Code)
	}
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	router := setupLabRequestHandlerTest(t)
	token := testutil.DefaultTestToken()

	id := createLabRequest(t, router, token)

	w := testutil.DoRequest(router, "PUT", "/api/v1/lab-requests/"+id+"/status", map[string]interface{}{
		"status": "Finished",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown status, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	router := setupLabRequestHandlerTest(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(router, "PUT", "/api/v1/lab-requests/nonexistent/status", map[string]interface{}{
		"status": "Completed",
	}, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLifecycleOverHTTP(t *testing.T) {
	router := setupLabRequestHandlerTest(t)
	token := testutil.DefaultTestToken()

	id := createLabRequest(t, router, token)

	// 分配工程师：Pending 自动流转
	w := testutil.DoRequest(router, "PUT", "/api/v1/lab-requests/"+id+"/assign", map[string]interface{}{
		"engineer_id": "eng-7",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("assign: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	// 进入 In Progress 后上报进度
	w = testutil.DoRequest(router, "PUT", "/api/v1/lab-requests/"+id+"/detailed-status", map[string]interface{}{
		"detailed_status": "In Progress",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("detailed-status: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(router, "POST", "/api/v1/lab-requests/"+id+"/progress", map[string]interface{}{
		"progress_percent": 75,
		"notes":            "emissions testing",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("progress: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(router, "GET", "/api/v1/lab-requests/"+id+"/full", nil, token)
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	request := data["request"].(map[string]interface{})

	if request["status"] != "In Progress" {
		t.Errorf("status = %v, want In Progress", request["status"])
	}
	msg := request["customer_message"].(string)
	if msg != "Calibration tests are 75% complete." {
		t.Errorf("customer_message = %q", msg)
	}
	if got := len(data["assignments"].([]interface{})); got != 1 {
		t.Errorf("assignments = %d, want 1", got)
	}
	if got := len(data["progress"].([]interface{})); got != 1 {
		t.Errorf("progress entries = %d, want 1", got)
	}
}

func TestQuoteWorkflowOverHTTP(t *testing.T) {
	router := setupLabRequestHandlerTest(t)
	token := testutil.DefaultTestToken()

	id := createLabRequest(t, router, token)

	w := testutil.DoRequest(router, "POST", "/api/v1/lab-requests/"+id+"/quotes", map[string]interface{}{
		"amount":        1500.0,
		"currency":      "USD",
		"quote_details": "Full safety evaluation",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("quote: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	quote := resp["data"].(map[string]interface{})
	quoteID := quote["id"].(string)

	// 报价发出后细分状态流转到 Quote Sent
	w = testutil.DoRequest(router, "GET", "/api/v1/lab-requests/"+id+"/full", nil, token)
	resp = testutil.ParseResponse(w)
	request := resp["data"].(map[string]interface{})["request"].(map[string]interface{})
	if request["detailed_status"] != "Quote Sent" {
		t.Errorf("detailed_status = %v, want Quote Sent", request["detailed_status"])
	}

	// 客户同意报价
	w = testutil.DoRequest(router, "PUT", "/api/v1/lab-requests/quotes/"+quoteID+"/respond", map[string]interface{}{
		"approve": true,
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("respond: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	if resp["data"].(map[string]interface{})["status"] != "approved" {
		t.Errorf("quote status = %v, want approved", resp["data"].(map[string]interface{})["status"])
	}

	w = testutil.DoRequest(router, "GET", "/api/v1/lab-requests/"+id+"/full", nil, token)
	resp = testutil.ParseResponse(w)
	request = resp["data"].(map[string]interface{})["request"].(map[string]interface{})
	if request["detailed_status"] != "Quote Approved" {
		t.Errorf("detailed_status = %v, want Quote Approved", request["detailed_status"])
	}

	// 已响应的报价不允许再次响应
	w = testutil.DoRequest(router, "PUT", "/api/v1/lab-requests/quotes/"+quoteID+"/respond", map[string]interface{}{
		"approve": false,
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("second respond: expected 400, got %d", w.Code)
	}
}

func TestTimelineEndpoint(t *testing.T) {
	router := setupLabRequestHandlerTest(t)
	token := testutil.DefaultTestToken()

	id := createLabRequest(t, router, token)

	w := testutil.DoRequest(router, "GET", "/api/v1/lab-requests/"+id+"/timeline", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	timeline := resp["data"].(map[string]interface{})["timeline"].([]interface{})
	if len(timeline) != 12 {
		t.Errorf("timeline length = %d, want 12", len(timeline))
	}
	first := timeline[0].(map[string]interface{})
	if first["name"] != "Submitted" || first["status"] != "current" {
		t.Errorf("first milestone = %v", first)
	}
}

func TestScheduleValidation(t *testing.T) {
	router := setupLabRequestHandlerTest(t)
	token := testutil.DefaultTestToken()

	id := createLabRequest(t, router, token)

	// 结束早于开始
	w := testutil.DoRequest(router, "POST", "/api/v1/lab-requests/"+id+"/schedule", map[string]interface{}{
		"engineer_id":    "eng-1",
		"start_datetime": "2026-09-10T10:00:00Z",
		"end_datetime":   "2026-09-10T09:00:00Z",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for inverted schedule, got %d", w.Code)
	}

	w = testutil.DoRequest(router, "POST", "/api/v1/lab-requests/"+id+"/schedule", map[string]interface{}{
		"engineer_id":    "eng-1",
		"start_datetime": "2026-09-10T09:00:00Z",
		"end_datetime":   "2026-09-10T17:00:00Z",
	}, token)
	if w.Code != http.StatusCreated {
		t.Errorf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestListLabRequests(t *testing.T) {
	router := setupLabRequestHandlerTest(t)
	token := testutil.DefaultTestToken()

	for i := 0; i < 3; i++ {
		w := testutil.DoRequest(router, "POST", "/api/v1/lab-requests", map[string]interface{}{
			"product_name": fmt.Sprintf("Device %d", i),
			"service_type": "EMC",
		}, token)
		if w.Code != http.StatusCreated {
			t.Fatalf("create %d: got %d", i, w.Code)
		}
	}

	w := testutil.DoRequest(router, "GET", "/api/v1/lab-requests", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	items := resp["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 3 {
		t.Errorf("items = %d, want 3", len(items))
	}
}

func TestUnauthorizedAccess(t *testing.T) {
	router := setupLabRequestHandlerTest(t)

	w := testutil.DoRequest(router, "GET", "/api/v1/lab-requests", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}
}
