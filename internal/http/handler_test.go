package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"waste-collector.com/waste-collector/internal/constants"
	apperrors "waste-collector.com/waste-collector/internal/errors"
	model "waste-collector.com/waste-collector/internal/models"
	"waste-collector.com/waste-collector/internal/queue"
	repository "waste-collector.com/waste-collector/internal/repositories"
	"waste-collector.com/waste-collector/internal/rewards"
	"waste-collector.com/waste-collector/internal/services"
	"waste-collector.com/waste-collector/internal/verification"
)

const emailHeader = "X-Forwarded-Email"

type stubVision struct {
	text string
}

func (s *stubVision) Verify(ctx context.Context, claim verification.Claim, image []byte) (string, error) {
	if s.text == "" {
		return "", errors.New("vision offline")
	}
	return s.text, nil
}

func (s *stubVision) Ping(ctx context.Context) (string, error) { return "ready", nil }

func (s *stubVision) Close() error { return nil }

type testServer struct {
	e      *echo.Echo
	tasks  *repository.TaskRepository
	users  *repository.UserRepository
	vision *stubVision
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	tasks := repository.NewTaskRepository(db)
	users := repository.NewUserRepository(db)
	vision := &stubVision{text: `{"wasteTypeMatch": true, "quantityMatch": true, "confidence": 0.9}`}

	taskService := services.NewTaskService(tasks, users, 0)
	verificationService := services.NewVerificationService(
		tasks, vision, queue.NewMemoryTokenManager(1),
		rewards.Policy{BasePoints: 10, PointsPerUnit: 1},
		services.RetryPolicy{MaxAttempts: 3, MinConfidence: 0.7},
	)
	rewardService := services.NewRewardService(repository.NewRewardRepository(db), tasks)

	e := echo.New()
	Register(e, NewHandler(taskService, verificationService, rewardService, 1<<20), RouteConfig{
		RateLimitPerMinute:  rateLimit,
		IdentityEmailHeader: emailHeader,
		IdentityNameHeader:  "X-Forwarded-User",
		MaxImageBytes:       1 << 20,
	})

	return &testServer{e: e, tasks: tasks, users: users, vision: vision}
}

func (s *testServer) do(req *http.Request, email string) *httptest.ResponseRecorder {
	if email != "" {
		req.Header.Set(emailHeader, email)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) user(t *testing.T, email string) *model.User {
	u, err := s.users.Upsert(context.Background(), email, email)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (s *testServer) task(t *testing.T, location string) *model.Task {
	task, err := s.tasks.CreateTask(context.Background(), location, "plastic", "3 kg", time.Now())
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func multipartImage(t *testing.T, data []byte) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("image", "photo.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write(data)
	_ = w.Close()
	return body, w.FormDataContentType()
}

func TestHandler_ListTasks(t *testing.T) {
	s := newTestServer(t, 100)
	for i := 0; i < 12; i++ {
		s.task(t, fmt.Sprintf("Block %d", i))
	}

	rec := s.do(httptest.NewRequest(http.MethodGet, "/tasks?page=3&page_size=5", nil), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var page services.TaskPage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Tasks) != 2 || page.PageCount != 3 {
		t.Errorf("expected 2 tasks on the last of 3 pages, got %d of %d", len(page.Tasks), page.PageCount)
	}

	rec = s.do(httptest.NewRequest(http.MethodGet, "/tasks?page=4611686018427387904&page_size=4", nil), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("far page: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	page = services.TaskPage{}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode far page: %v", err)
	}
	if len(page.Tasks) != 0 || page.Total != 12 {
		t.Errorf("expected an empty far page over 12 tasks, got %d of %d", len(page.Tasks), page.Total)
	}

	rec = s.do(httptest.NewRequest(http.MethodGet, "/tasks?page=abc", nil), "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad page, got %d", rec.Code)
	}
}

func TestHandler_ClaimRequiresIdentity(t *testing.T) {
	s := newTestServer(t, 100)
	task := s.task(t, "Quay")

	rec := s.do(httptest.NewRequest(http.MethodPost, fmt.Sprintf("/tasks/%d/claim", task.ID), nil), "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}

	rec = s.do(httptest.NewRequest(http.MethodPost, fmt.Sprintf("/tasks/%d/claim", task.ID), nil), "stranger@example.com")
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for unknown user, got %d", rec.Code)
	}
}

func TestHandler_ClaimAndVerify(t *testing.T) {
	s := newTestServer(t, 100)
	s.user(t, "ana@example.com")
	s.user(t, "ben@example.com")
	task := s.task(t, "Canal")

	claimURL := fmt.Sprintf("/tasks/%d/claim", task.ID)
	verifyURL := fmt.Sprintf("/tasks/%d/verify", task.ID)

	if rec := s.do(httptest.NewRequest(http.MethodPost, claimURL, nil), "ana@example.com"); rec.Code != http.StatusOK {
		t.Fatalf("claim: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(httptest.NewRequest(http.MethodPost, claimURL, nil), "ben@example.com"); rec.Code != http.StatusConflict {
		t.Errorf("second claim: expected 409, got %d", rec.Code)
	}

	body, contentType := multipartImage(t, []byte("\xff\xd8\xff\xe0photo"))
	req := httptest.NewRequest(http.MethodPost, verifyURL, body)
	req.Header.Set(echo.HeaderContentType, contentType)
	if rec := s.do(req, "ben@example.com"); rec.Code != http.StatusForbidden {
		t.Errorf("non-claimant verify: expected 403, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, verifyURL, nil)
	req.Header.Set(echo.HeaderContentType, "image/jpeg")
	if rec := s.do(req, "ana@example.com"); rec.Code != http.StatusBadRequest {
		t.Errorf("empty image: expected 400, got %d", rec.Code)
	}

	body, contentType = multipartImage(t, []byte("\xff\xd8\xff\xe0photo"))
	req = httptest.NewRequest(http.MethodPost, verifyURL, body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := s.do(req, "ana@example.com")
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var settlement services.Settlement
	if err := json.Unmarshal(rec.Body.Bytes(), &settlement); err != nil {
		t.Fatalf("decode settlement: %v", err)
	}
	if settlement.Task.Status != constants.StatusVerified || settlement.Reward.Points != 13 {
		t.Errorf("unexpected settlement %+v / %+v", settlement.Task, settlement.Reward)
	}

	body, contentType = multipartImage(t, []byte("\xff\xd8\xff\xe0photo"))
	req = httptest.NewRequest(http.MethodPost, verifyURL, body)
	req.Header.Set(echo.HeaderContentType, contentType)
	if rec := s.do(req, "ana@example.com"); rec.Code != http.StatusConflict {
		t.Errorf("repeat verify: expected 409, got %d", rec.Code)
	}

	rec = s.do(httptest.NewRequest(http.MethodGet, "/rewards/me", nil), "ana@example.com")
	var balance services.Balance
	if err := json.Unmarshal(rec.Body.Bytes(), &balance); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if balance.Total != 13 || len(balance.Rewards) != 1 {
		t.Errorf("expected a single 13-point reward, got %+v", balance)
	}
}

func TestHandler_VerifyRejectedCarriesResult(t *testing.T) {
	s := newTestServer(t, 100)
	s.vision.text = `{"wasteTypeMatch": false, "quantityMatch": true, "confidence": 0.88}`
	u := s.user(t, "ana@example.com")
	task := s.task(t, "Depot")
	if _, err := s.tasks.UpdateTaskStatus(context.Background(), task.ID, constants.StatusPending, constants.StatusInProgress, u.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/tasks/%d/verify", task.ID), bytes.NewReader([]byte("\xff\xd8\xff\xe0photo")))
	req.Header.Set(echo.HeaderContentType, "image/jpeg")
	rec := s.do(req, "ana@example.com")

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Result verification.Result `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Result.WasteTypeMatch || payload.Result.Confidence != 0.88 {
		t.Errorf("expected verdict in response, got %+v", payload.Result)
	}
}

func TestHandler_GetTask(t *testing.T) {
	s := newTestServer(t, 100)
	task := s.task(t, "Pier")

	if rec := s.do(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/tasks/%d", task.ID), nil), ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec := s.do(httptest.NewRequest(http.MethodGet, "/tasks/999", nil), ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if rec := s.do(httptest.NewRequest(http.MethodGet, "/tasks/zero", nil), ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_Impact(t *testing.T) {
	s := newTestServer(t, 100)
	s.task(t, "One")
	s.task(t, "Two")

	rec := s.do(httptest.NewRequest(http.MethodGet, "/impact", nil), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var impact rewards.Impact
	if err := json.Unmarshal(rec.Body.Bytes(), &impact); err != nil {
		t.Fatalf("decode impact: %v", err)
	}
	if impact.ReportsSubmitted != 2 || impact.WasteCollected.String() != "6" {
		t.Errorf("unexpected impact %+v", impact)
	}
}

func TestHandler_RateLimit(t *testing.T) {
	s := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		if rec := s.do(httptest.NewRequest(http.MethodGet, "/impact", nil), ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}

	if rec := s.do(httptest.NewRequest(http.MethodGet, "/impact", nil), ""); rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}

	if rec := s.do(httptest.NewRequest(http.MethodGet, "/impact", nil), "ana@example.com"); rec.Code != http.StatusOK {
		t.Errorf("signed-in operator has its own budget, got %d", rec.Code)
	}
}

func TestHandler_CanceledRequestIsNotServerError(t *testing.T) {
	s := newTestServer(t, 100)
	s.user(t, "ana@example.com")
	task := s.task(t, "Pier")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/tasks/%d/verify", task.ID), bytes.NewReader([]byte("\xff\xd8\xff\xe0photo")))
	req.Header.Set(echo.HeaderContentType, "image/jpeg")
	rec := s.do(req.WithContext(ctx), "ana@example.com")

	if rec.Code != apperrors.ErrRequestCanceled.StatusCode {
		t.Errorf("expected %d for a canceled request, got %d", apperrors.ErrRequestCanceled.StatusCode, rec.Code)
	}
}
