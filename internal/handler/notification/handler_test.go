package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/global-vision-developer/adminpro-api/internal/middleware"
	"github.com/global-vision-developer/adminpro-api/internal/model"
	apperrors "github.com/global-vision-developer/adminpro-api/pkg/errors"
)

const testSecret = "test-secret"

type fakeService struct {
	lastActor  model.Actor
	lastSubmit *model.SubmitNotificationRequest
	result     *model.DispatchResult
	err        error
}

func (s *fakeService) Submit(_ context.Context, req *model.SubmitNotificationRequest, actor model.Actor) (*model.DispatchResult, error) {
	s.lastSubmit = req
	s.lastActor = actor
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *fakeService) Process(_ context.Context, _ *model.NotificationRequest) error {
	return fmt.Errorf("not implemented")
}

func (s *fakeService) Retry(_ context.Context, id uuid.UUID) (*model.DispatchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *fakeService) Get(_ context.Context, id uuid.UUID) (*model.NotificationRequest, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.NotificationRequest{ID: id}, nil
}

func (s *fakeService) List(_ context.Context, _, _ int) ([]*model.NotificationRequest, error) {
	return []*model.NotificationRequest{}, nil
}

func setupRouter(svc *fakeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	auth := middleware.NewAuthMiddleware(testSecret)
	api := engine.Group("/api/v1")
	api.Use(auth.Authenticate())
	NewHandler(svc).RegisterRoutes(api)

	return engine
}

func signToken(t *testing.T) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   "admin-1",
		"name":  "Admin",
		"email": "admin@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func doRequest(engine *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestSubmitRequiresAuthentication(t *testing.T) {
	engine := setupRouter(&fakeService{})

	w := doRequest(engine, http.MethodPost, "/api/v1/notifications", "", map[string]interface{}{
		"title": "t", "body": "b", "recipient_ids": []string{"u1"},
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitPassesActorFromToken(t *testing.T) {
	svc := &fakeService{result: &model.DispatchResult{
		RequestID: uuid.New(), SuccessCount: 1, Message: "delivered to 1 of 1 targets",
	}}
	engine := setupRouter(svc)

	w := doRequest(engine, http.MethodPost, "/api/v1/notifications", signToken(t), map[string]interface{}{
		"title": "t", "body": "b", "recipient_ids": []string{"u1"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, "admin-1", svc.lastActor.ID)
	assert.Equal(t, "admin@example.com", svc.lastActor.Email)
	require.NotNil(t, svc.lastSubmit)
	assert.Equal(t, []string{"u1"}, svc.lastSubmit.RecipientIDs)
}

func TestSubmitRejectsMalformedPayload(t *testing.T) {
	svc := &fakeService{}
	engine := setupRouter(svc)

	w := doRequest(engine, http.MethodPost, "/api/v1/notifications", signToken(t), map[string]interface{}{
		"title": "t",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.lastSubmit)
}

func TestSubmitMapsServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid argument", apperrors.InvalidArgument("title is required"), http.StatusBadRequest},
		{"internal", apperrors.Internal(fmt.Errorf("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := setupRouter(&fakeService{err: tt.err})
			w := doRequest(engine, http.MethodPost, "/api/v1/notifications", signToken(t), map[string]interface{}{
				"title": "t", "body": "b", "recipient_ids": []string{"u1"},
			})
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestGetRejectsInvalidID(t *testing.T) {
	engine := setupRouter(&fakeService{})

	w := doRequest(engine, http.MethodGet, "/api/v1/notifications/not-a-uuid", signToken(t), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetReturnsRecord(t *testing.T) {
	engine := setupRouter(&fakeService{})
	id := uuid.New()

	w := doRequest(engine, http.MethodGet, "/api/v1/notifications/"+id.String(), signToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string                    `json:"status"`
		Data   model.NotificationRequest `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, id, resp.Data.ID)
}

func TestRetryReturnsSummary(t *testing.T) {
	svc := &fakeService{result: &model.DispatchResult{SuccessCount: 2, FailureCount: 1}}
	engine := setupRouter(svc)

	w := doRequest(engine, http.MethodPost, "/api/v1/notifications/"+uuid.NewString()+"/retry", signToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data model.DispatchResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.SuccessCount)
	assert.Equal(t, 1, resp.Data.FailureCount)
}
