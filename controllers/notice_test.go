package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"polizas-backend/models"
	"polizas-backend/services"
	"polizas-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type staticIdentities map[uuid.UUID]*services.Identity

func (s staticIdentities) Resolve(ctx context.Context, userID uuid.UUID) (*services.Identity, error) {
	if id, ok := s[userID]; ok {
		return id, nil
	}
	return nil, services.ErrNotAuthenticated
}

type noticeAPI struct {
	router *gin.Engine
	store  *services.MemoryNoticeStore
	policy models.Policy
	token  string
}

func newNoticeAPI(t *testing.T) *noticeAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := services.NewMemoryNoticeStore()
	policy := store.AddPolicy(models.Policy{
		Branch:  models.BranchAutomotores,
		Client:  &models.Client{ID: uuid.New(), FullName: "Juan Pérez"},
		Company: &models.Company{ID: uuid.New(), Name: "Sancor"},
	})
	today := models.NewDate(2024, time.March, 1)
	notices := services.NewNoticeService(store, nil, services.WithClock(func() time.Time { return today.Time }))

	userID := uuid.New()
	token, err := utils.GenerateToken(userID.String(), testSecret, time.Hour)
	require.NoError(t, err)

	h := &NoticeController{
		Notices:    notices,
		Reminders:  services.NewReminderService(notices, nil, nil, services.ReminderOptions{}, nil),
		Identities: staticIdentities{userID: {UserID: userID, DisplayName: "Ana"}},
	}

	r := gin.New()
	api := r.Group("/api", utils.AuthMiddleware(testSecret))
	api.GET("/notices", h.ListNotices)
	api.PUT("/notices/:id/status", h.UpdateStatus)
	api.POST("/notices/:id/payment", h.RecordPayment)
	api.POST("/notices/:id/notes", h.AddNote)
	api.POST("/notices/:id/remind", h.SendReminder)

	return &noticeAPI{router: r, store: store, policy: policy, token: token}
}

func (a *noticeAPI) addNotice(t *testing.T, due models.Date, status models.NoticeStatus) models.PolicyNotice {
	t.Helper()
	n := models.PolicyNotice{PolicyID: a.policy.ID, DueDate: due, Status: status}
	require.NoError(t, a.store.CreateNotice(context.Background(), &n))
	return n
}

func (a *noticeAPI) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestListNotices(t *testing.T) {
	api := newNoticeAPI(t)
	api.addNotice(t, models.NewDate(2024, time.March, 10), models.StatusAvisar)
	api.addNotice(t, models.NewDate(2024, time.May, 10), models.StatusAvisar)

	w := api.do(http.MethodGet, "/api/notices", "", api.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	body := decode(t, w)
	notices, ok := body["notices"].([]any)
	require.True(t, ok)
	require.Len(t, notices, 1)
	first := notices[0].(map[string]any)
	assert.Equal(t, "2024-03-10", first["due_date"])
	assert.Equal(t, float64(9), first["days_until_due"])

	w = api.do(http.MethodGet, "/api/notices", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecordPaymentEndpoint(t *testing.T) {
	api := newNoticeAPI(t)
	n := api.addNotice(t, models.NewDate(2024, time.March, 10), models.StatusAvisado)
	path := "/api/notices/" + n.ID.String() + "/payment"

	w := api.do(http.MethodPost, path, `{"installments":2}`, api.token)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	next := body["next_notice"].(map[string]any)
	assert.Equal(t, "2024-05-10", next["due_date"])
	assert.Equal(t, "avisar", next["status"])

	w = api.do(http.MethodPost, path, `{"installments":1}`, api.token)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "El aviso ya fue registrado como pagado", decode(t, w)["error"])

	w = api.do(http.MethodPost, path, `{"installments":0}`, api.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/api/notices/not-a-uuid/payment", `{"installments":1}`, api.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/api/notices/"+uuid.NewString()+"/payment", `{"installments":1}`, api.token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateStatusEndpoint(t *testing.T) {
	api := newNoticeAPI(t)
	n := api.addNotice(t, models.NewDate(2024, time.March, 10), models.StatusAvisar)
	path := "/api/notices/" + n.ID.String() + "/status"

	w := api.do(http.MethodPut, path, `{"status":"avisado"}`, api.token)
	require.Equal(t, http.StatusOK, w.Code)
	notice := decode(t, w)["notice"].(map[string]any)
	assert.Equal(t, "avisado", notice["status"])
	assert.Equal(t, "Ana", notice["notified_by"])

	w = api.do(http.MethodPut, path, `{"status":"cobrado"}`, api.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPut, path, `{"status":"pagado"}`, api.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cambio de estado no permitido", decode(t, w)["error"])

	stored, err := api.store.GetNotice(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAvisado, stored.Status)
	assert.Len(t, api.store.All(), 1)
}

func TestUnknownUserIsRejected(t *testing.T) {
	api := newNoticeAPI(t)
	n := api.addNotice(t, models.NewDate(2024, time.March, 10), models.StatusAvisar)

	stranger, err := utils.GenerateToken(uuid.NewString(), testSecret, time.Hour)
	require.NoError(t, err)

	w := api.do(http.MethodPost, "/api/notices/"+n.ID.String()+"/notes", `{"note":"hola"}`, stranger)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	stored, err := api.store.GetNotice(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Notes)
}

func TestAddNoteEndpoint(t *testing.T) {
	api := newNoticeAPI(t)
	n := api.addNotice(t, models.NewDate(2024, time.March, 10), models.StatusAvisar)
	path := "/api/notices/" + n.ID.String() + "/notes"

	w := api.do(http.MethodPost, path, `{"note":"llamar a la tarde"}`, api.token)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, "llamar a la tarde", body["note"])
	assert.Equal(t, "Ana", body["author_name"])

	w = api.do(http.MethodPost, path, `{"note":"   "}`, api.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "La nota no puede estar vacía", decode(t, w)["error"])
}

func TestSendReminderWithoutMessaging(t *testing.T) {
	api := newNoticeAPI(t)
	n := api.addNotice(t, models.NewDate(2024, time.March, 10), models.StatusAvisar)

	w := api.do(http.MethodPost, "/api/notices/"+n.ID.String()+"/remind", "", api.token)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
