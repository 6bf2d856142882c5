// internal/api/handlers_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formation-wizard/internal/common/logger"
	"formation-wizard/internal/licensing"
	"formation-wizard/internal/models"
	"formation-wizard/internal/session"
	"formation-wizard/internal/wizard/draft"
	"formation-wizard/internal/wizard/step"
)

// ==========================
// Fakes
// ==========================

type stubAPI struct {
	licensing.API // panic on anything not stubbed

	createFn func(ctx context.Context, sessionID string) (*models.LicenseApplication, error)
	getFn    func(ctx context.Context, id string) (*models.LicenseApplication, error)
	listFn   func(ctx context.Context, opts licensing.ListOptions) (*models.LicenseApplicationList, error)
	updateFn func(ctx context.Context, id string, in *models.LicenseApplicationInput) (*models.LicenseApplication, error)
	deleteFn func(ctx context.Context, id string) error
	urlFn    func(ctx context.Context, appID, shID string, expiresIn int) (*models.PassportURL, error)
	submitFn func(ctx context.Context, id string) (*models.SubmitResult, error)
	nameFn   func(ctx context.Context, name string) (*models.NameValidation, error)
}

func (s *stubAPI) CreateApplication(ctx context.Context, sessionID string) (*models.LicenseApplication, error) {
	return s.createFn(ctx, sessionID)
}

func (s *stubAPI) GetApplication(ctx context.Context, id string) (*models.LicenseApplication, error) {
	return s.getFn(ctx, id)
}

func (s *stubAPI) UpdateApplication(ctx context.Context, id string, in *models.LicenseApplicationInput) (*models.LicenseApplication, error) {
	return s.updateFn(ctx, id, in)
}

func (s *stubAPI) ListApplications(ctx context.Context, opts licensing.ListOptions) (*models.LicenseApplicationList, error) {
	return s.listFn(ctx, opts)
}

func (s *stubAPI) DeleteApplication(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func (s *stubAPI) PassportDownloadURL(ctx context.Context, appID, shID string, expiresIn int) (*models.PassportURL, error) {
	return s.urlFn(ctx, appID, shID, expiresIn)
}

func (s *stubAPI) SubmitApplication(ctx context.Context, id string) (*models.SubmitResult, error) {
	return s.submitFn(ctx, id)
}

func (s *stubAPI) ValidateCompanyName(ctx context.Context, name string) (*models.NameValidation, error) {
	return s.nameFn(ctx, name)
}

type stubCatalog struct {
	list   *models.ActivityList
	search *models.ActivityList
}

func (s *stubCatalog) List(ctx context.Context, opts licensing.ActivityListOptions) (*models.ActivityList, error) {
	return s.list, nil
}

func (s *stubCatalog) Search(ctx context.Context, query string, limit int) (*models.ActivityList, error) {
	return s.search, nil
}

func (s *stubCatalog) Get(ctx context.Context, id string) (*models.Activity, error) {
	return &models.Activity{ID: id}, nil
}

func (s *stubCatalog) SyncFromIFZA(ctx context.Context) (*models.ActivitySyncResult, error) {
	return &models.ActivitySyncResult{TotalFetched: 3, NewCount: 3}, nil
}

// ==========================
// Test Helper Functions
// ==========================

type stubNotifier struct {
	emails []string
	phones []string
	refs   []string
}

func (s *stubNotifier) SubmissionConfirmed(ctx context.Context, email, phone, applicationID, draftReference string) {
	s.emails = append(s.emails, email)
	s.phones = append(s.phones, phone)
	s.refs = append(s.refs, draftReference)
}

type testEnv struct {
	router   *gin.Engine
	store    *session.Store
	api      *stubAPI
	notifier *stubNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := session.NewStore(client, "wizard:draft:", time.Hour, logger.NewTestLogger(t))

	api := &stubAPI{
		createFn: func(ctx context.Context, sessionID string) (*models.LicenseApplication, error) {
			return &models.LicenseApplication{ID: "app-1", SessionID: sessionID, Status: models.StatusDraft}, nil
		},
		updateFn: func(ctx context.Context, id string, in *models.LicenseApplicationInput) (*models.LicenseApplication, error) {
			return &models.LicenseApplication{ID: id}, nil
		},
	}

	notifier := &stubNotifier{}
	h := NewHandlers(store, api, &stubCatalog{
		list:   &models.ActivityList{Total: 1, Items: []models.Activity{{ID: "act-1"}}},
		search: &models.ActivityList{Total: 1, Items: []models.Activity{{ID: "act-2"}}},
	}, notifier, logger.NewTestLogger(t))

	return &testEnv{router: NewRouter(h, nil), store: store, api: api, notifier: notifier}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seedDraft(t *testing.T, d *draft.Draft) {
	require.NoError(t, e.store.Save(context.Background(), d))
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) wizardState {
	var st wizardState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	return st
}

// ==========================
// Lifecycle Tests
// ==========================

func TestCreateWizard(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/wizard?session_id=sess-1", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	st := decodeState(t, w)
	assert.Equal(t, "app-1", st.ApplicationID)
	assert.Equal(t, step.ContactEmail, st.CurrentStep)
	assert.Equal(t, 1, st.StepNumber)
	assert.Equal(t, 9, st.TotalSteps)
	assert.False(t, st.CanAdvance)
}

func TestCreateWizard_RequiresSessionID(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/v1/wizard", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetWizard_NotFound(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/v1/wizard/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResumeWizard_DerivesStep(t *testing.T) {
	env := newTestEnv(t)
	quantity := 2
	env.api.getFn = func(ctx context.Context, id string) (*models.LicenseApplication, error) {
		return &models.LicenseApplication{ID: id, VisaPackageQuantity: &quantity}, nil
	}

	w := env.do(t, http.MethodPost, "/api/v1/wizard/app-9/resume", map[string]string{"contact_email": "user@example.com"})
	require.Equal(t, http.StatusOK, w.Code)

	st := decodeState(t, w)
	assert.Equal(t, step.ShareholdersInfo, st.CurrentStep)
	assert.Equal(t, "user@example.com", st.Draft.ContactEmail)
}

func TestCancelWizard(t *testing.T) {
	env := newTestEnv(t)
	env.seedDraft(t, draft.New("app-1", "sess-1"))

	var deleted string
	env.api.deleteFn = func(ctx context.Context, id string) error {
		deleted = id
		return nil
	}

	w := env.do(t, http.MethodDelete, "/api/v1/wizard/app-1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "app-1", deleted)

	// The draft is gone too.
	w = env.do(t, http.MethodGet, "/api/v1/wizard/app-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListApplications_ProxiesQuery(t *testing.T) {
	env := newTestEnv(t)

	var got licensing.ListOptions
	env.api.listFn = func(ctx context.Context, opts licensing.ListOptions) (*models.LicenseApplicationList, error) {
		got = opts
		return &models.LicenseApplicationList{Total: 1, Items: []models.LicenseApplication{{ID: "app-1"}}}, nil
	}

	w := env.do(t, http.MethodGet, "/api/v1/applications?status=draft&limit=5&offset=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, licensing.ListOptions{Status: models.StatusDraft, Limit: 5, Offset: 10}, got)
	assert.Contains(t, w.Body.String(), "app-1")
}

func TestPassportURL(t *testing.T) {
	env := newTestEnv(t)
	d := draft.New("app-1", "sess-1")
	require.NoError(t, d.SetShareholdingInfo(1, 100))
	d.Shareholders[0].BackendID = "sh-001"
	env.seedDraft(t, d)

	env.api.urlFn = func(ctx context.Context, appID, shID string, expiresIn int) (*models.PassportURL, error) {
		assert.Equal(t, "app-1", appID)
		assert.Equal(t, "sh-001", shID)
		assert.Equal(t, 600, expiresIn)
		return &models.PassportURL{ShareholderID: shID, DownloadURL: "https://files/sh-001", ExpiresIn: expiresIn}, nil
	}

	w := env.do(t, http.MethodGet, "/api/v1/wizard/app-1/shareholders/0/passport-url?expires_in=600", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://files/sh-001")
}

func TestPassportURL_RequiresUpload(t *testing.T) {
	env := newTestEnv(t)
	d := draft.New("app-1", "sess-1")
	require.NoError(t, d.SetShareholdingInfo(1, 100))
	env.seedDraft(t, d)

	// No backend id yet: the scan was never flushed upstream.
	w := env.do(t, http.MethodGet, "/api/v1/wizard/app-1/shareholders/0/passport-url", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

// ==========================
// Mutation & Navigation Tests
// ==========================

func TestContactEmailThenNext(t *testing.T) {
	env := newTestEnv(t)
	env.seedDraft(t, draft.New("app-1", "sess-1"))

	w := env.do(t, http.MethodPut, "/api/v1/wizard/app-1/contact-email", map[string]string{"email": "user@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeState(t, w).CanAdvance)

	w = env.do(t, http.MethodPost, "/api/v1/wizard/app-1/next", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, step.BusinessActivities, decodeState(t, w).CurrentStep)

	// The new step survives a reload.
	w = env.do(t, http.MethodGet, "/api/v1/wizard/app-1", nil)
	assert.Equal(t, step.BusinessActivities, decodeState(t, w).CurrentStep)
}

func TestNext_BlockedReturnsConflict(t *testing.T) {
	env := newTestEnv(t)
	env.seedDraft(t, draft.New("app-1", "sess-1"))

	w := env.do(t, http.MethodPost, "/api/v1/wizard/app-1/next", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAddActivity_SchemaRejectsBadBody(t *testing.T) {
	env := newTestEnv(t)
	env.seedDraft(t, draft.New("app-1", "sess-1"))

	// activity_id must be an integer >= 1.
	w := env.do(t, http.MethodPost, "/api/v1/wizard/app-1/activities", map[string]interface{}{"activity_id": "seven"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "issues")
}

func TestAddActivity_AndMainPromotion(t *testing.T) {
	env := newTestEnv(t)
	env.seedDraft(t, draft.New("app-1", "sess-1"))

	w := env.do(t, http.MethodPost, "/api/v1/wizard/app-1/activities", map[string]interface{}{"activity_id": 7, "name": "Software Development"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/wizard/app-1/activities", map[string]interface{}{"activity_id": 8, "name": "Consultancy"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, "/api/v1/wizard/app-1/activities/7", nil)
	require.Equal(t, http.StatusOK, w.Code)

	st := decodeState(t, w)
	require.Len(t, st.Draft.BusinessActivities, 1)
	assert.True(t, st.Draft.BusinessActivities[0].IsMain)
	assert.Equal(t, 8, st.Draft.BusinessActivities[0].ActivityID)
}

func TestSetShareholding_ResizesList(t *testing.T) {
	env := newTestEnv(t)
	env.seedDraft(t, draft.New("app-1", "sess-1"))

	w := env.do(t, http.MethodPut, "/api/v1/wizard/app-1/shareholding", map[string]int{
		"number_of_shareholders": 3,
		"total_shares":           300,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeState(t, w).Draft.Shareholders, 3)
}

func TestPatchShareholder_SchemaRejectsUnknownRole(t *testing.T) {
	env := newTestEnv(t)
	d := draft.New("app-1", "sess-1")
	require.NoError(t, d.SetShareholdingInfo(1, 100))
	env.seedDraft(t, d)

	w := env.do(t, http.MethodPatch, "/api/v1/wizard/app-1/shareholders/0", map[string]interface{}{
		"roles": []string{"Emperor"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadScan(t *testing.T) {
	env := newTestEnv(t)
	d := draft.New("app-1", "sess-1")
	require.NoError(t, d.SetShareholdingInfo(1, 100))
	env.seedDraft(t, d)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "passport.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/wizard/app-1/shareholders/0/passport-scan", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	st := decodeState(t, w)
	require.NotNil(t, st.Draft.Shareholders[0].PassportScan)
	assert.Equal(t, "passport.jpg", st.Draft.Shareholders[0].PassportScan.Filename)
}

func TestDismissError(t *testing.T) {
	env := newTestEnv(t)
	d := draft.New("app-1", "sess-1")
	d.SaveError = "Failed to save your changes. Please try again."
	env.seedDraft(t, d)

	w := env.do(t, http.MethodPost, "/api/v1/wizard/app-1/dismiss-error", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeState(t, w).SaveError)
}

func TestValidateCompanyName_RecordsVerdict(t *testing.T) {
	env := newTestEnv(t)
	d := draft.New("app-1", "sess-1")
	require.NoError(t, d.SetCompanyName(0, "Falcon Trading FZCO"))
	env.seedDraft(t, d)

	env.api.nameFn = func(ctx context.Context, name string) (*models.NameValidation, error) {
		return &models.NameValidation{CompanyName: name, IsValid: true}, nil
	}

	w := env.do(t, http.MethodPost, "/api/v1/wizard/app-1/company-names/0/validate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"is_valid":true`))

	w = env.do(t, http.MethodGet, "/api/v1/wizard/app-1", nil)
	assert.True(t, decodeState(t, w).Draft.CompanyNameValid[0])
}

func TestNext_SubmissionNotifiesWithContactDetails(t *testing.T) {
	env := newTestEnv(t)

	d := draft.New("app-1", "sess-1")
	d.SetContactEmail("founder@acme.ae")
	require.NoError(t, d.SetShareholdingInfo(1, 100))
	d.Shareholders[0].Phone = "+971501234567"
	d.CurrentStep = step.KYC
	env.seedDraft(t, d)

	ref := "IFZA-77"
	env.api.submitFn = func(ctx context.Context, id string) (*models.SubmitResult, error) {
		return &models.SubmitResult{Success: true, IFZADraftID: &ref}, nil
	}

	w := env.do(t, http.MethodPost, "/api/v1/wizard/app-1/next", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, decodeState(t, w).Submitted)

	// The notifier gets the applicant's email, phone and the assigned
	// draft reference, not placeholders.
	require.Equal(t, []string{"founder@acme.ae"}, env.notifier.emails)
	assert.Equal(t, []string{"+971501234567"}, env.notifier.phones)
	assert.Equal(t, []string{"IFZA-77"}, env.notifier.refs)
}

// ==========================
// Activity Endpoint Tests
// ==========================

func TestActivityEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/activities?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "act-1")

	w = env.do(t, http.MethodGet, "/api/v1/activities/search?q=soft", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "act-2")

	w = env.do(t, http.MethodPost, "/api/v1/activities/sync", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_fetched":3`)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
