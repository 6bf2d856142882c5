// internal/licensing/client_test.go
package licensing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formation-wizard/internal/common/httpx"
	"formation-wizard/internal/common/logger"
	"formation-wizard/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-token", 5*time.Second, logger.NewTestLogger(t)), srv
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// ==========================
// Application CRUD Tests
// ==========================

func TestCreateApplication(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/license-application/", r.URL.Path)
		assert.Equal(t, "sess-42", r.URL.Query().Get("session_id"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		writeJSON(t, w, models.LicenseApplication{ID: "app-1", SessionID: "sess-42", Status: models.StatusDraft})
	})

	rec, err := client.CreateApplication(context.Background(), "sess-42")
	require.NoError(t, err)
	assert.Equal(t, "app-1", rec.ID)
	assert.Equal(t, models.StatusDraft, rec.Status)
}

func TestUpdateApplication_PartialPayload(t *testing.T) {
	quantity := 2
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v1/license-application/app-1", r.URL.Path)

		var got map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		// Only the fields the caller set may appear on the wire.
		assert.Equal(t, float64(2), got["visa_package_quantity"])
		assert.NotContains(t, got, "company_name_1")
		assert.NotContains(t, got, "shareholders")

		writeJSON(t, w, models.LicenseApplication{ID: "app-1", VisaPackageQuantity: &quantity})
	})

	rec, err := client.UpdateApplication(context.Background(), "app-1", &models.LicenseApplicationInput{
		VisaPackageQuantity: &quantity,
	})
	require.NoError(t, err)
	require.NotNil(t, rec.VisaPackageQuantity)
	assert.Equal(t, 2, *rec.VisaPackageQuantity)
}

func TestGetApplication_UpstreamError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"not found"}`, http.StatusNotFound)
	})

	_, err := client.GetApplication(context.Background(), "missing")
	require.Error(t, err)

	var statusErr *httpx.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestListApplications_QueryParams(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "20", r.URL.Query().Get("offset"))
		assert.Equal(t, "draft", r.URL.Query().Get("status"))
		writeJSON(t, w, models.LicenseApplicationList{Total: 0})
	})

	_, err := client.ListApplications(context.Background(), ListOptions{Limit: 10, Offset: 20, Status: models.StatusDraft})
	require.NoError(t, err)
}

// ==========================
// Passport Flow Tests
// ==========================

func TestUploadPassport_Multipart(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/license-application/app-1/shareholders/sh-9/passport", r.URL.Path)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "passport.jpg", header.Filename)

		writeJSON(t, w, models.PassportUpload{Success: true, ShareholderID: "sh-9", DocumentID: "doc-1"})
	})

	up, err := client.UploadPassport(context.Background(), "app-1", "sh-9", "passport.jpg", []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "doc-1", up.DocumentID)
}

func TestExtractPassportData_Enveloped(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/license-application/app-1/shareholders/sh-9/passport/extract", r.URL.Path)
		writeJSON(t, w, map[string]interface{}{
			"success": true,
			"data":    map[string]string{"passport_number": "P777", "first_name": "Amina"},
		})
	})

	out, err := client.ExtractPassportData(context.Background(), "app-1", "sh-9")
	require.NoError(t, err)
	assert.Equal(t, "P777", out.PassportNumber)
	assert.Equal(t, "Amina", out.FirstName)
}

func TestExtractPassportData_Bare(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]string{"passport_number": "P888"})
	})

	out, err := client.ExtractPassportData(context.Background(), "app-1", "sh-9")
	require.NoError(t, err)
	assert.Equal(t, "P888", out.PassportNumber)
}

func TestExtractPassportData_EnvelopeFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{
			"success": false,
			"errors":  []string{"image too blurry", "mrz unreadable"},
		})
	})

	_, err := client.ExtractPassportData(context.Background(), "app-1", "sh-9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image too blurry | mrz unreadable")
}

func TestConfirmPassportData_DerivesFullName(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v1/license-application/app-1/shareholders/sh-9/passport-data", r.URL.Path)

		var got models.ExtractedPassport
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "Amina Binte Khan", got.FullName)

		writeJSON(t, w, models.Shareholder{ID: "sh-9", PassportData: &models.PassportRecord{Verified: true}})
	})

	sh, err := client.ConfirmPassportData(context.Background(), "app-1", "sh-9", &models.ExtractedPassport{
		FirstName:  "Amina",
		MiddleName: "Binte",
		LastName:   "Khan",
	})
	require.NoError(t, err)
	assert.True(t, sh.PassportData.Verified)
}

// ==========================
// Submission & Name Check Tests
// ==========================

func TestSubmitApplication(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/license-application/app-1/submit", r.URL.Path)
		draftID := "IFZA-2024-001"
		writeJSON(t, w, models.SubmitResult{Success: true, IFZADraftID: &draftID})
	})

	res, err := client.SubmitApplication(context.Background(), "app-1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.NotNil(t, res.IFZADraftID)
	assert.Equal(t, "IFZA-2024-001", *res.IFZADraftID)
}

func TestValidateCompanyName(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/company/validate-name", r.URL.Path)

		var got map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "Falcon Trading FZCO", got["company_name"])

		writeJSON(t, w, models.NameValidation{CompanyName: got["company_name"], IsValid: true, Confidence: 0.93})
	})

	res, err := client.ValidateCompanyName(context.Background(), "Falcon Trading FZCO")
	require.NoError(t, err)
	assert.True(t, res.IsValid)
}

// ==========================
// Activity Catalog Tests
// ==========================

func TestSearchActivities(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/activities/search", r.URL.Path)
		assert.Equal(t, "software", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		writeJSON(t, w, models.ActivityList{Total: 1, Items: []models.Activity{{ID: "act-1", Name: "Software Development"}}})
	})

	res, err := client.SearchActivities(context.Background(), "software", 5)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Software Development", res.Items[0].Name)
}
