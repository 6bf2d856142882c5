// internal/wizard/draft/resolve_test.go
package draft

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"formation-wizard/internal/models"
	"formation-wizard/internal/wizard/step"
)

// ==========================
// Test Helper Functions
// ==========================

func intp(v int) *int { return &v }

func strp(v string) *string { return &v }

func wireShareholder(id, email string) models.Shareholder {
	return models.Shareholder{
		ID:             id,
		Email:          email,
		Phone:          "+971501234567",
		NumberOfShares: 50,
		Roles:          []string{"Shareholder"},
	}
}

func emptyRecord() *models.LicenseApplication {
	return &models.LicenseApplication{ID: "app-1", SessionID: "sess-1", Status: models.StatusDraft}
}

// ==========================
// Resolution Rule Tests
// ==========================

func TestResolveStep(t *testing.T) {
	verified := wireShareholder("sh-1", "a@example.com")
	verified.PassportUploaded = true
	verified.PassportData = &models.PassportRecord{PassportNumber: "P1", Verified: true}

	uploaded := wireShareholder("sh-2", "b@example.com")
	uploaded.PassportUploaded = true

	incomplete := models.Shareholder{ID: "sh-3", Email: "c@example.com"}

	tests := []struct {
		name   string
		mutate func(rec *models.LicenseApplication)
		want   step.Step
	}{
		{
			name:   "empty record starts at the beginning",
			mutate: func(rec *models.LicenseApplication) {},
			want:   step.ContactEmail,
		},
		{
			name: "activities only",
			mutate: func(rec *models.LicenseApplication) {
				rec.BusinessActivities = []models.BusinessActivityRef{{ActivityID: 1, IsMain: true}}
			},
			want: step.CompanyNames,
		},
		{
			name: "all three names present",
			mutate: func(rec *models.LicenseApplication) {
				rec.CompanyName1 = strp("Alpha FZCO")
				rec.CompanyName2 = strp("Beta FZCO")
				rec.CompanyName3 = strp("Gamma FZCO")
			},
			want: step.VisaPackages,
		},
		{
			name: "two of three names is not enough",
			mutate: func(rec *models.LicenseApplication) {
				rec.CompanyName1 = strp("Alpha FZCO")
				rec.CompanyName2 = strp("Beta FZCO")
				rec.BusinessActivities = []models.BusinessActivityRef{{ActivityID: 1, IsMain: true}}
			},
			want: step.CompanyNames,
		},
		{
			name: "visa quantity chosen",
			mutate: func(rec *models.LicenseApplication) {
				rec.VisaPackageQuantity = intp(2)
			},
			want: step.ShareholdersInfo,
		},
		{
			name: "shareholding figures but no shareholder entries yet",
			mutate: func(rec *models.LicenseApplication) {
				rec.NumberOfShareholders = intp(2)
				rec.TotalShares = intp(100)
			},
			want: step.ShareholderDetails,
		},
		{
			name: "shareholders present but incomplete",
			mutate: func(rec *models.LicenseApplication) {
				rec.NumberOfShareholders = intp(2)
				rec.Shareholders = []models.Shareholder{wireShareholder("sh-1", "a@example.com"), incomplete}
			},
			want: step.ShareholderDetails,
		},
		{
			name: "shareholders complete but passports not uploaded",
			mutate: func(rec *models.LicenseApplication) {
				rec.NumberOfShareholders = intp(2)
				rec.Shareholders = []models.Shareholder{
					wireShareholder("sh-1", "a@example.com"),
					wireShareholder("sh-2", "b@example.com"),
				}
			},
			want: step.PassportReview,
		},
		{
			name: "all passports uploaded",
			mutate: func(rec *models.LicenseApplication) {
				rec.Shareholders = []models.Shareholder{uploaded}
			},
			want: step.PassportReview,
		},
		{
			name: "all passports verified",
			mutate: func(rec *models.LicenseApplication) {
				rec.Shareholders = []models.Shareholder{verified}
			},
			want: step.Payment,
		},
		{
			name: "one unverified passport holds the application at review",
			mutate: func(rec *models.LicenseApplication) {
				rec.Shareholders = []models.Shareholder{verified, uploaded}
			},
			want: step.PassportReview,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := emptyRecord()
			tt.mutate(rec)
			assert.Equal(t, tt.want, ResolveStep(rec))
		})
	}
}

// ==========================
// Record Hydration Tests
// ==========================

func TestFromRecord_Hydration(t *testing.T) {
	rec := emptyRecord()
	rec.BusinessActivities = []models.BusinessActivityRef{
		{ActivityID: 7, ActivityCode: "6201", Name: "Software Development", IsMain: true},
	}
	rec.CompanyName1 = strp("Alpha FZCO")
	rec.CompanyName2 = strp("Beta FZCO")
	rec.CompanyName3 = strp("Gamma FZCO")
	rec.VisaPackageQuantity = intp(3)
	rec.NumberOfShareholders = intp(2)
	rec.TotalShares = intp(100)
	addr := "JLT, Dubai"
	sh := wireShareholder("sh-1", "a@example.com")
	sh.ResidentialAddress = &addr
	sh.PassportData = &models.PassportRecord{PassportNumber: "P9", FirstName: "Amina", Verified: true}
	rec.Shareholders = []models.Shareholder{sh}

	d := FromRecord(rec, "owner@example.com")

	assert.Equal(t, "app-1", d.ApplicationID)
	assert.Equal(t, "owner@example.com", d.ContactEmail)
	assert.Equal(t, "Alpha FZCO", d.CompanyNames[0])
	// Persisted names passed validation when they were saved.
	assert.True(t, d.CompanyNameValid[0])
	assert.Equal(t, 3, d.VisaPackageQuantity)
	assert.Equal(t, 2, d.NumberOfShareholders)

	// The list is padded up to the declared headcount.
	assert.Len(t, d.Shareholders, 2)
	assert.Equal(t, "sh-1", d.Shareholders[0].BackendID)
	assert.Equal(t, "JLT, Dubai", d.Shareholders[0].ResidentialAddress)
	assert.Equal(t, "P9", d.Shareholders[0].ExtractedPassport.PassportNumber)
	assert.True(t, d.Shareholders[0].IsPassportConfirmed)
	assert.Equal(t, []Role{RoleShareholder}, d.Shareholders[1].Roles)

	assert.Equal(t, ResolveStep(rec), d.CurrentStep)
}

func TestAdoptShareholderIDs_MatchesByEmail(t *testing.T) {
	d := New("app-1", "sess-1")
	d.Shareholders = []Shareholder{
		{Email: "First@Example.com"},
		{Email: "second@example.com"},
		{Email: "unmatched@example.com", BackendID: "stale"},
	}

	d.AdoptShareholderIDs([]models.Shareholder{
		// Server order differs from local order on purpose.
		{ID: "sh-b", Email: "second@example.com"},
		{ID: "sh-a", Email: "first@example.com "},
	})

	assert.Equal(t, "sh-a", d.Shareholders[0].BackendID)
	assert.Equal(t, "sh-b", d.Shareholders[1].BackendID)
	// Entries the server does not know keep whatever id they had.
	assert.Equal(t, "stale", d.Shareholders[2].BackendID)
}
