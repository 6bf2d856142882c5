// internal/wizard/draft/resolve.go
package draft

import (
	"formation-wizard/internal/models"
	"formation-wizard/internal/wizard/step"
)

// ResolveStep maps a persisted application record to the step a resuming
// user should land on. The wizard only persists forward, so the most
// complete field group present identifies the next unfilled step. Rules are
// checked from most complete to least complete; the first match wins.
func ResolveStep(rec *models.LicenseApplication) step.Step {
	if len(rec.Shareholders) > 0 && allPassportsVerified(rec.Shareholders) {
		return step.Payment
	}

	if len(rec.Shareholders) > 0 && allPassportsUploaded(rec.Shareholders) {
		return step.PassportReview
	}

	if len(rec.Shareholders) > 0 && intSet(rec.NumberOfShareholders) {
		if allShareholdersComplete(rec.Shareholders) {
			return step.PassportReview
		}
		return step.ShareholderDetails
	}

	if intSet(rec.NumberOfShareholders) && intSet(rec.TotalShares) {
		return step.ShareholderDetails
	}

	if intSet(rec.VisaPackageQuantity) {
		return step.ShareholdersInfo
	}

	if strSet(rec.CompanyName1) && strSet(rec.CompanyName2) && strSet(rec.CompanyName3) {
		return step.VisaPackages
	}

	if len(rec.BusinessActivities) > 0 {
		return step.CompanyNames
	}

	return step.ContactEmail
}

func allPassportsVerified(shs []models.Shareholder) bool {
	for _, sh := range shs {
		if sh.PassportData == nil || !sh.PassportData.Verified {
			return false
		}
	}
	return true
}

func allPassportsUploaded(shs []models.Shareholder) bool {
	for _, sh := range shs {
		if !sh.PassportUploaded {
			return false
		}
	}
	return true
}

func allShareholdersComplete(shs []models.Shareholder) bool {
	for _, sh := range shs {
		if sh.Email == "" || sh.Phone == "" || sh.NumberOfShares <= 0 || len(sh.Roles) == 0 {
			return false
		}
	}
	return true
}

func intSet(v *int) bool { return v != nil && *v > 0 }

func strSet(v *string) bool { return v != nil && *v != "" }
