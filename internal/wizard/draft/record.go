// internal/wizard/draft/record.go
package draft

import (
	"strings"

	"formation-wizard/internal/models"
)

// FromRecord rebuilds a draft from a persisted application record, for
// resuming a session whose local state was lost. The current step is derived
// from the hydrated fields, never stored on the record.
func FromRecord(rec *models.LicenseApplication, contactEmail string) *Draft {
	d := New(rec.ID, rec.SessionID)
	d.ContactEmail = contactEmail

	for _, a := range rec.BusinessActivities {
		d.BusinessActivities = append(d.BusinessActivities, ActivitySelection{
			ActivityID: a.ActivityID,
			IsMain:     a.IsMain,
			Name:       a.Name,
			Code:       a.ActivityCode,
		})
	}

	for i, name := range []*string{rec.CompanyName1, rec.CompanyName2, rec.CompanyName3} {
		if name != nil {
			d.CompanyNames[i] = *name
			// Persisted names passed the name check before they were saved.
			d.CompanyNameValid[i] = *name != ""
		}
	}

	if rec.VisaPackageQuantity != nil {
		d.VisaPackageQuantity = *rec.VisaPackageQuantity
	}
	if rec.NumberOfShareholders != nil {
		d.NumberOfShareholders = *rec.NumberOfShareholders
	}
	if rec.TotalShares != nil {
		d.TotalShares = *rec.TotalShares
	}

	for _, sh := range rec.Shareholders {
		d.Shareholders = append(d.Shareholders, fromWireShareholder(sh))
	}
	if d.NumberOfShareholders > len(d.Shareholders) {
		d.Shareholders = resizeShareholders(d.NumberOfShareholders, d.Shareholders)
	}

	d.CurrentStep = ResolveStep(rec)
	return d
}

func fromWireShareholder(sh models.Shareholder) Shareholder {
	out := Shareholder{
		Email:          sh.Email,
		Phone:          sh.Phone,
		NumberOfShares: sh.NumberOfShares,
		IsUAEResident:  sh.IsUAEResident,
		IsPEP:          sh.IsPEP,
		BackendID:      sh.ID,
	}
	for _, r := range sh.Roles {
		out.Roles = append(out.Roles, Role(r))
	}
	if len(out.Roles) == 0 {
		out.Roles = []Role{RoleShareholder}
	}
	if sh.ResidentialAddress != nil {
		out.ResidentialAddress = *sh.ResidentialAddress
	}
	if sh.PassportData != nil {
		out.ExtractedPassport = &PassportData{
			PassportNumber: sh.PassportData.PassportNumber,
			FirstName:      sh.PassportData.FirstName,
			MiddleName:     sh.PassportData.MiddleName,
			LastName:       sh.PassportData.LastName,
			DateOfBirth:    sh.PassportData.DateOfBirth,
			Nationality:    sh.PassportData.Nationality,
			IssueDate:      sh.PassportData.IssueDate,
			ExpiryDate:     sh.PassportData.ExpiryDate,
		}
		out.IsPassportConfirmed = sh.PassportData.Verified
	}
	return out
}

// AdoptShareholderIDs copies server-assigned shareholder ids into the draft,
// matching entries by email case-insensitively. Array order on the server is
// not guaranteed to match ours, so index-based matching would misattribute
// uploads.
func (d *Draft) AdoptShareholderIDs(persisted []models.Shareholder) {
	byEmail := make(map[string]string, len(persisted))
	for _, sh := range persisted {
		byEmail[strings.ToLower(strings.TrimSpace(sh.Email))] = sh.ID
	}
	for i := range d.Shareholders {
		key := strings.ToLower(strings.TrimSpace(d.Shareholders[i].Email))
		if id, ok := byEmail[key]; ok {
			d.Shareholders[i].BackendID = id
		}
	}
}
