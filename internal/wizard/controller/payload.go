// internal/wizard/controller/payload.go
package controller

import (
	"formation-wizard/internal/models"
	"formation-wizard/internal/wizard/draft"
	"formation-wizard/internal/wizard/step"
)

// stepPayload builds the partial update for leaving s. Each step owns a
// fixed field group; steps with no persisted fields produce an empty
// payload. Pure and stateless, safe to rebuild on every retry.
func stepPayload(s step.Step, d *draft.Draft) *models.LicenseApplicationInput {
	in := &models.LicenseApplicationInput{}

	switch s {
	case step.BusinessActivities:
		in.BusinessActivities = make([]models.BusinessActivityInput, 0, len(d.BusinessActivities))
		for _, a := range d.BusinessActivities {
			in.BusinessActivities = append(in.BusinessActivities, models.BusinessActivityInput{
				ActivityID: a.ActivityID,
				IsMain:     a.IsMain,
			})
		}

	case step.CompanyNames:
		name1, name2, name3 := d.CompanyNames[0], d.CompanyNames[1], d.CompanyNames[2]
		in.CompanyName1 = &name1
		in.CompanyName2 = &name2
		in.CompanyName3 = &name3

	case step.VisaPackages:
		quantity := d.VisaPackageQuantity
		in.VisaPackageQuantity = &quantity

	case step.ShareholdersInfo:
		count := d.NumberOfShareholders
		total := d.TotalShares
		in.NumberOfShareholders = &count
		in.TotalShares = &total

	case step.ShareholderDetails:
		// Local file handles never go on the wire.
		in.Shareholders = make([]models.ShareholderInput, 0, len(d.Shareholders))
		for i := range d.Shareholders {
			in.Shareholders = append(in.Shareholders, toShareholderInput(&d.Shareholders[i]))
		}

	case step.ContactEmail, step.PassportReview, step.Payment, step.KYC:
		// Nothing persisted on leaving these steps.
	}

	return in
}

func toShareholderInput(sh *draft.Shareholder) models.ShareholderInput {
	roles := make([]string, 0, len(sh.Roles))
	for _, r := range sh.Roles {
		roles = append(roles, string(r))
	}
	addr := sh.ResidentialAddress
	return models.ShareholderInput{
		Email:              sh.Email,
		Phone:              sh.Phone,
		NumberOfShares:     sh.NumberOfShares,
		Roles:              roles,
		ResidentialAddress: &addr,
		IsUAEResident:      sh.IsUAEResident,
		IsPEP:              sh.IsPEP,
	}
}

// toExtractedPassport converts locally-held extracted fields into the
// confirmation payload shape.
func toExtractedPassport(p *draft.PassportData) *models.ExtractedPassport {
	return &models.ExtractedPassport{
		PassportNumber: p.PassportNumber,
		FullName:       p.FullName(),
		FirstName:      p.FirstName,
		MiddleName:     p.MiddleName,
		LastName:       p.LastName,
		DateOfBirth:    p.DateOfBirth,
		Nationality:    p.Nationality,
		IssueDate:      p.IssueDate,
		ExpiryDate:     p.ExpiryDate,
	}
}

// fromExtractedPassport converts an upstream extraction result into the
// draft's representation.
func fromExtractedPassport(e *models.ExtractedPassport) *draft.PassportData {
	return &draft.PassportData{
		PassportNumber: e.PassportNumber,
		RawFullName:    e.FullName,
		FirstName:      e.FirstName,
		MiddleName:     e.MiddleName,
		LastName:       e.LastName,
		DateOfBirth:    e.DateOfBirth,
		Nationality:    e.Nationality,
		IssueDate:      e.IssueDate,
		ExpiryDate:     e.ExpiryDate,
	}
}
