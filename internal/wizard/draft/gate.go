// internal/wizard/draft/gate.go
package draft

import (
	"regexp"

	"formation-wizard/internal/wizard/step"
)

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// CanAdvance reports whether the draft satisfies the current step's exit
// conditions. It gates the forward transition only; going back is always
// allowed. Pure, cheap to call on every state change.
func CanAdvance(s step.Step, d *Draft) bool {
	switch s {
	case step.ContactEmail:
		return emailShape.MatchString(d.ContactEmail)

	case step.BusinessActivities:
		return len(d.BusinessActivities) >= 1 && len(d.BusinessActivities) <= MaxActivities

	case step.CompanyNames:
		return d.CompanyNamesValid()

	case step.VisaPackages:
		return d.VisaPackageQuantity > 0

	case step.ShareholdersInfo:
		return d.NumberOfShareholders > 0 && d.TotalShares > 0

	case step.ShareholderDetails:
		if len(d.Shareholders) != d.NumberOfShareholders || d.NumberOfShareholders == 0 {
			return false
		}
		for i := range d.Shareholders {
			if !shareholderComplete(&d.Shareholders[i]) {
				return false
			}
		}
		return true

	case step.PassportReview:
		for i := range d.Shareholders {
			if !d.Shareholders[i].IsPassportConfirmed {
				return false
			}
		}
		return true

	case step.Payment, step.KYC:
		return true
	}
	return false
}

func shareholderComplete(sh *Shareholder) bool {
	return sh.Email != "" &&
		sh.Phone != "" &&
		sh.NumberOfShares > 0 &&
		len(sh.Roles) > 0 &&
		sh.ResidentialAddress != "" &&
		sh.PassportScan != nil
}
