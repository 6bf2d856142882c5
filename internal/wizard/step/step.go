// internal/wizard/step/step.go

// Package step defines the canonical, totally-ordered catalog of wizard
// steps. A step identifier outside the catalog is a programming error, not a
// runtime condition; lookups on unknown steps return zero values.
package step

type Step string

const (
	ContactEmail       Step = "contact-email"
	BusinessActivities Step = "business-activities"
	CompanyNames       Step = "company-names"
	VisaPackages       Step = "visa-packages"
	ShareholdersInfo   Step = "shareholders-info"
	ShareholderDetails Step = "shareholder-details"
	PassportReview     Step = "passport-review"
	Payment            Step = "payment"
	KYC                Step = "kyc"
)

var order = []Step{
	ContactEmail,
	BusinessActivities,
	CompanyNames,
	VisaPackages,
	ShareholdersInfo,
	ShareholderDetails,
	PassportReview,
	Payment,
	KYC,
}

var titles = map[Step]string{
	ContactEmail:       "Contact",
	BusinessActivities: "Activities",
	CompanyNames:       "Company Names",
	VisaPackages:       "Visas",
	ShareholdersInfo:   "Shareholders",
	ShareholderDetails: "Details",
	PassportReview:     "Passport Review",
	Payment:            "Payment",
	KYC:                "KYC",
}

// All returns the steps in canonical order.
func All() []Step {
	out := make([]Step, len(order))
	copy(out, order)
	return out
}

// First returns the initial step of a brand-new application.
func First() Step {
	return order[0]
}

// IndexOf returns the zero-based position of s, or -1 for an unknown step.
func IndexOf(s Step) int {
	for i, v := range order {
		if v == s {
			return i
		}
	}
	return -1
}

// Next returns the step after s. At the last step (or for an unknown step)
// it returns s unchanged.
func Next(s Step) Step {
	i := IndexOf(s)
	if i < 0 || i >= len(order)-1 {
		return s
	}
	return order[i+1]
}

// Previous returns the step before s. At the first step (or for an unknown
// step) it returns s unchanged.
func Previous(s Step) Step {
	i := IndexOf(s)
	if i <= 0 {
		return s
	}
	return order[i-1]
}

// IsLast reports whether s is the terminal navigable step.
func IsLast(s Step) bool {
	return s == order[len(order)-1]
}

// IsValid reports whether s belongs to the catalog.
func IsValid(s Step) bool {
	return IndexOf(s) >= 0
}

// Title returns the display title for s, or "" for an unknown step.
func Title(s Step) string {
	return titles[s]
}

// Number returns the one-based position shown in the step indicator.
func Number(s Step) int {
	return IndexOf(s) + 1
}
