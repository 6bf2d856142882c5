// internal/wizard/draft/draft.go

// Package draft holds the mutable, partially-filled state of one
// company-formation application while the user walks the wizard. All
// mutation goes through named methods so the structural invariants (at most
// one main activity, shareholder list sized to the declared headcount,
// confirmation only after extraction) hold at every observation point.
package draft

import (
	"errors"
	"fmt"

	"formation-wizard/internal/wizard/step"
)

const MaxActivities = 3

var (
	ErrTooManyActivities = errors.New("at most 3 business activities allowed")
	ErrDuplicateActivity = errors.New("activity already selected")
	ErrActivityNotFound  = errors.New("activity not selected")
	ErrShareholderIndex  = errors.New("shareholder index out of range")
	ErrNotExtracted      = errors.New("passport data has not been extracted")
	ErrCompanyNameIndex  = errors.New("company name index out of range")
	ErrNegativeQuantity  = errors.New("quantity must not be negative")
)

type Role string

const (
	RoleShareholder    Role = "Shareholder"
	RoleGeneralManager Role = "General Manager"
	RoleDirector       Role = "Director"
	RoleSecretary      Role = "Secretary"
)

// ActivitySelection is one chosen business activity, in user selection
// order. Name and the descriptive fields exist for display only.
type ActivitySelection struct {
	ActivityID  int    `json:"activity_id"`
	IsMain      bool   `json:"is_main"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Code        string `json:"code,omitempty"`
	LicenseType string `json:"license_type,omitempty"`
}

// PassportData holds OCR-extracted (and possibly user-edited) passport
// fields for one shareholder.
type PassportData struct {
	PassportNumber string `json:"passport_number,omitempty"`
	RawFullName    string `json:"full_name,omitempty"`
	FirstName      string `json:"first_name,omitempty"`
	MiddleName     string `json:"middle_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
	Nationality    string `json:"nationality,omitempty"`
	IssueDate      string `json:"issue_date,omitempty"`
	ExpiryDate     string `json:"expiry_date,omitempty"`
}

// FullName returns the OCR-provided full name, or joins the name parts when
// the scanner produced none.
func (p *PassportData) FullName() string {
	if p.RawFullName != "" {
		return p.RawFullName
	}
	name := ""
	for _, part := range []string{p.FirstName, p.MiddleName, p.LastName} {
		if part == "" {
			continue
		}
		if name != "" {
			name += " "
		}
		name += part
	}
	return name
}

// PassportScan is a locally-held scan that has not yet been flushed to the
// licensing service. It never appears in update payloads.
type PassportScan struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// Shareholder is one entry of the shareholder list.
type Shareholder struct {
	Email              string        `json:"email"`
	Phone              string        `json:"phone"`
	NumberOfShares     int           `json:"number_of_shares"`
	Roles              []Role        `json:"roles"`
	ResidentialAddress string        `json:"residential_address"`
	IsUAEResident      bool          `json:"is_uae_resident"`
	IsPEP              bool          `json:"is_pep"`
	PassportScan       *PassportScan `json:"passport_scan,omitempty"`

	// BackendID is assigned by the licensing service after the shareholder
	// array has been persisted at least once. Matching is by email, never by
	// array index, because server order may differ.
	BackendID string `json:"backend_id,omitempty"`

	ExtractedPassport   *PassportData `json:"extracted_passport,omitempty"`
	IsPassportConfirmed bool          `json:"is_passport_confirmed"`
}

// HasRole reports whether the shareholder carries the given role.
func (s *Shareholder) HasRole(r Role) bool {
	for _, have := range s.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// Draft is the in-memory state of one in-progress application.
type Draft struct {
	ApplicationID string `json:"application_id,omitempty"`
	SessionID     string `json:"session_id,omitempty"`

	ContactEmail       string              `json:"contact_email"`
	BusinessActivities []ActivitySelection `json:"business_activities"`

	CompanyNames     [3]string `json:"company_names"`
	CompanyNameValid [3]bool   `json:"company_name_valid"`

	VisaPackageQuantity  int `json:"visa_package_quantity"`
	NumberOfShareholders int `json:"number_of_shareholders"`
	TotalShares          int `json:"total_shares"`

	Shareholders []Shareholder `json:"shareholders"`

	CurrentStep step.Step `json:"current_step"`

	// SaveError is the dismissible banner text from the last failed
	// transition, empty when none. Submitted flips once the terminal
	// submission call succeeds; DraftReference then carries the reference
	// the licensing service assigned.
	SaveError      string `json:"save_error,omitempty"`
	Submitted      bool   `json:"submitted,omitempty"`
	DraftReference string `json:"draft_reference,omitempty"`
}

// New creates an empty draft positioned on the first step.
func New(applicationID, sessionID string) *Draft {
	return &Draft{
		ApplicationID: applicationID,
		SessionID:     sessionID,
		CurrentStep:   step.First(),
	}
}

// ==========================
// Per-field mutation handlers
// ==========================

func (d *Draft) SetContactEmail(email string) {
	d.ContactEmail = email
}

// ContactPhone returns the first shareholder phone on record, the only phone
// number the wizard collects.
func (d *Draft) ContactPhone() string {
	for _, sh := range d.Shareholders {
		if sh.Phone != "" {
			return sh.Phone
		}
	}
	return ""
}

// AddActivity appends a selection. The first selected activity becomes the
// main one; later additions stay secondary until toggled.
func (d *Draft) AddActivity(sel ActivitySelection) error {
	for _, a := range d.BusinessActivities {
		if a.ActivityID == sel.ActivityID {
			return ErrDuplicateActivity
		}
	}
	if len(d.BusinessActivities) >= MaxActivities {
		return ErrTooManyActivities
	}
	sel.IsMain = len(d.BusinessActivities) == 0
	d.BusinessActivities = append(d.BusinessActivities, sel)
	return nil
}

// RemoveActivity drops a selection. If the main activity was removed, the
// first remaining one is promoted to main.
func (d *Draft) RemoveActivity(activityID int) error {
	kept := d.BusinessActivities[:0]
	found := false
	for _, a := range d.BusinessActivities {
		if a.ActivityID == activityID {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		return ErrActivityNotFound
	}
	d.BusinessActivities = kept

	if len(d.BusinessActivities) > 0 && !d.hasMainActivity() {
		d.BusinessActivities[0].IsMain = true
	}
	return nil
}

// SetMainActivity makes activityID the single main activity. An unknown id
// leaves the current main untouched.
func (d *Draft) SetMainActivity(activityID int) error {
	target := -1
	for i := range d.BusinessActivities {
		if d.BusinessActivities[i].ActivityID == activityID {
			target = i
			break
		}
	}
	if target < 0 {
		return ErrActivityNotFound
	}
	for i := range d.BusinessActivities {
		d.BusinessActivities[i].IsMain = i == target
	}
	return nil
}

func (d *Draft) hasMainActivity() bool {
	for _, a := range d.BusinessActivities {
		if a.IsMain {
			return true
		}
	}
	return false
}

// SetCompanyName updates one of the three name choices. A changed name must
// be re-checked, so its validity flag resets.
func (d *Draft) SetCompanyName(index int, value string) error {
	if index < 0 || index > 2 {
		return ErrCompanyNameIndex
	}
	if d.CompanyNames[index] != value {
		d.CompanyNames[index] = value
		d.CompanyNameValid[index] = false
	}
	return nil
}

// SetCompanyNameVerdict records the naming-service verdict for one choice.
func (d *Draft) SetCompanyNameVerdict(index int, valid bool) error {
	if index < 0 || index > 2 {
		return ErrCompanyNameIndex
	}
	d.CompanyNameValid[index] = valid
	return nil
}

// CompanyNamesValid reports whether all three choices are present and have a
// positive verdict from the naming service.
func (d *Draft) CompanyNamesValid() bool {
	for i := 0; i < 3; i++ {
		if d.CompanyNames[i] == "" || !d.CompanyNameValid[i] {
			return false
		}
	}
	return true
}

func (d *Draft) SetVisaPackageQuantity(quantity int) error {
	if quantity < 0 {
		return ErrNegativeQuantity
	}
	d.VisaPackageQuantity = quantity
	return nil
}

// SetShareholdingInfo updates the headcount and total shares, resizing the
// shareholder list in lockstep: existing entries are preserved by index,
// missing ones are padded with defaults, excess ones are truncated.
func (d *Draft) SetShareholdingInfo(numberOfShareholders, totalShares int) error {
	if numberOfShareholders < 0 || totalShares < 0 {
		return ErrNegativeQuantity
	}
	d.NumberOfShareholders = numberOfShareholders
	d.TotalShares = totalShares
	d.Shareholders = resizeShareholders(numberOfShareholders, d.Shareholders)
	return nil
}

// resizeShareholders produces exactly count entries, reusing existing[i]
// where available and synthesizing defaults otherwise.
func resizeShareholders(count int, existing []Shareholder) []Shareholder {
	out := make([]Shareholder, count)
	for i := 0; i < count; i++ {
		if i < len(existing) {
			out[i] = existing[i]
			continue
		}
		out[i] = Shareholder{Roles: []Role{RoleShareholder}}
	}
	return out
}

// ShareholderPatch carries a partial shareholder update; nil fields are left
// untouched.
type ShareholderPatch struct {
	Email              *string `json:"email,omitempty"`
	Phone              *string `json:"phone,omitempty"`
	NumberOfShares     *int    `json:"number_of_shares,omitempty"`
	Roles              []Role  `json:"roles,omitempty"`
	ResidentialAddress *string `json:"residential_address,omitempty"`
	IsUAEResident      *bool   `json:"is_uae_resident,omitempty"`
	IsPEP              *bool   `json:"is_pep,omitempty"`
}

// UpdateShareholder applies a partial update to one entry.
func (d *Draft) UpdateShareholder(index int, patch ShareholderPatch) error {
	if index < 0 || index >= len(d.Shareholders) {
		return fmt.Errorf("%w: %d", ErrShareholderIndex, index)
	}
	sh := &d.Shareholders[index]
	if patch.Email != nil {
		sh.Email = *patch.Email
	}
	if patch.Phone != nil {
		sh.Phone = *patch.Phone
	}
	if patch.NumberOfShares != nil {
		sh.NumberOfShares = *patch.NumberOfShares
	}
	if patch.Roles != nil {
		sh.Roles = patch.Roles
	}
	if patch.ResidentialAddress != nil {
		sh.ResidentialAddress = *patch.ResidentialAddress
	}
	if patch.IsUAEResident != nil {
		sh.IsUAEResident = *patch.IsUAEResident
	}
	if patch.IsPEP != nil {
		sh.IsPEP = *patch.IsPEP
	}
	return nil
}

// SetPassportScan attaches a locally-held scan to one shareholder.
func (d *Draft) SetPassportScan(index int, scan *PassportScan) error {
	if index < 0 || index >= len(d.Shareholders) {
		return fmt.Errorf("%w: %d", ErrShareholderIndex, index)
	}
	d.Shareholders[index].PassportScan = scan
	return nil
}

// SetExtractedPassport replaces the extracted fields wholesale. Any earlier
// confirmation no longer covers the new data, so it resets.
func (d *Draft) SetExtractedPassport(index int, data *PassportData) error {
	if index < 0 || index >= len(d.Shareholders) {
		return fmt.Errorf("%w: %d", ErrShareholderIndex, index)
	}
	d.Shareholders[index].ExtractedPassport = data
	d.Shareholders[index].IsPassportConfirmed = false
	return nil
}

// EditExtractedField overwrites a single extracted passport field with a
// user-supplied value. Edited data is no longer covered by an earlier
// confirmation, so the confirmed flag resets.
func (d *Draft) EditExtractedField(index int, field, value string) error {
	if index < 0 || index >= len(d.Shareholders) {
		return fmt.Errorf("%w: %d", ErrShareholderIndex, index)
	}
	p := d.Shareholders[index].ExtractedPassport
	if p == nil {
		return ErrNotExtracted
	}
	switch field {
	case "passport_number":
		p.PassportNumber = value
	case "full_name":
		p.RawFullName = value
	case "first_name":
		p.FirstName = value
	case "middle_name":
		p.MiddleName = value
	case "last_name":
		p.LastName = value
	case "date_of_birth":
		p.DateOfBirth = value
	case "nationality":
		p.Nationality = value
	case "issue_date":
		p.IssueDate = value
	case "expiry_date":
		p.ExpiryDate = value
	default:
		return fmt.Errorf("unknown passport field %q", field)
	}
	d.Shareholders[index].IsPassportConfirmed = false
	return nil
}

// ConfirmPassport marks one shareholder's extracted passport data as
// user-confirmed. Confirmation without prior extraction is rejected.
func (d *Draft) ConfirmPassport(index int) error {
	if index < 0 || index >= len(d.Shareholders) {
		return fmt.Errorf("%w: %d", ErrShareholderIndex, index)
	}
	if d.Shareholders[index].ExtractedPassport == nil {
		return ErrNotExtracted
	}
	d.Shareholders[index].IsPassportConfirmed = true
	return nil
}
