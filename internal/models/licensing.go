// internal/models/licensing.go
package models

// Wire types for the upstream license-application service, field names
// matching its OpenAPI schema.

type ApplicationStatus string

const (
	StatusDraft      ApplicationStatus = "draft"
	StatusSubmitted  ApplicationStatus = "submitted"
	StatusInProgress ApplicationStatus = "in_progress"
	StatusApproved   ApplicationStatus = "approved"
	StatusRejected   ApplicationStatus = "rejected"
)

type BusinessActivityInput struct {
	ActivityID int  `json:"activity_id"`
	IsMain     bool `json:"is_main,omitempty"`
}

type BusinessActivityRef struct {
	ActivityID   int    `json:"activity_id"`
	ActivityCode string `json:"activity_code"`
	Name         string `json:"name"`
	IsMain       bool   `json:"is_main"`
}

type ShareholderInput struct {
	Email              string   `json:"email"`
	Phone              string   `json:"phone"`
	NumberOfShares     int      `json:"number_of_shares"`
	Roles              []string `json:"roles"`
	ResidentialAddress *string  `json:"residential_address,omitempty"`
	IsUAEResident      bool     `json:"is_uae_resident"`
	IsPEP              bool     `json:"is_pep"`
}

// PassportRecord is the server-side view of a shareholder's passport data.
// Verified flips only after the user confirms the extracted fields.
type PassportRecord struct {
	PassportNumber string `json:"passport_number,omitempty"`
	FullName       string `json:"full_name,omitempty"`
	FirstName      string `json:"first_name,omitempty"`
	MiddleName     string `json:"middle_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
	Nationality    string `json:"nationality,omitempty"`
	IssueDate      string `json:"issue_date,omitempty"`
	ExpiryDate     string `json:"expiry_date,omitempty"`
	Verified       bool   `json:"verified"`
}

type Shareholder struct {
	ID                 string          `json:"id"`
	Email              string          `json:"email"`
	Phone              string          `json:"phone"`
	NumberOfShares     int             `json:"number_of_shares"`
	Roles              []string        `json:"roles"`
	ResidentialAddress *string         `json:"residential_address"`
	IsUAEResident      bool            `json:"is_uae_resident"`
	IsPEP              bool            `json:"is_pep"`
	PassportUploaded   bool            `json:"passport_uploaded"`
	PassportDocumentID *string         `json:"passport_document_id"`
	PassportData       *PassportRecord `json:"passport_data,omitempty"`
}

// LicenseApplicationInput is the partial update payload; only the fields
// owned by the step being left are populated.
type LicenseApplicationInput struct {
	BusinessActivities   []BusinessActivityInput `json:"business_activities,omitempty"`
	CompanyName1         *string                 `json:"company_name_1,omitempty"`
	CompanyName2         *string                 `json:"company_name_2,omitempty"`
	CompanyName3         *string                 `json:"company_name_3,omitempty"`
	VisaPackageQuantity  *int                    `json:"visa_package_quantity,omitempty"`
	NumberOfShareholders *int                    `json:"number_of_shareholders,omitempty"`
	TotalShares          *int                    `json:"total_shares,omitempty"`
	Shareholders         []ShareholderInput      `json:"shareholders,omitempty"`
}

// IsEmpty reports whether the payload carries nothing to persist.
func (in *LicenseApplicationInput) IsEmpty() bool {
	return in == nil ||
		(in.BusinessActivities == nil &&
			in.CompanyName1 == nil && in.CompanyName2 == nil && in.CompanyName3 == nil &&
			in.VisaPackageQuantity == nil &&
			in.NumberOfShareholders == nil && in.TotalShares == nil &&
			in.Shareholders == nil)
}

type LicenseApplication struct {
	ID                   string                `json:"id"`
	SessionID            string                `json:"session_id"`
	Status               ApplicationStatus     `json:"status"`
	BusinessActivities   []BusinessActivityRef `json:"business_activities,omitempty"`
	CompanyName1         *string               `json:"company_name_1"`
	CompanyName2         *string               `json:"company_name_2"`
	CompanyName3         *string               `json:"company_name_3"`
	VisaPackageQuantity  *int                  `json:"visa_package_quantity"`
	NumberOfShareholders *int                  `json:"number_of_shareholders"`
	TotalShares          *int                  `json:"total_shares"`
	Shareholders         []Shareholder         `json:"shareholders"`
	CompletionPercentage float64               `json:"completion_percentage"`
	ValidationErrors     []string              `json:"validation_errors"`
	IsReadyToSubmit      bool                  `json:"is_ready_to_submit"`
	IFZADraftID          *string               `json:"ifza_draft_id"`
	CreatedAt            string                `json:"created_at"`
	UpdatedAt            string                `json:"updated_at"`
}

type LicenseApplicationList struct {
	Items  []LicenseApplication `json:"items"`
	Total  int                  `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

type PassportUpload struct {
	Success       bool   `json:"success"`
	ShareholderID string `json:"shareholder_id"`
	DocumentID    string `json:"document_id"`
	Filename      string `json:"filename"`
	FileSize      int64  `json:"file_size"`
}

type PassportURL struct {
	ShareholderID string `json:"shareholder_id"`
	DownloadURL   string `json:"download_url"`
	ExpiresIn     int    `json:"expires_in"`
}

// ExtractedPassport is the OCR result for one passport scan.
type ExtractedPassport struct {
	PassportNumber string `json:"passport_number,omitempty"`
	FullName       string `json:"full_name,omitempty"`
	FirstName      string `json:"first_name,omitempty"`
	MiddleName     string `json:"middle_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
	Nationality    string `json:"nationality,omitempty"`
	IssueDate      string `json:"issue_date,omitempty"`
	ExpiryDate     string `json:"expiry_date,omitempty"`
}

type SubmitResult struct {
	Success          bool     `json:"success"`
	IFZADraftID      *string  `json:"ifza_draft_id"`
	Message          string   `json:"message"`
	ValidationErrors []string `json:"validation_errors"`
}

type NameValidation struct {
	CompanyName    string   `json:"company_name"`
	IsValid        bool     `json:"is_valid"`
	Confidence     float64  `json:"confidence"`
	Issues         []string `json:"issues"`
	Suggestions    []string `json:"suggestions"`
	Reasoning      string   `json:"reasoning"`
	RAGContextUsed bool     `json:"rag_context_used"`
}
