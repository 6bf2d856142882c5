// internal/licensing/licensing.go

// Package licensing talks to the upstream license-application service. The
// service owns the durable application record; this package only shapes
// requests and unwraps responses.
package licensing

import (
	"context"

	"formation-wizard/internal/models"
)

// API is the full remote surface the wizard depends on. The controller and
// the HTTP handlers take this interface so tests can substitute a fake.
type API interface {
	CreateApplication(ctx context.Context, sessionID string) (*models.LicenseApplication, error)
	GetApplication(ctx context.Context, applicationID string) (*models.LicenseApplication, error)
	ListApplications(ctx context.Context, opts ListOptions) (*models.LicenseApplicationList, error)
	UpdateApplication(ctx context.Context, applicationID string, input *models.LicenseApplicationInput) (*models.LicenseApplication, error)
	DeleteApplication(ctx context.Context, applicationID string) error

	UploadPassport(ctx context.Context, applicationID, shareholderID, filename string, data []byte) (*models.PassportUpload, error)
	PassportDownloadURL(ctx context.Context, applicationID, shareholderID string, expiresIn int) (*models.PassportURL, error)
	ExtractPassportData(ctx context.Context, applicationID, shareholderID string) (*models.ExtractedPassport, error)
	ConfirmPassportData(ctx context.Context, applicationID, shareholderID string, fields *models.ExtractedPassport) (*models.Shareholder, error)

	SubmitApplication(ctx context.Context, applicationID string) (*models.SubmitResult, error)
	ValidateCompanyName(ctx context.Context, name string) (*models.NameValidation, error)

	ListActivities(ctx context.Context, opts ActivityListOptions) (*models.ActivityList, error)
	SearchActivities(ctx context.Context, query string, limit int) (*models.ActivityList, error)
}

// ListOptions filters the application listing.
type ListOptions struct {
	Limit  int
	Offset int
	Status models.ApplicationStatus
}

// ActivityListOptions filters the activity catalog listing.
type ActivityListOptions struct {
	ActivityType string
	LicenseType  string
	Limit        int
	Offset       int
}
