// internal/models/activity.go
package models

// Activity is one catalog entry from the IFZA activity list.
type Activity struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	IsRegulated  bool   `json:"is_regulated,omitempty"`
	LicenseType  string `json:"license_type,omitempty"`
	ActivityType string `json:"activity_type,omitempty"`
	Status       string `json:"status,omitempty"`
	Category     string `json:"category,omitempty"`
}

type ActivityList struct {
	Total int        `json:"total"`
	Items []Activity `json:"items"`
}

// ActivitySyncResult reports one catalog sync run.
type ActivitySyncResult struct {
	TotalFetched      int      `json:"total_fetched"`
	NonRegulatedCount int      `json:"non_regulated_count"`
	NewCount          int      `json:"new_count"`
	UpdatedCount      int      `json:"updated_count"`
	Errors            []string `json:"errors,omitempty"`
}
