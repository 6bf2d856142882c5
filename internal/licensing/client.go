// internal/licensing/client.go
package licensing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"formation-wizard/internal/common/httpx"
	"formation-wizard/internal/common/logger"
	"formation-wizard/internal/common/metrics"
	"formation-wizard/internal/models"
)

// Client implements API over the service's REST surface.
type Client struct {
	baseURL  string
	apiToken string
	http     *httpx.Client
	logger   logger.Logger
}

func NewClient(baseURL, apiToken string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiToken: apiToken,
		http:     httpx.NewClient(timeout),
		logger:   log,
	}
}

func (c *Client) headers() map[string]string {
	h := map[string]string{}
	if c.apiToken != "" {
		h["Authorization"] = "Bearer " + c.apiToken
	}
	return h
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) call(operation string, err error) error {
	status := "success"
	if err != nil {
		status = "error"
		c.logger.WithError(err).Error("licensing call failed", map[string]interface{}{
			"operation": operation,
		})
	}
	metrics.RemoteCalls.WithLabelValues(operation, status).Inc()
	return err
}

func (c *Client) CreateApplication(ctx context.Context, sessionID string) (*models.LicenseApplication, error) {
	q := url.Values{"session_id": {sessionID}}
	var out models.LicenseApplication
	err := c.http.DoJSON(ctx, http.MethodPost, c.url("/api/v1/license-application/", q), c.headers(), nil, &out)
	if err := c.call("create_application", err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetApplication(ctx context.Context, applicationID string) (*models.LicenseApplication, error) {
	var out models.LicenseApplication
	err := c.http.DoJSON(ctx, http.MethodGet, c.url("/api/v1/license-application/"+applicationID, nil), c.headers(), nil, &out)
	if err := c.call("get_application", err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListApplications(ctx context.Context, opts ListOptions) (*models.LicenseApplicationList, error) {
	q := url.Values{}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.Status != "" {
		q.Set("status", string(opts.Status))
	}
	var out models.LicenseApplicationList
	err := c.http.DoJSON(ctx, http.MethodGet, c.url("/api/v1/license-application/", q), c.headers(), nil, &out)
	if err := c.call("list_applications", err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateApplication(ctx context.Context, applicationID string, input *models.LicenseApplicationInput) (*models.LicenseApplication, error) {
	var out models.LicenseApplication
	err := c.http.DoJSON(ctx, http.MethodPatch, c.url("/api/v1/license-application/"+applicationID, nil), c.headers(), input, &out)
	if err := c.call("update_application", err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteApplication(ctx context.Context, applicationID string) error {
	err := c.http.DoJSON(ctx, http.MethodDelete, c.url("/api/v1/license-application/"+applicationID, nil), c.headers(), nil, nil)
	return c.call("delete_application", err)
}

func (c *Client) UploadPassport(ctx context.Context, applicationID, shareholderID, filename string, data []byte) (*models.PassportUpload, error) {
	path := fmt.Sprintf("/api/v1/license-application/%s/shareholders/%s/passport", applicationID, shareholderID)
	var out models.PassportUpload
	err := c.http.DoMultipart(ctx, http.MethodPost, c.url(path, nil), c.headers(), "file", filename, data, &out)
	if err := c.call("upload_passport", err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PassportDownloadURL(ctx context.Context, applicationID, shareholderID string, expiresIn int) (*models.PassportURL, error) {
	path := fmt.Sprintf("/api/v1/license-application/%s/shareholders/%s/passport", applicationID, shareholderID)
	q := url.Values{"expires_in": {strconv.Itoa(expiresIn)}}
	var out models.PassportURL
	err := c.http.DoJSON(ctx, http.MethodGet, c.url(path, q), c.headers(), nil, &out)
	if err := c.call("passport_download_url", err); err != nil {
		return nil, err
	}
	return &out, nil
}

// extractionEnvelope is the wrapped form the extraction endpoint may return.
// Older deployments return the bare extracted fields instead.
type extractionEnvelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`

	models.ExtractedPassport
}

func (c *Client) ExtractPassportData(ctx context.Context, applicationID, shareholderID string) (*models.ExtractedPassport, error) {
	path := fmt.Sprintf("/api/v1/license-application/%s/shareholders/%s/passport/extract", applicationID, shareholderID)
	out, err := c.extract(ctx, path)
	if err := c.call("extract_passport", err); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) extract(ctx context.Context, path string) (*models.ExtractedPassport, error) {
	var env extractionEnvelope
	if err := c.http.DoJSON(ctx, http.MethodPost, c.url(path, nil), c.headers(), nil, &env); err != nil {
		return nil, err
	}

	if env.Success == nil {
		// Bare response, no envelope.
		out := env.ExtractedPassport
		return &out, nil
	}
	if !*env.Success {
		reason := "Unknown extraction error"
		if len(env.Errors) > 0 {
			reason = strings.Join(env.Errors, " | ")
		}
		return nil, fmt.Errorf("%s", reason)
	}
	var out models.ExtractedPassport
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return nil, fmt.Errorf("decode extraction payload: %w", err)
		}
	}
	return &out, nil
}

func (c *Client) ConfirmPassportData(ctx context.Context, applicationID, shareholderID string, fields *models.ExtractedPassport) (*models.Shareholder, error) {
	path := fmt.Sprintf("/api/v1/license-application/%s/shareholders/%s/passport-data", applicationID, shareholderID)

	body := *fields
	if body.FullName == "" {
		body.FullName = joinNameParts(body.FirstName, body.MiddleName, body.LastName)
	}

	var out models.Shareholder
	err := c.http.DoJSON(ctx, http.MethodPatch, c.url(path, nil), c.headers(), &body, &out)
	if err := c.call("confirm_passport", err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitApplication(ctx context.Context, applicationID string) (*models.SubmitResult, error) {
	var out models.SubmitResult
	err := c.http.DoJSON(ctx, http.MethodPost, c.url("/api/v1/license-application/"+applicationID+"/submit", nil), c.headers(), nil, &out)
	if err := c.call("submit_application", err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ValidateCompanyName(ctx context.Context, name string) (*models.NameValidation, error) {
	body := map[string]string{"company_name": name}
	var out models.NameValidation
	err := c.http.DoJSON(ctx, http.MethodPost, c.url("/api/v1/company/validate-name", nil), c.headers(), body, &out)
	if err := c.call("validate_company_name", err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListActivities(ctx context.Context, opts ActivityListOptions) (*models.ActivityList, error) {
	q := url.Values{}
	if opts.ActivityType != "" {
		q.Set("activity_type", opts.ActivityType)
	}
	if opts.LicenseType != "" {
		q.Set("license_type", opts.LicenseType)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	var out models.ActivityList
	err := c.http.DoJSON(ctx, http.MethodGet, c.url("/api/v1/activities", q), c.headers(), nil, &out)
	if err := c.call("list_activities", err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SearchActivities(ctx context.Context, query string, limit int) (*models.ActivityList, error) {
	q := url.Values{"q": {query}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out models.ActivityList
	err := c.http.DoJSON(ctx, http.MethodGet, c.url("/api/v1/activities/search", q), c.headers(), nil, &out)
	if err := c.call("search_activities", err); err != nil {
		return nil, err
	}
	return &out, nil
}

func joinNameParts(parts ...string) string {
	name := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if name != "" {
			name += " "
		}
		name += p
	}
	return name
}

var _ API = (*Client)(nil)
