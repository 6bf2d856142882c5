// internal/api/handlers.go

// Package api exposes the wizard over HTTP for the browser client. Every
// request loads the draft from the session store, applies exactly one
// operation through the controller or the draft's mutation methods, saves
// the draft back, and returns the refreshed wizard state.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	stderrors "formation-wizard/internal/common/errors"
	"formation-wizard/internal/common/logger"
	"formation-wizard/internal/licensing"
	"formation-wizard/internal/models"
	"formation-wizard/internal/session"
	"formation-wizard/internal/wizard/controller"
	"formation-wizard/internal/wizard/draft"
	"formation-wizard/internal/wizard/step"
)

const maxScanSize = 10 << 20 // 10 MB

// ActivityCatalog is the read/sync surface the activity endpoints need.
type ActivityCatalog interface {
	List(ctx context.Context, opts licensing.ActivityListOptions) (*models.ActivityList, error)
	Search(ctx context.Context, query string, limit int) (*models.ActivityList, error)
	Get(ctx context.Context, id string) (*models.Activity, error)
	SyncFromIFZA(ctx context.Context) (*models.ActivitySyncResult, error)
}

// SubmissionNotifier is invoked after a successful terminal submission.
type SubmissionNotifier interface {
	SubmissionConfirmed(ctx context.Context, email, phone, applicationID, draftReference string)
}

type Handlers struct {
	store     *session.Store
	licensing licensing.API
	catalog   ActivityCatalog
	notifier  SubmissionNotifier
	listeners []controller.StepListener
	logger    logger.Logger
}

func NewHandlers(store *session.Store, api licensing.API, catalog ActivityCatalog, notifier SubmissionNotifier, log logger.Logger) *Handlers {
	return &Handlers{
		store:     store,
		licensing: api,
		catalog:   catalog,
		notifier:  notifier,
		logger:    log,
	}
}

// OnStepChanged registers a listener wired into every per-request
// controller, e.g. the audit recorder.
func (h *Handlers) OnStepChanged(fn controller.StepListener) {
	h.listeners = append(h.listeners, fn)
}

// wizardState is the response body for every wizard endpoint.
type wizardState struct {
	ApplicationID string       `json:"application_id"`
	SessionID     string       `json:"session_id"`
	CurrentStep   step.Step    `json:"current_step"`
	StepNumber    int          `json:"step_number"`
	TotalSteps    int          `json:"total_steps"`
	StepTitle     string       `json:"step_title"`
	CanAdvance    bool         `json:"can_advance"`
	IsLastStep    bool         `json:"is_last_step"`
	SaveError     string       `json:"save_error,omitempty"`
	Submitted     bool         `json:"submitted"`
	Draft         *draft.Draft `json:"draft"`
}

func stateOf(d *draft.Draft) wizardState {
	return wizardState{
		ApplicationID: d.ApplicationID,
		SessionID:     d.SessionID,
		CurrentStep:   d.CurrentStep,
		StepNumber:    step.Number(d.CurrentStep),
		TotalSteps:    len(step.All()),
		StepTitle:     step.Title(d.CurrentStep),
		CanAdvance:    draft.CanAdvance(d.CurrentStep, d),
		IsLastStep:    step.IsLast(d.CurrentStep),
		SaveError:     d.SaveError,
		Submitted:     d.Submitted,
		Draft:         d,
	}
}

func (h *Handlers) respondError(c *gin.Context, status int, err error) {
	stdErr := stderrors.Normalize(err)
	c.JSON(status, gin.H{
		"code":      stdErr.Code,
		"message":   stdErr.UserMessage(),
		"retryable": stdErr.Retryable,
	})
}

// withDraft loads the draft, runs fn, and saves the draft back when fn
// reports it mutated something. fn returns the response status.
func (h *Handlers) withDraft(c *gin.Context, fn func(d *draft.Draft) (int, error)) {
	id := c.Param("id")
	d, err := h.store.Load(c.Request.Context(), id)
	if err != nil {
		stdErr := stderrors.Normalize(err)
		if stdErr.Code == stderrors.ErrCodeSessionNotFound {
			h.respondError(c, http.StatusNotFound, err)
			return
		}
		h.respondError(c, http.StatusInternalServerError, err)
		return
	}

	status, opErr := fn(d)

	// The draft is saved even when the operation failed: a failed Next
	// leaves a save error the next GET must still show.
	if err := h.store.Save(c.Request.Context(), d); err != nil {
		h.respondError(c, http.StatusInternalServerError, err)
		return
	}

	if opErr != nil {
		h.respondError(c, status, opErr)
		return
	}
	c.JSON(status, stateOf(d))
}

func (h *Handlers) newController(d *draft.Draft) *controller.Controller {
	ctrl := controller.New(d, h.licensing, h.logger)
	for _, fn := range h.listeners {
		ctrl.OnStepChanged(fn)
	}
	return ctrl
}

// ==========================
// Lifecycle Handlers
// ==========================

// CreateWizard starts a new application: creates the upstream record, then
// seeds and stores an empty draft.
func (h *Handlers) CreateWizard(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		h.respondError(c, http.StatusBadRequest, stderrors.NewInvalidRequestError("session_id is required"))
		return
	}

	rec, err := h.licensing.CreateApplication(c.Request.Context(), sessionID)
	if err != nil {
		h.respondError(c, http.StatusBadGateway, stderrors.NewCreateFailedError(err))
		return
	}

	d := draft.New(rec.ID, sessionID)
	if err := h.store.Save(c.Request.Context(), d); err != nil {
		h.respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusCreated, stateOf(d))
}

// CancelWizard abandons an application: the upstream record and the stored
// draft are both removed.
func (h *Handlers) CancelWizard(c *gin.Context) {
	id := c.Param("id")
	if err := h.licensing.DeleteApplication(c.Request.Context(), id); err != nil {
		h.respondError(c, http.StatusBadGateway, err)
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListApplications proxies the upstream application listing.
func (h *Handlers) ListApplications(c *gin.Context) {
	opts := licensing.ListOptions{Status: models.ApplicationStatus(c.Query("status"))}
	opts.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	opts.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	res, err := h.licensing.ListApplications(c.Request.Context(), opts)
	if err != nil {
		h.respondError(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetWizard returns the current state without mutating anything.
func (h *Handlers) GetWizard(c *gin.Context) {
	d, err := h.store.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		stdErr := stderrors.Normalize(err)
		if stdErr.Code == stderrors.ErrCodeSessionNotFound {
			h.respondError(c, http.StatusNotFound, err)
			return
		}
		h.respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, stateOf(d))
}

// ResumeWizard rebuilds a lost session from the upstream record and derives
// the step to land on from what was already persisted.
func (h *Handlers) ResumeWizard(c *gin.Context) {
	id := c.Param("id")

	var body struct {
		ContactEmail string `json:"contact_email"`
	}
	_ = c.ShouldBindJSON(&body)

	rec, err := h.licensing.GetApplication(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, http.StatusBadGateway, stderrors.NewFetchFailedError(id, err))
		return
	}

	d := draft.FromRecord(rec, body.ContactEmail)
	if err := h.store.Save(c.Request.Context(), d); err != nil {
		h.respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, stateOf(d))
}

// ==========================
// Navigation Handlers
// ==========================

func (h *Handlers) Next(c *gin.Context) {
	h.withDraft(c, func(d *draft.Draft) (int, error) {
		ctrl := h.newController(d)
		err := ctrl.Next(c.Request.Context())
		if err == controller.ErrBlocked {
			return http.StatusConflict, err
		}
		if err != nil {
			// The transition failed; the state (with its save error) is
			// still the caller's answer.
			return http.StatusOK, nil
		}
		if d.Submitted && h.notifier != nil {
			h.notifier.SubmissionConfirmed(c.Request.Context(), d.ContactEmail, d.ContactPhone(), d.ApplicationID, d.DraftReference)
		}
		return http.StatusOK, nil
	})
}

func (h *Handlers) Previous(c *gin.Context) {
	h.withDraft(c, func(d *draft.Draft) (int, error) {
		h.newController(d).Previous()
		return http.StatusOK, nil
	})
}

func (h *Handlers) DismissError(c *gin.Context) {
	h.withDraft(c, func(d *draft.Draft) (int, error) {
		d.SaveError = ""
		return http.StatusOK, nil
	})
}

// ==========================
// Draft Mutation Handlers
// ==========================

func (h *Handlers) SetContactEmail(c *gin.Context) {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, http.StatusBadRequest, stderrors.NewInvalidRequestError(err.Error()))
		return
	}
	h.withDraft(c, func(d *draft.Draft) (int, error) {
		d.SetContactEmail(body.Email)
		return http.StatusOK, nil
	})
}

func (h *Handlers) AddActivity(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, stderrors.NewInvalidRequestError(err.Error()))
		return
	}
	if issues := validateBody(activitySelectionValidator, raw); issues != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": stderrors.ErrCodeInvalidRequest, "issues": issues})
		return
	}

	var sel draft.ActivitySelection
	if err := bindJSON(raw, &sel); err != nil {
		h.respondError(c, http.StatusBadRequest, stderrors.NewInvalidRequestError(err.Error()))
		return
	}

	h.withDraft(c, func(d *draft.Draft) (int, error) {
		if err := d.AddActivity(sel); err != nil {
			return http.StatusUnprocessableEntity, stderrors.NewInvalidRequestError(err.Error())
		}
		return http.StatusOK, nil
	})
}

func (h *Handlers) RemoveActivity(c *gin.Context) {
	activityID, err := strconv.Atoi(c.Param("activityId"))
	if err != nil {
		h.respondError(c, http.StatusBadRequest, stderrors.NewInvalidRequestError("activityId must be an integer"))
		return
	}
	h.withDraft(c, func(d *draft.Draft) (int, error) {
		if err := d.RemoveActivity(activityID); err != nil {
			return http.StatusNotFound, stderrors.NewInvalidRequestError(err.Error())
		}
		return http.StatusOK, nil
	})
}

func (h *Handlers) SetMainActivity(c *gin.Context) {
	activityID, err := strconv.Atoi(c.Param("activityId"))
	if err != nil {
		h.respondError(c, http.StatusBadRequest, stderrors.NewInvalidRequestError("activityId must be an integer"))
		return
	}
	h.withDraft(c, func(d *draft.Draft) (int, error) {
		if err := d.SetMainActivity(activityID); err != nil {
			return http.StatusNotFound, stderrors.NewInvalidRequestError(err.Error())
		}
		return http.StatusOK, nil
	})
}

func (h *Handlers) SetCompanyName(c *gin.Context) {
	index, err := nameIndex(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err)
		return
	}
	var body struct {
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, http.StatusBadRequest, stderrors.NewInvalidRequestError(err.Error()))
		return
	}
	h.withDraft(c, func(d *draft.Draft) (int, error) {
		if err := d.SetCompanyName(index, body.Value); err != nil {
			return http.StatusBadRequest, stderrors.NewInvalidRequestError(err.Error())
		}
		return http.StatusOK, nil
	})
}

// ValidateCompanyName proxies the naming service for one of the three
// choices and records the verdict on the draft.
func (h *Handlers) ValidateCompanyName(c *gin.Context) {
	index, err := nameIndex(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err)
		return
	}

	id := c.Param("id")
	d, loadErr := h.store.Load(c.Request.Context(), id)
	if loadErr != nil {
		h.respondError(c, http.StatusNotFound, loadErr)
		return
	}

	ctrl := h.newController(d)
	res, checkErr := ctrl.CheckCompanyName(c.Request.Context(), index)

	// A transport failure leaves the stored verdict alone, but the draft is
	// saved regardless so a recorded verdict is never lost.
	if err := h.store.Save(c.Request.Context(), d); err != nil {
		h.respondError(c, http.StatusInternalServerError, err)
		return
	}
	if checkErr != nil {
		h.respondError(c, http.StatusBadGateway, checkErr)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) SetVisaPackage(c *gin.Context) {
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, http.StatusBadRequest, stderrors.NewInvalidRequestError(err.Error()))
		return
	}
	h.withDraft(c, func(d *draft.Draft) (int, error) {
		if err := d.SetVisaPackageQuantity(body.Quantity); err != nil {
			return http.StatusBadRequest, stderrors.NewInvalidRequestError(err.Error())
		}
		return http.StatusOK, nil
	})
}

func (h *Handlers) SetShareholding(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, stderrors.NewInvalidRequestError(err.Error()))
		return
	}
	if issues := validateBody(shareholdingValidator, raw); issues != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": stderrors.ErrCodeInvalidRequest, "issues": issues})
		return
	}

	var body struct {
		NumberOfShareholders int `json:"number_of_shareholders"`
		TotalShares          int `json:"total_shares"`
	}
	if err := bindJSON(raw, &body); err != nil {
		h.respondError(c, http.StatusBadRequest, stderrors.NewInvalidRequestError(err.Error()))
		return
	}

	h.withDraft(c, func(d *draft.Draft) (int, error) {
		if err := d.SetShareholdingInfo(body.NumberOfShareholders, body.TotalShares); err != nil {
			return http.StatusBadRequest, stderrors.NewInvalidRequestError(err.Error())
		}
		return http.StatusOK, nil
	})
}

func (h *Handlers) PatchShareholder(c *gin.Context) {
	index, err := shareholderIndex(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err)
		return
	}

	raw, readErr := io.ReadAll(c.Request.Body)
	if readErr != nil {
		h.respondError(c, http.StatusBadRequest, stderrors.NewInvalidRequestError(readErr.Error()))
		return
	}
	if issues := validateBody(shareholderPatchValidator, raw); issues != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": stderrors.ErrCodeInvalidRequest, "issues": issues})
		return
	}

	var patch draft.ShareholderPatch
	if err := bindJSON(raw, &patch); err != nil {
		h.respondError(c, http.StatusBadRequest, stderrors.NewInvalidRequestError(err.Error()))
		return
	}

	h.withDraft(c, func(d *draft.Draft) (int, error) {
		if err := d.UpdateShareholder(index, patch); err != nil {
			return http.StatusNotFound, stderrors.NewInvalidRequestError(err.Error())
		}
		return http.StatusOK, nil
	})
}

// UploadScan attaches a passport scan to a shareholder locally. The actual
// upstream upload happens when the details step is left.
func (h *Handlers) UploadScan(c *gin.Context) {
	index, err := shareholderIndex(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err)
		return
	}

	file, header, fileErr := c.Request.FormFile("file")
	if fileErr != nil {
		h.respondError(c, http.StatusBadRequest, stderrors.NewInvalidRequestError("multipart field 'file' is required"))
		return
	}
	defer file.Close()

	data, readErr := io.ReadAll(io.LimitReader(file, maxScanSize+1))
	if readErr != nil {
		h.respondError(c, http.StatusBadRequest, stderrors.NewInvalidRequestError(readErr.Error()))
		return
	}
	if len(data) > maxScanSize {
		h.respondError(c, http.StatusRequestEntityTooLarge, stderrors.NewInvalidRequestError("scan exceeds 10MB"))
		return
	}

	h.withDraft(c, func(d *draft.Draft) (int, error) {
		if err := d.SetPassportScan(index, &draft.PassportScan{Filename: header.Filename, Data: data}); err != nil {
			return http.StatusNotFound, stderrors.NewInvalidRequestError(err.Error())
		}
		return http.StatusOK, nil
	})
}

// PassportURL returns a short-lived download link for an already-uploaded
// scan, for the review screen's preview.
func (h *Handlers) PassportURL(c *gin.Context) {
	index, err := shareholderIndex(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err)
		return
	}
	expiresIn, _ := strconv.Atoi(c.DefaultQuery("expires_in", "3600"))

	d, loadErr := h.store.Load(c.Request.Context(), c.Param("id"))
	if loadErr != nil {
		h.respondError(c, http.StatusNotFound, loadErr)
		return
	}
	if index >= len(d.Shareholders) || d.Shareholders[index].BackendID == "" {
		h.respondError(c, http.StatusConflict, stderrors.NewInvalidRequestError("passport has not been uploaded yet"))
		return
	}

	res, urlErr := h.licensing.PassportDownloadURL(c.Request.Context(), d.ApplicationID, d.Shareholders[index].BackendID, expiresIn)
	if urlErr != nil {
		h.respondError(c, http.StatusBadGateway, urlErr)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) ExtractPassport(c *gin.Context) {
	index, err := shareholderIndex(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err)
		return
	}
	h.withDraft(c, func(d *draft.Draft) (int, error) {
		if err := h.newController(d).ExtractPassport(c.Request.Context(), index); err != nil {
			return http.StatusBadGateway, err
		}
		return http.StatusOK, nil
	})
}

func (h *Handlers) EditPassportField(c *gin.Context) {
	index, err := shareholderIndex(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err)
		return
	}

	raw, readErr := io.ReadAll(c.Request.Body)
	if readErr != nil {
		h.respondError(c, http.StatusBadRequest, stderrors.NewInvalidRequestError(readErr.Error()))
		return
	}
	if issues := validateBody(passportFieldValidator, raw); issues != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": stderrors.ErrCodeInvalidRequest, "issues": issues})
		return
	}

	var body struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := bindJSON(raw, &body); err != nil {
		h.respondError(c, http.StatusBadRequest, stderrors.NewInvalidRequestError(err.Error()))
		return
	}

	h.withDraft(c, func(d *draft.Draft) (int, error) {
		if err := d.EditExtractedField(index, body.Field, body.Value); err != nil {
			return http.StatusUnprocessableEntity, stderrors.NewInvalidRequestError(err.Error())
		}
		return http.StatusOK, nil
	})
}

func (h *Handlers) ConfirmPassport(c *gin.Context) {
	index, err := shareholderIndex(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err)
		return
	}
	h.withDraft(c, func(d *draft.Draft) (int, error) {
		if err := d.ConfirmPassport(index); err != nil {
			return http.StatusUnprocessableEntity, stderrors.NewInvalidRequestError(err.Error())
		}
		return http.StatusOK, nil
	})
}

// ==========================
// Activity Catalog Handlers
// ==========================

func (h *Handlers) ListActivities(c *gin.Context) {
	opts := licensing.ActivityListOptions{
		ActivityType: c.Query("activity_type"),
		LicenseType:  c.Query("license_type"),
	}
	opts.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	opts.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	res, err := h.catalog.List(c.Request.Context(), opts)
	if err != nil {
		h.respondError(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) SearchActivities(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	res, err := h.catalog.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, stderrors.NewInvalidRequestError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) GetActivity(c *gin.Context) {
	res, err := h.catalog.Get(c.Request.Context(), c.Param("activityId"))
	if err != nil {
		h.respondError(c, http.StatusNotFound, stderrors.NewInvalidRequestError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) SyncActivities(c *gin.Context) {
	res, err := h.catalog.SyncFromIFZA(c.Request.Context())
	if err != nil {
		h.respondError(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ==========================
// Param Helpers
// ==========================

func shareholderIndex(c *gin.Context) (int, error) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		return 0, stderrors.NewInvalidRequestError("index must be a non-negative integer")
	}
	return index, nil
}

func nameIndex(c *gin.Context) (int, error) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 || index > 2 {
		return 0, stderrors.NewInvalidRequestError("index must be 0, 1 or 2")
	}
	return index, nil
}

func bindJSON(raw []byte, out interface{}) error {
	return json.Unmarshal(raw, out)
}
