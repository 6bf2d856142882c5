// internal/wizard/controller/controller.go

// Package controller drives the step state machine for one application
// draft. All forward movement funnels through Next, which persists the
// leaving step's fields, runs any per-shareholder call batches, and only
// then moves the step pointer. Remote failures never advance the pointer;
// they become the draft's dismissible save error instead.
package controller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	stderrors "formation-wizard/internal/common/errors"
	"formation-wizard/internal/common/logger"
	"formation-wizard/internal/common/metrics"
	"formation-wizard/internal/licensing"
	"formation-wizard/internal/models"
	"formation-wizard/internal/wizard/draft"
	"formation-wizard/internal/wizard/step"
)

// ErrBlocked is returned when Next is invoked while the current step's exit
// conditions are unmet. It is a caller bug surfaced politely, not a save
// error; the draft is untouched.
var ErrBlocked = stderrors.NewInvalidRequestError("current step validation not satisfied")

// StepListener observes completed step changes.
type StepListener func(applicationID string, from, to step.Step)

// Controller owns one draft for the duration of a request.
type Controller struct {
	d         *draft.Draft
	api       licensing.API
	logger    logger.Logger
	listeners []StepListener
	busy      atomic.Bool
}

func New(d *draft.Draft, api licensing.API, log logger.Logger) *Controller {
	return &Controller{d: d, api: api, logger: log}
}

func (c *Controller) Draft() *draft.Draft { return c.d }

func (c *Controller) CurrentStep() step.Step { return c.d.CurrentStep }

// CanAdvance mirrors the gate for the current step.
func (c *Controller) CanAdvance() bool { return draft.CanAdvance(c.d.CurrentStep, c.d) }

// Busy reports whether a transition-scoped remote call is outstanding.
func (c *Controller) Busy() bool { return c.busy.Load() }

// SaveError returns the current banner text, empty when none.
func (c *Controller) SaveError() string { return c.d.SaveError }

// DismissError clears the banner without retrying anything.
func (c *Controller) DismissError() { c.d.SaveError = "" }

// OnStepChanged registers a listener invoked after every completed step
// change, forward or backward. Listener errors are the listener's problem.
func (c *Controller) OnStepChanged(fn StepListener) {
	c.listeners = append(c.listeners, fn)
}

// Previous moves one step back. No remote calls, no validation; going back
// is always allowed except at the first step.
func (c *Controller) Previous() {
	cur := c.d.CurrentStep
	if step.IndexOf(cur) <= 0 {
		return
	}
	c.advanceTo(step.Previous(cur))
}

// Next runs the forward transition for the current step. On failure the
// step pointer stays put and the returned error doubles as the draft's save
// error. ErrBlocked means the gate was closed and nothing was attempted.
func (c *Controller) Next(ctx context.Context) error {
	cur := c.d.CurrentStep

	if !draft.CanAdvance(cur, c.d) {
		return ErrBlocked
	}

	c.busy.Store(true)
	defer c.busy.Store(false)

	started := time.Now()
	defer func() {
		metrics.TransitionDuration.WithLabelValues(string(cur)).Observe(time.Since(started).Seconds())
	}()

	// Nothing to persist before the remote record exists.
	if c.d.ApplicationID != "" {
		if err := c.persistStep(ctx, cur); err != nil {
			return err
		}
	}

	// Fixed forward edge: details collection always lands on review.
	if cur == step.ShareholderDetails {
		c.d.SaveError = ""
		c.advanceTo(step.PassportReview)
		return nil
	}

	if cur == step.PassportReview {
		if err := c.confirmBatch(ctx); err != nil {
			return c.fail(cur, stderrors.NewConfirmFailedError(err))
		}
		c.d.SaveError = ""
	}

	if !step.IsLast(cur) {
		c.d.SaveError = ""
		c.advanceTo(step.Next(cur))
		return nil
	}

	return c.submit(ctx, cur)
}

// persistStep saves the leaving step's field group, then runs the upload
// batch when leaving shareholder details.
func (c *Controller) persistStep(ctx context.Context, cur step.Step) error {
	payload := stepPayload(cur, c.d)
	if payload.IsEmpty() {
		return nil
	}

	rec, err := c.api.UpdateApplication(ctx, c.d.ApplicationID, payload)
	if err != nil {
		c.logger.WithError(err).Error("step persistence failed", map[string]interface{}{
			"application_id": c.d.ApplicationID,
			"step":           string(cur),
		})
		return c.fail(cur, stderrors.NewSaveFailedError(err))
	}

	if cur == step.ShareholderDetails {
		c.d.AdoptShareholderIDs(rec.Shareholders)
		if err := c.uploadBatch(ctx); err != nil {
			return c.fail(cur, stderrors.NewUploadFailedError(err))
		}
	}

	c.d.SaveError = ""
	return nil
}

// uploadBatch pushes every locally-held passport scan whose shareholder has
// a server id. All uploads run concurrently; the first error reported wins
// and fails the whole transition, though uploads that already finished stay
// committed server-side.
func (c *Controller) uploadBatch(ctx context.Context) error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(c.d.Shareholders))

	for i := range c.d.Shareholders {
		sh := &c.d.Shareholders[i]
		if sh.PassportScan == nil || sh.BackendID == "" {
			continue
		}
		wg.Add(1)
		go func(shareholderID, filename string, data []byte) {
			defer wg.Done()
			_, err := c.api.UploadPassport(ctx, c.d.ApplicationID, shareholderID, filename, data)
			if err != nil {
				errCh <- err
			}
		}(sh.BackendID, sh.PassportScan.Filename, sh.PassportScan.Data)
	}

	wg.Wait()
	close(errCh)
	return <-errCh
}

// confirmBatch PATCHes the reviewed passport fields for every confirmed
// shareholder, concurrently.
func (c *Controller) confirmBatch(ctx context.Context) error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(c.d.Shareholders))

	for i := range c.d.Shareholders {
		sh := &c.d.Shareholders[i]
		if !sh.IsPassportConfirmed || sh.BackendID == "" || sh.ExtractedPassport == nil {
			continue
		}
		wg.Add(1)
		go func(shareholderID string, fields *models.ExtractedPassport) {
			defer wg.Done()
			_, err := c.api.ConfirmPassportData(ctx, c.d.ApplicationID, shareholderID, fields)
			if err != nil {
				errCh <- err
			}
		}(sh.BackendID, toExtractedPassport(sh.ExtractedPassport))
	}

	wg.Wait()
	close(errCh)
	return <-errCh
}

// submit fires the terminal submission and keeps the pointer on the last
// step either way; a successful submit ends the wizard, not the step chain.
func (c *Controller) submit(ctx context.Context, cur step.Step) error {
	if c.d.ApplicationID == "" {
		return nil
	}

	res, err := c.api.SubmitApplication(ctx, c.d.ApplicationID)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		return c.fail(cur, stderrors.NewSubmitFailedError(err))
	}

	c.d.SaveError = ""
	c.d.Submitted = true
	if res.IFZADraftID != nil {
		c.d.DraftReference = *res.IFZADraftID
	}
	metrics.SubmissionsTotal.WithLabelValues("success").Inc()
	c.logger.Info("application submitted", map[string]interface{}{
		"application_id": c.d.ApplicationID,
		"success":        res.Success,
	})
	return nil
}

// ExtractPassport runs OCR for one shareholder's uploaded scan. Repeatable;
// a success replaces the extracted fields wholesale and voids any earlier
// confirmation, a failure leaves existing extracted data untouched.
func (c *Controller) ExtractPassport(ctx context.Context, index int) error {
	if index < 0 || index >= len(c.d.Shareholders) {
		return stderrors.NewInvalidRequestError("shareholder index out of range")
	}
	sh := &c.d.Shareholders[index]
	if sh.BackendID == "" {
		return stderrors.NewInvalidRequestError("shareholder has not been saved yet")
	}

	out, err := c.api.ExtractPassportData(ctx, c.d.ApplicationID, sh.BackendID)
	if err != nil {
		return stderrors.NewExtractionFailedError(sh.BackendID, err)
	}
	return c.d.SetExtractedPassport(index, fromExtractedPassport(out))
}

// CheckCompanyName validates one of the three name choices against the
// naming service and records the verdict. A transport failure leaves the
// stored verdict untouched: "could not verify" is weaker than "invalid".
func (c *Controller) CheckCompanyName(ctx context.Context, index int) (*models.NameValidation, error) {
	if index < 0 || index > 2 {
		return nil, stderrors.NewInvalidRequestError("company name index out of range")
	}
	name := c.d.CompanyNames[index]
	if name == "" {
		return nil, stderrors.NewInvalidRequestError("company name is empty")
	}

	res, err := c.api.ValidateCompanyName(ctx, name)
	if err != nil {
		return nil, stderrors.NewNameCheckFailedError(name, err)
	}
	if err := c.d.SetCompanyNameVerdict(index, res.IsValid); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Controller) fail(cur step.Step, stdErr *stderrors.StandardError) error {
	c.d.SaveError = stdErr.UserMessage()
	metrics.TransitionsFailed.WithLabelValues(string(cur), string(stdErr.Code)).Inc()
	return stdErr
}

func (c *Controller) advanceTo(next step.Step) {
	from := c.d.CurrentStep
	if from == next {
		return
	}
	c.d.CurrentStep = next
	metrics.TransitionsCompleted.WithLabelValues(string(from), string(next)).Inc()
	for _, fn := range c.listeners {
		fn(c.d.ApplicationID, from, next)
	}
}
