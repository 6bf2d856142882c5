// internal/notify/notify.go

// Package notify sends the post-submission confirmation to the applicant.
// Delivery is best effort: the application is already submitted by the time
// this runs, so failures are logged and never bubble back into the wizard.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"formation-wizard/internal/common/logger"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Notifier struct {
	sesClient SESService
	snsClient SNSService
	fromEmail string
	logger    logger.Logger
}

// NewNotifier builds a notifier. snsClient may be nil; SMS is optional and
// only sent when both a client and a phone number are available.
func NewNotifier(sesClient SESService, snsClient SNSService, fromEmail string, log logger.Logger) *Notifier {
	return &Notifier{
		sesClient: sesClient,
		snsClient: snsClient,
		fromEmail: fromEmail,
		logger:    log,
	}
}

// SubmissionConfirmed notifies the applicant that their application went in.
func (n *Notifier) SubmissionConfirmed(ctx context.Context, email, phone, applicationID, draftReference string) {
	subject := "Your company formation application has been submitted"
	body := fmt.Sprintf(
		"Your application %s has been submitted for processing.", applicationID)
	if draftReference != "" {
		body = fmt.Sprintf(
			"Your application %s has been submitted for processing. Reference: %s.",
			applicationID, draftReference)
	}

	if err := n.sendEmail(ctx, email, subject, body); err != nil {
		n.logger.WithError(err).Warn("submission email failed", map[string]interface{}{
			"application_id": applicationID,
			"to":             email,
		})
	}

	if n.snsClient != nil && phone != "" {
		if err := n.sendSMS(ctx, phone, body); err != nil {
			n.logger.WithError(err).Warn("submission sms failed", map[string]interface{}{
				"application_id": applicationID,
			})
		}
	}
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.fromEmail),
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, to, message string) error {
	_, err := n.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}
