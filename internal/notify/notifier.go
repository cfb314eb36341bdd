// internal/notify/notifier.go
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"grantflow/internal/common/config"
	stderrors "grantflow/internal/common/errors"
	"grantflow/internal/common/logger"
	"grantflow/internal/models"
)

// SESService and SNSService narrow the AWS clients to what the notifier
// calls, so tests can substitute fakes.
type SESService interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// Notifier delivers outbound submission notifications over email and SMS.
// Channels that are disabled in config, or recipients missing the contact
// detail a channel needs, are skipped without error.
type Notifier struct {
	cfg    config.NotificationConfig
	ses    SESService
	sns    SNSService
	logger logger.Logger
}

func NewNotifier(cfg config.NotificationConfig, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		cfg:    cfg,
		ses:    sesClient,
		sns:    snsClient,
		logger: log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

// SubmissionConfirmed tells the applicant their application was recorded.
func (n *Notifier) SubmissionConfirmed(ctx context.Context, user models.User, sub *models.Submission) error {
	subject := "Application submitted"
	body := fmt.Sprintf(
		"Hi %s,\n\nYour application %q for $%.0f has been submitted and is pending review.\nSubmission ID: %s\n",
		user.Name, sub.Project, sub.Amount, sub.ID,
	)
	return n.deliver(ctx, user, subject, body)
}

// ReviewDecision tells the applicant the outcome of the review.
func (n *Notifier) ReviewDecision(ctx context.Context, user models.User, sub *models.Submission) error {
	subject := fmt.Sprintf("Application %s", sub.Status)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour application %q has been %s.\nSubmission ID: %s\n",
		user.Name, sub.Project, sub.Status, sub.ID,
	)
	return n.deliver(ctx, user, subject, body)
}

func (n *Notifier) deliver(ctx context.Context, user models.User, subject, body string) error {
	if n.cfg.Email.Enabled && user.Email != "" {
		if err := n.sendEmail(ctx, user.Email, subject, body); err != nil {
			n.logger.WithError(err).Error("email send failed", map[string]interface{}{
				"recipientId": user.ID,
			})
			return stderrors.NewNotificationSendFailedError("email", err)
		}
	}
	if n.cfg.SMS.Enabled && user.Phone != "" {
		if err := n.sendSMS(ctx, user.Phone, subject); err != nil {
			n.logger.WithError(err).Error("SMS send failed", map[string]interface{}{
				"recipientId": user.ID,
			})
			return stderrors.NewNotificationSendFailedError("sms", err)
		}
	}
	return nil
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.cfg.Email.FromEmail),
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, to, message string) error {
	_, err := n.sns.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}
