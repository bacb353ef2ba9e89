package email

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

// SESSender sends email through AWS SES.
type SESSender struct {
	client *sesv2.Client
	from   string
	logger ectologger.Logger
}

// NewSESSender builds an SES-backed sender using the default AWS credential
// chain for the given region. Messages are sent from the from address, which
// must be SES-verified.
func NewSESSender(ctx context.Context, region, from string, logger ectologger.Logger) (*SESSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}

	return &SESSender{
		client: sesv2.NewFromConfig(cfg),
		from:   from,
		logger: logger,
	}, nil
}

// Send delivers a plain-text email to a single recipient.
func (s *SESSender) Send(ctx context.Context, to, subject, body string) error {
	ctx, span := tracing.StartSpan(ctx, "email.SESSender.Send")
	defer span.End()

	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Errorf("Failed to send email to %s", to)
		return err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"to":         to,
		"message_id": aws.ToString(out.MessageId),
	}).Debug("Sent email")

	return nil
}
