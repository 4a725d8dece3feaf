package email

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/giygas/medcompanion-api/entities"
	"github.com/giygas/medcompanion-api/interfaces"
	"github.com/giygas/medcompanion-api/metrics"
)

// SESVendor names the SES provider in metrics and errors
const SESVendor = "ses"

// sesAPI is the part of *ses.Client the sender uses
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender implements interfaces.EmailSender over Amazon SES.
type SESSender struct {
	client sesAPI
}

var _ interfaces.EmailSender = (*SESSender)(nil)

// NewSESSender loads credentials from the AWS default chain for region.
func NewSESSender(ctx context.Context, region string) (*SESSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("ses: load aws config: %w", err)
	}
	return &SESSender{client: ses.NewFromConfig(cfg)}, nil
}

func (s *SESSender) Provider() string {
	return SESVendor
}

func (s *SESSender) Send(ctx context.Context, msg entities.EmailMessage) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveVendorCall(SESVendor, start, err) }()

	body := &types.Body{Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")}}
	if msg.Text != "" {
		body.Text = &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")}
	}

	_, err = s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(msg.From),
		Destination: &types.Destination{ToAddresses: msg.To},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body:    body,
		},
	})
	if err != nil {
		return &entities.UpstreamError{Vendor: SESVendor, Err: err}
	}
	return nil
}
