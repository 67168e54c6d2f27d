// Package ses implements a Transport that sends mail via AWS SES v2.
package ses

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"

	"github.com/shineum/civicmail/internal/account"
	"github.com/shineum/civicmail/internal/email"
	"github.com/shineum/civicmail/internal/transport"
)

// Config holds the configuration for creating a Transport.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Sender is the verified SES identity. Empty means the account address.
	Sender string
}

// Transport sends messages through the SES v2 SendEmail API.
type Transport struct {
	sender string
	client SendEmailAPI
}

// SendEmailAPI is the interface for the SES v2 SendEmail operation.
// Used for testing with mock implementations.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// New creates a Transport using the default AWS credential chain, or static
// credentials when both keys are set.
func New(ctx context.Context, cfg Config) (*Transport, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewWithClient(cfg.Sender, sesv2.NewFromConfig(awsCfg)), nil
}

// NewWithClient creates a Transport with a custom client, used for testing.
func NewWithClient(sender string, client SendEmailAPI) *Transport {
	return &Transport{sender: sender, client: client}
}

// Name returns the transport name.
func (s *Transport) Name() string {
	return "ses"
}

// Send composes msg and submits it as a raw message. SES failures are
// classified from the API error code; anything else is a connection failure.
func (s *Transport) Send(ctx context.Context, acct account.Account, msg *email.Email) error {
	sender := s.sender
	if sender == "" {
		sender = acct.Address
	}

	out := *msg
	out.From = sender
	raw, err := email.Compose(&out)
	if err != nil {
		return transport.Wrap(transport.ReasonData, fmt.Errorf("compose message: %w", err))
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(sender),
		Destination: &types.Destination{
			ToAddresses:  msg.To,
			CcAddresses:  msg.Cc,
			BccAddresses: msg.Bcc,
		},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return transport.Wrap(classify(err), fmt.Errorf("SES SendEmail: %w", err))
	}
	return nil
}

// classify maps an SES error to a failure reason.
func classify(err error) transport.Reason {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return transport.ReasonConnection
	}
	switch apiErr.ErrorCode() {
	case "MessageRejected", "BadRequestException":
		return transport.ReasonData
	case "AccessDeniedException", "UnrecognizedClientException", "InvalidClientTokenId",
		"SignatureDoesNotMatch", "AccountSuspendedException", "SendingPausedException",
		"MailFromDomainNotVerifiedException", "NotFoundException":
		return transport.ReasonAuthentication
	default:
		return transport.ReasonUnknown
	}
}
