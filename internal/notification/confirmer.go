package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSAPI is the part of the SNS client the confirmer uses.
type SNSAPI interface {
	ConfirmSubscription(ctx context.Context, params *sns.ConfirmSubscriptionInput, optFns ...func(*sns.Options)) (*sns.ConfirmSubscriptionOutput, error)
}

// SNSConfirmer completes the subscription handshake through the SNS API.
type SNSConfirmer struct {
	log    *slog.Logger
	client SNSAPI
}

func NewSNSConfirmer(log *slog.Logger, client SNSAPI) *SNSConfirmer {
	return &SNSConfirmer{
		log:    log,
		client: client,
	}
}

// NewSNSClient builds an SNS client from the default AWS credential chain.
func NewSNSClient(ctx context.Context, region, profile string) (*sns.Client, error) {
	const op = "notification.NewSNSClient"

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sns.NewFromConfig(cfg), nil
}

func (c *SNSConfirmer) ConfirmSubscription(ctx context.Context, topicArn, token string) error {
	const op = "notification.SNSConfirmer.ConfirmSubscription"
	log := c.log.With(
		slog.String("op", op),
		slog.String("topic_arn", topicArn),
	)

	if token == "" {
		return fmt.Errorf("%s: %w: missing token", op, ErrInvalidEnvelope)
	}

	out, err := c.client.ConfirmSubscription(ctx, &sns.ConfirmSubscriptionInput{
		TopicArn: aws.String(topicArn),
		Token:    aws.String(token),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("subscription confirmed", slog.String("subscription_arn", aws.ToString(out.SubscriptionArn)))

	return nil
}
