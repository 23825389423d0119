// Package sqsqueue implements the cloud-queue MessageBus on Amazon SQS.
//
// Nack is a no-op: an undeleted message becomes visible again
// once its visibility timeout elapses.
package sqsqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/events"
	"github.com/cornjacket/item-pipeline/internal/shared/ports"
)

// API is the subset of *sqs.Client the bus uses.
type API interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Config holds queue settings for the bus.
type Config struct {
	QueueURL    string
	Region      string
	Endpoint    string // optional override, e.g. LocalStack
	ReceiveWait time.Duration
}

// Bus short-polls one SQS queue.
type Bus struct {
	api         API
	queueURL    string
	waitSeconds int32
	logger      *slog.Logger
}

// New loads the default AWS credential chain and builds an SQS client.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Bus, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithAPI(client, cfg, logger), nil
}

// NewWithAPI wires the bus onto an existing client.
func NewWithAPI(api API, cfg Config, logger *slog.Logger) *Bus {
	wait := int32(cfg.ReceiveWait / time.Second)
	if wait < 1 {
		wait = 1
	}
	// SQS caps long polling at 20 seconds.
	if wait > 20 {
		wait = 20
	}
	return &Bus{
		api:         api,
		queueURL:    cfg.QueueURL,
		waitSeconds: wait,
		logger:      logger.With("bus", "sqs"),
	}
}

// Send publishes the envelope as a JSON string body.
func (b *Bus) Send(ctx context.Context, msg events.Envelope) error {
	body, err := events.Encode(msg)
	if err != nil {
		return err
	}

	out, err := b.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(b.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to send SQS message: %w", err)
	}

	b.logger.Debug("message sent", "message_id", aws.ToString(out.MessageId), "type", msg.Type())
	return nil
}

// Receive polls for at most one message within the wait window.
// The handle is the message's receipt handle.
func (b *Bus) Receive(ctx context.Context) (events.Delivery, error) {
	out, err := b.api.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(b.queueURL),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     b.waitSeconds,
	})
	if err != nil {
		if ctx.Err() != nil {
			return events.Delivery{}, ctx.Err()
		}
		return events.Delivery{}, fmt.Errorf("failed to receive SQS message: %w", err)
	}
	if len(out.Messages) == 0 {
		return events.Delivery{}, nil
	}

	m := out.Messages[0]
	handle := aws.ToString(m.ReceiptHandle)
	raw := aws.ToString(m.Body)

	msg, err := events.Decode([]byte(raw))
	if err != nil {
		b.logger.Error("invalid message on queue", "message_id", aws.ToString(m.MessageId), "error", err)
		return events.Delivery{Message: events.Envelope{"raw": raw}, Handle: handle}, nil
	}
	return events.Delivery{Message: events.Wrap(msg), Handle: handle}, nil
}

// Ack deletes the message permanently.
func (b *Bus) Ack(ctx context.Context, handle string) error {
	_, err := b.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(b.queueURL),
		ReceiptHandle: aws.String(handle),
	})
	if err != nil {
		return fmt.Errorf("failed to delete SQS message: %w", err)
	}
	return nil
}

// Nack leaves the message for redelivery after its visibility timeout.
func (b *Bus) Nack(context.Context, string) error {
	b.logger.Debug("nack: message left for visibility-timeout redelivery")
	return nil
}

func (b *Bus) Close() error { return nil }

var _ ports.MessageBus = (*Bus)(nil)
