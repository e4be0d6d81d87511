package notificator

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/core-coin/gutta/pkg/logger"
)

const publishTimeout = 10 * time.Second

// SNSNotificator publishes alerts to one SNS topic.
type SNSNotificator struct {
	logger   *logger.Logger
	client   *sns.Client
	topicARN string
}

func NewSNSNotificator(logger *logger.Logger, cfg aws.Config, topicARN string) *SNSNotificator {
	return &SNSNotificator{
		logger:   logger,
		client:   sns.NewFromConfig(cfg),
		topicARN: topicARN,
	}
}

func (s *SNSNotificator) Send(subject, body string) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	_, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(body),
	})
	if err != nil {
		s.logger.Error("Failed to publish SNS alert: ", err)
	}
}
