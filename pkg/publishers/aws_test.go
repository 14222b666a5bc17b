package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/samvad-hq/catalog-harvester/internal/domain"
	"github.com/samvad-hq/catalog-harvester/internal/logger"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-456")}, nil
}

func sampleEvent() Event {
	return NewEvent("search-1", "Search One", domain.Product{ID: "p1", Name: "Runner"})
}

func TestSQSPublisherSendsAttributes(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{id: "q", typ: TypeSQS, queueURL: "https://example.com/queue", client: client, log: logger.NopLogger{}}

	if err := pub.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://example.com/queue" {
		t.Fatalf("QueueUrl = %s", got)
	}
	attr, ok := client.input.MessageAttributes["search_id"]
	if !ok || aws.ToString(attr.StringValue) != "search-1" || aws.ToString(attr.DataType) != "String" {
		t.Fatalf("search_id attribute missing or wrong: %#v", attr)
	}
	if body := aws.ToString(client.input.MessageBody); !strings.Contains(body, `"search_id":"search-1"`) || !strings.Contains(body, `"id":"p1"`) {
		t.Fatalf("MessageBody = %s", body)
	}
}

func TestSQSPublisherError(t *testing.T) {
	pub := &sqsPublisher{id: "q", client: &fakeSQSClient{err: errors.New("boom")}, log: logger.NopLogger{}}
	if err := pub.Publish(context.Background(), sampleEvent()); err == nil {
		t.Fatalf("expected error from Publish")
	}
}

func TestSNSPublisherSendsAttributes(t *testing.T) {
	client := &fakeSNSClient{}
	pub := &snsPublisher{id: "t", typ: TypeSNS, topicARN: "arn:aws:sns:us-east-1:123:catalog", client: client, log: logger.NopLogger{}}

	if err := pub.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:us-east-1:123:catalog" {
		t.Fatalf("TopicArn = %s", got)
	}
	attr, ok := client.input.MessageAttributes["product_id"]
	if !ok || aws.ToString(attr.StringValue) != "p1" {
		t.Fatalf("product_id attribute missing or wrong: %#v", attr)
	}
	if msg := aws.ToString(client.input.Message); !strings.Contains(msg, `"search_name":"Search One"`) {
		t.Fatalf("Message = %s", msg)
	}
}

func TestSNSPublisherError(t *testing.T) {
	pub := &snsPublisher{id: "t", client: &fakeSNSClient{err: errors.New("throttled")}, log: logger.NopLogger{}}
	if err := pub.Publish(context.Background(), sampleEvent()); err == nil {
		t.Fatalf("expected error from Publish")
	}
}

func TestAWSPublishersBuildWithStaticCredentials(t *testing.T) {
	awsCfg := AWSConfig{Region: "us-east-1", Endpoint: "http://localhost:4566", AccessKeyID: "test", SecretAccessKey: "test"}

	sqsPub, err := newSQSPublisher(context.Background(), PublisherConfig{
		ID: "q", Type: TypeSQS, SQS: &SQSPublisherConfig{AWSConfig: awsCfg, QueueURL: "http://localhost:4566/000000000000/catalog"},
	}, nil)
	if err != nil {
		t.Fatalf("newSQSPublisher: %v", err)
	}
	if sqsPub.Type() != TypeSQS || sqsPub.ID() != "q" {
		t.Fatalf("unexpected sqs publisher %s/%s", sqsPub.Type(), sqsPub.ID())
	}

	snsPub, err := newSNSPublisher(context.Background(), PublisherConfig{
		ID: "t", Type: TypeSNS, SNS: &SNSPublisherConfig{AWSConfig: awsCfg, TopicARN: "arn:aws:sns:us-east-1:000000000000:catalog"},
	}, nil)
	if err != nil {
		t.Fatalf("newSNSPublisher: %v", err)
	}
	if snsPub.Type() != TypeSNS {
		t.Fatalf("unexpected sns publisher type %s", snsPub.Type())
	}
}
