package queue

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type fakeSQS struct {
	sent     []string
	deleted  []string
	messages []types.Message
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.sent = append(f.sent, aws.ToString(params.MessageBody))
	return &sqs.SendMessageOutput{}, nil
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	return &sqs.ReceiveMessageOutput{Messages: f.messages}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func TestSQSClientSendReceiveAck(t *testing.T) {
	api := &fakeSQS{messages: []types.Message{{
		MessageId:     aws.String("m-1"),
		Body:          aws.String(`{"kind":"generation_event"}`),
		ReceiptHandle: aws.String("rh-1"),
	}}}
	client := NewSQSClientWithAPI(api, "https://sqs.example/queue")

	msg, err := NewMessage(KindGenerationEvent, "trace-1", map[string]int{"n": 1})
	if err != nil {
		t.Fatalf("new message: %v", err)
	}
	if err := client.Send(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(api.sent) != 1 {
		t.Fatalf("expected one sent message, got %d", len(api.sent))
	}

	deliveries, err := client.Receive(context.Background())
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(deliveries) != 1 || deliveries[0].ID != "m-1" {
		t.Fatalf("unexpected deliveries %+v", deliveries)
	}
	if err := client.Ack(context.Background(), deliveries[0]); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if len(api.deleted) != 1 || api.deleted[0] != "rh-1" {
		t.Fatalf("expected receipt handle deletion, got %v", api.deleted)
	}
}
