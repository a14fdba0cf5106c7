package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/telehealth-portal/pkg/logging"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "",
		FromEmail: "test@example.com",
	}, nil)

	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "test-key",
		FromEmail: "test@example.com",
	}, nil)

	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != "Telehealth Portal" {
		t.Errorf("expected default from name 'Telehealth Portal', got %q", sender.fromName)
	}
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	var sender *SendGridSender
	err := sender.Send(context.Background(), EmailMessage{To: "recipient@example.com", Subject: "Test", HTML: "<p>hi</p>"})
	if err == nil {
		t.Error("expected error when sender is not configured")
	}
}

func TestStubEmailSender_RecordsMessages(t *testing.T) {
	sender := NewStubEmailSender(logging.Discard())
	require.NoError(t, sender.Send(context.Background(), EmailMessage{To: "a@example.com", Subject: "one"}))
	require.NoError(t, sender.Send(context.Background(), EmailMessage{To: "b@example.com", Subject: "two"}))

	sent := sender.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "a@example.com", sent[0].To)
	assert.Equal(t, "two", sent[1].Subject)
}

func TestStripTags(t *testing.T) {
	got := stripTags("<h2>Hello</h2>\n<p>Your <strong>appointment</strong> is set.</p>")
	assert.Equal(t, "Hello Your appointment is set.", got)
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSender_Send(t *testing.T) {
	client := &fakeSES{}
	sender := NewSESSender(client, SESConfig{FromEmail: "appointments@example.com"}, logging.Discard())
	require.NotNil(t, sender)

	err := sender.Send(context.Background(), EmailMessage{To: "jane@example.com", Subject: "Hi", HTML: "<p>Hi</p>"})
	require.NoError(t, err)
	require.NotNil(t, client.input)
	assert.Equal(t, `"Telehealth Portal" <appointments@example.com>`, aws.ToString(client.input.FromEmailAddress))
	assert.Equal(t, []string{"jane@example.com"}, client.input.Destination.ToAddresses)
	assert.Equal(t, "<p>Hi</p>", aws.ToString(client.input.Content.Simple.Body.Html.Data))
	assert.Equal(t, "Hi", aws.ToString(client.input.Content.Simple.Body.Text.Data))
	assert.Nil(t, client.input.ReplyToAddresses)
	assert.Nil(t, client.input.ConfigurationSetName)
}

func TestSESSender_RecipientNameAndReplyTo(t *testing.T) {
	client := &fakeSES{}
	sender := NewSESSender(client, SESConfig{
		FromEmail:        "appointments@example.com",
		FromName:         "Clinic",
		ReplyTo:          "inbox@example.com",
		ConfigurationSet: "telehealth",
	}, logging.Discard())

	require.NoError(t, sender.Send(context.Background(), EmailMessage{To: "dr.smith@example.com", ToName: "Smith, Jane", Subject: "New", Body: "plain"}))
	assert.Equal(t, []string{`"Smith, Jane" <dr.smith@example.com>`}, client.input.Destination.ToAddresses)
	assert.Equal(t, []string{"inbox@example.com"}, client.input.ReplyToAddresses)
	assert.Equal(t, "telehealth", aws.ToString(client.input.ConfigurationSetName))
	assert.Equal(t, "plain", aws.ToString(client.input.Content.Simple.Body.Text.Data))
	assert.Nil(t, client.input.Content.Simple.Body.Html)
}

func TestSESSender_SendError(t *testing.T) {
	sender := NewSESSender(&fakeSES{err: errors.New("MessageRejected")}, SESConfig{FromEmail: "a@example.com"}, logging.Discard())
	err := sender.Send(context.Background(), EmailMessage{To: "jane@example.com", Subject: "Hi", HTML: "<p>Hi</p>"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MessageRejected")
}

func TestNewSESSender_NilClient(t *testing.T) {
	assert.Nil(t, NewSESSender(nil, SESConfig{}, nil))
}
