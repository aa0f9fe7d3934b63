package twilio

import (
	"context"
	"fmt"
	"regexp"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/va6996/aifns/log"
	"github.com/va6996/aifns/tools"
)

var e164 = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// MessageCreator is the part of the Twilio REST API the sms tool uses
type MessageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// Client sends SMS through Twilio
type Client struct {
	Messages    MessageCreator
	PhoneNumber string
}

// NewClient creates a Twilio client for the given account
func NewClient(accountSID, authToken, phoneNumber string) (*Client, error) {
	if accountSID == "" || authToken == "" {
		return nil, fmt.Errorf("twilio account sid and auth token are required")
	}
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &Client{Messages: rest.Api, PhoneNumber: phoneNumber}, nil
}

// Tools returns the sms capability
func (c *Client) Tools() []*tools.Descriptor {
	return []*tools.Descriptor{
		tools.MustDefine("sms", "Send an SMS message to a phone number", c.SendSMS),
	}
}

type SMSInput struct {
	From string `json:"from,omitempty" jsonschema_description:"Sender number in E.164 format. Defaults to the configured number."`
	To   string `json:"to" jsonschema:"pattern=^\\+[1-9]\\d+$" jsonschema_description:"Recipient number in E.164 format, e.g. +14155552671"`
	Body string `json:"body" jsonschema:"minLength=1,maxLength=1600"`
}

type SMSOutput struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
	To     string `json:"to"`
}

// SendSMS sends input.Body to input.To
func (c *Client) SendSMS(ctx context.Context, input SMSInput) (any, error) {
	from := input.From
	if from == "" {
		from = c.PhoneNumber
	}
	if from == "" {
		return nil, fmt.Errorf("no sender number configured")
	}
	if !e164.MatchString(input.To) {
		return nil, fmt.Errorf("recipient %q is not an E.164 number", input.To)
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(input.To)
	params.SetFrom(from)
	params.SetBody(input.Body)

	msg, err := c.Messages.CreateMessage(params)
	if err != nil {
		return nil, fmt.Errorf("failed to send sms: %w", err)
	}

	out := SMSOutput{To: input.To}
	if msg.Sid != nil {
		out.SID = *msg.Sid
	}
	if msg.Status != nil {
		out.Status = *msg.Status
	}
	log.Infof(ctx, "Sent sms %s to %s", out.SID, input.To)
	return out, nil
}
