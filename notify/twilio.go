package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"famhealth-backend/models"
)

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSink sends SMS and WhatsApp messages.
type TwilioSink struct {
	api          messageCreator
	fromPhone    string
	fromWhatsApp string
	logger       *zap.Logger
}

func NewTwilioSink(accountSid, authToken, fromPhone, fromWhatsApp string, logger *zap.Logger) *TwilioSink {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})
	return &TwilioSink{
		api:          client.Api,
		fromPhone:    fromPhone,
		fromWhatsApp: fromWhatsApp,
		logger:       logger,
	}
}

func (s *TwilioSink) Send(ctx context.Context, dest models.Destination, r models.Reminder) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetBody(PlainText(dest, r))

	if dest.Channel == models.ChannelWhatsApp {
		to := dest.Address
		if !strings.HasPrefix(to, "whatsapp:") {
			to = "whatsapp:" + to
		}
		params.SetTo(to)
		params.SetFrom("whatsapp:" + s.fromWhatsApp)
	} else {
		params.SetTo(dest.Address)
		params.SetFrom(s.fromPhone)
	}

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	s.logger.Info("message sent",
		zap.String("reminder_id", r.ID.String()),
		zap.String("channel", dest.Channel),
		zap.String("sid", sid))
	return nil
}
