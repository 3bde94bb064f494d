package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap/zaptest"
	"gopkg.in/mail.v2"

	"famhealth-backend/models"
)

func testReminder() models.Reminder {
	return models.Reminder{
		ID:          uuid.New(),
		MemberID:    uuid.New(),
		Substance:   "Amoxicillin",
		DosageNote:  "500mg",
		ScheduledAt: time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC),
		FreeNote:    "with water",
	}
}

func TestRouter_PicksSinkByChannel(t *testing.T) {
	var gotChannel string
	sink := SinkFunc(func(ctx context.Context, dest models.Destination, r models.Reminder) error {
		gotChannel = dest.Channel
		return nil
	})
	router := NewRouter(time.Second, map[string]Sink{models.ChannelSMS: sink})

	err := router.Send(context.Background(), models.Destination{Channel: models.ChannelSMS, Address: "+1"}, testReminder())
	require.NoError(t, err)
	assert.Equal(t, models.ChannelSMS, gotChannel)

	err = router.Send(context.Background(), models.Destination{Channel: "pigeon"}, testReminder())
	assert.ErrorIs(t, err, ErrUnknownChannel)
	assert.ErrorIs(t, err, models.ErrDispatchFailure)
}

func TestRouter_WrapsFailures(t *testing.T) {
	boom := errors.New("provider down")
	router := NewRouter(time.Second, map[string]Sink{
		models.ChannelEmail: SinkFunc(func(context.Context, models.Destination, models.Reminder) error { return boom }),
	})

	err := router.Send(context.Background(), models.Destination{Channel: models.ChannelEmail, Address: "a@b.c"}, testReminder())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, models.ErrDispatchFailure)
}

func TestRouter_TimesOutSlowSink(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	router := NewRouter(20*time.Millisecond, map[string]Sink{
		models.ChannelEmail: SinkFunc(func(context.Context, models.Destination, models.Reminder) error {
			<-release
			return nil
		}),
	})

	start := time.Now()
	err := router.Send(context.Background(), models.Destination{Channel: models.ChannelEmail}, testReminder())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, models.ErrDispatchFailure)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRouter_RecoversPanics(t *testing.T) {
	router := NewRouter(time.Second, map[string]Sink{
		models.ChannelEmail: SinkFunc(func(context.Context, models.Destination, models.Reminder) error {
			panic("nil map")
		}),
	})

	err := router.Send(context.Background(), models.Destination{Channel: models.ChannelEmail}, testReminder())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrDispatchFailure)
	assert.Contains(t, err.Error(), "nil map")
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	calls := 0
	failing := SinkFunc(func(context.Context, models.Destination, models.Reminder) error {
		calls++
		return errors.New("503")
	})
	cfg := DefaultBreakerConfig("test")
	cfg.MinRequests = 3
	b := NewBreaker(failing, cfg, zaptest.NewLogger(t))

	for i := 0; i < 3; i++ {
		assert.Error(t, b.Send(context.Background(), models.Destination{}, testReminder()))
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	err := b.Send(context.Background(), models.Destination{}, testReminder())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, calls)
}

type fakeCreator struct {
	params *twilioApi.CreateMessageParams
	err    error
}

func (f *fakeCreator) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM123"
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

func TestTwilioSink_WhatsAppAddressing(t *testing.T) {
	fc := &fakeCreator{}
	s := &TwilioSink{api: fc, fromPhone: "+15550000", fromWhatsApp: "+15551111", logger: zaptest.NewLogger(t)}

	err := s.Send(context.Background(), models.Destination{MemberName: "Ada", Channel: models.ChannelWhatsApp, Address: "+2348000"}, testReminder())
	require.NoError(t, err)
	assert.Equal(t, "whatsapp:+2348000", *fc.params.To)
	assert.Equal(t, "whatsapp:+15551111", *fc.params.From)
	assert.Contains(t, *fc.params.Body, "Amoxicillin")

	err = s.Send(context.Background(), models.Destination{Channel: models.ChannelSMS, Address: "+2348000"}, testReminder())
	require.NoError(t, err)
	assert.Equal(t, "+2348000", *fc.params.To)
	assert.Equal(t, "+15550000", *fc.params.From)

	fc.err = errors.New("invalid number")
	assert.Error(t, s.Send(context.Background(), models.Destination{Channel: models.ChannelSMS}, testReminder()))
}

type fakeDialer struct {
	sent []*mail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*mail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func TestEmailSink_Send(t *testing.T) {
	fd := &fakeDialer{}
	s := &EmailSink{dialer: fd, from: "noreply@famhealth.test"}

	err := s.Send(context.Background(), models.Destination{MemberName: "Ada", Channel: models.ChannelEmail, Address: "home@example.com"}, testReminder())
	require.NoError(t, err)
	require.Len(t, fd.sent, 1)
	assert.Equal(t, []string{"home@example.com"}, fd.sent[0].GetHeader("To"))
	assert.Equal(t, []string{Subject}, fd.sent[0].GetHeader("Subject"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, models.Destination{}, testReminder()), context.Canceled)
	assert.Len(t, fd.sent, 1)
}

func TestMessages(t *testing.T) {
	dest := models.Destination{MemberName: "<Ada>"}
	r := testReminder()

	text := PlainText(dest, r)
	assert.Contains(t, text, "Hello <Ada>")
	assert.Contains(t, text, "Dosage: 500mg")
	assert.Contains(t, text, "Fri 16 Oct 08:00")

	body := HTMLBody(dest, r)
	assert.Contains(t, body, "Hello &lt;Ada&gt;")
	assert.Contains(t, body, "<b>Amoxicillin</b>")

	r.DosageNote = ""
	assert.NotContains(t, PlainText(dest, r), "Dosage")
}
