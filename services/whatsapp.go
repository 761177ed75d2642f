package services

import (
	"errors"
	"log"
	"os"
	"sync"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// ErrWhatsAppDisabled is returned when Twilio credentials are not set.
var ErrWhatsAppDisabled = errors.New("whatsapp delivery disabled")

var (
	twilioOnce   sync.Once
	twilioClient *twilio.RestClient
)

func whatsappClient() *twilio.RestClient {
	twilioOnce.Do(func() {
		accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
		authToken := os.Getenv("TWILIO_AUTH_TOKEN")
		if accountSid == "" || authToken == "" {
			return
		}
		twilioClient = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		})
	})
	return twilioClient
}

// SendWhatsApp sends a WhatsApp message through Twilio. Phone must be in
// E.164 format.
func SendWhatsApp(phone, body string) error {
	client := whatsappClient()
	if client == nil {
		return ErrWhatsAppDisabled
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:" + phone)
	params.SetFrom("whatsapp:" + os.Getenv("TWILIO_WHATSAPP_NUMBER"))
	params.SetBody(body)

	resp, err := client.Api.CreateMessage(params)
	if err != nil {
		return err
	}
	if resp.Sid != nil {
		log.Printf("WhatsApp message sent to %s, SID: %s", phone, *resp.Sid)
	}
	return nil
}
