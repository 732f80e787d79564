package notifier

import (
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mindoroparts/pos-app/utils"
)

// SMSNotifier sends texts through the Semaphore gateway. Delivery is
// best effort: failures are logged and never bubble up to the order
// flow that triggered them.
type SMSNotifier struct {
	APIKey     string
	SenderName string
	Endpoint   string
	Client     *http.Client
}

func NewSMSNotifier() *SMSNotifier {
	sender := os.Getenv("SEMAPHORE_SENDER_NAME")
	if sender == "" {
		sender = "MAParts"
	}
	return &SMSNotifier{
		APIKey:     os.Getenv("SEMAPHORE_API_KEY"),
		SenderName: sender,
		Endpoint:   "https://api.semaphore.co/api/v4/messages",
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify sends one message to one number. A missing API key downgrades
// to a log line so local development works without the gateway.
func (n *SMSNotifier) Notify(phoneNumber, message string) {
	if n.APIKey == "" {
		utils.InfoLogger.Printf("SMS disabled, would send to %s: %s", phoneNumber, message)
		return
	}

	form := url.Values{}
	form.Set("apikey", n.APIKey)
	form.Set("number", phoneNumber)
	form.Set("message", message)
	form.Set("sendername", n.SenderName)

	resp, err := n.Client.Post(n.Endpoint, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		utils.ErrorLogger.Printf("SMS to %s failed: %v", phoneNumber, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		utils.ErrorLogger.Printf("SMS gateway returned %d for %s", resp.StatusCode, phoneNumber)
		return
	}
	utils.InfoLogger.Printf("SMS sent to %s", phoneNumber)
}
