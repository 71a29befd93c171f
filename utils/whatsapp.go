package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// WhatsAppClient talks to a WhatsApp Business API gateway. It is built
// once at startup and passed in wherever notifications are sent; an
// unconfigured client is valid and drops every message.
type WhatsAppClient struct {
	apiURL string
	token  string
	client *http.Client
	log    *logrus.Logger
}

type whatsAppMessage struct {
	To   string       `json:"to"`
	Type string       `json:"type"`
	Text whatsAppText `json:"text"`
}

type whatsAppText struct {
	Body string `json:"body"`
}

func NewWhatsAppClientFromEnv(log *logrus.Logger) *WhatsAppClient {
	return &WhatsAppClient{
		apiURL: os.Getenv("WHATSAPP_API_URL"),
		token:  os.Getenv("WHATSAPP_API_TOKEN"),
		client: &http.Client{Timeout: 15 * time.Second},
		log:    log,
	}
}

func (w *WhatsAppClient) Enabled() bool {
	return w != nil && w.apiURL != "" && w.token != ""
}

// SendDepositConfirmation messages a contributor that their cash
// contribution was counted. Failures are logged, never surfaced: the
// notification is a courtesy, not part of the mutation.
func (w *WhatsAppClient) SendDepositConfirmation(phone, contributorName, festivalName string, amount float64) {
	if !w.Enabled() || phone == "" {
		return
	}

	body := fmt.Sprintf(
		"Namaste %s! Your contribution of %s towards %s has been received. Thank you!",
		contributorName, FormatINR(amount), festivalName,
	)

	payload, err := json.Marshal(whatsAppMessage{
		To:   phone,
		Type: "text",
		Text: whatsAppText{Body: body},
	})
	if err != nil {
		w.log.WithError(err).Error("failed to marshal whatsapp payload")
		return
	}

	req, err := http.NewRequest(http.MethodPost, w.apiURL, bytes.NewBuffer(payload))
	if err != nil {
		w.log.WithError(err).Error("failed to build whatsapp request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.token)

	resp, err := w.client.Do(req)
	if err != nil {
		w.log.WithError(err).WithField("phone", phone).Error("failed to send whatsapp message")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		w.log.WithFields(logrus.Fields{"phone": phone, "status": resp.Status}).
			Error("whatsapp gateway rejected message")
		return
	}

	w.log.WithField("phone", phone).Debug("deposit confirmation sent")
}
