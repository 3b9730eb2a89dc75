// Package sms sends text messages through the configured HTTP gateway and
// logs every outbound message as an Sms row. Sends are fire-and-forget:
// gateway failures are logged, never surfaced to the caller.
package sms

import (
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/refprog/backend/internal/config"
	"github.com/refprog/backend/internal/db"
	"github.com/refprog/backend/internal/models"
)

var httpClient = &http.Client{Timeout: 15 * time.Second}

// Render substitutes {placeholder} occurrences in a promotion SMS template.
func Render(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// Notify sends message to phone and records it against the entity that
// triggered it.
func Notify(model string, modelID uint, phone, message string) {
	if message == "" {
		return
	}
	Send(phone, message)

	row := models.Sms{Model: model, ModelID: modelID, Message: message}
	if err := db.Conn().Create(&row).Error; err != nil {
		log.Printf("sms: log %s/%d: %v", model, modelID, err)
	}
}

// Send performs the gateway call: one GET with basic auth and the message in
// query parameters.
func Send(phone, message string) {
	cfg := config.Get()
	if cfg.SmsURL == "" {
		log.Printf("sms: gateway not configured, dropping message to %s", phone)
		return
	}

	req, err := http.NewRequest(http.MethodGet, cfg.SmsURL, nil)
	if err != nil {
		log.Printf("sms: build request: %v", err)
		return
	}
	q := url.Values{}
	q.Set("phone", phone)
	q.Set("text", message)
	q.Set("sender", cfg.SmsSender)
	req.URL.RawQuery = q.Encode()
	req.SetBasicAuth(cfg.SmsLogin, cfg.SmsPassword)

	resp, err := httpClient.Do(req)
	if err != nil {
		log.Printf("sms: send to %s: %v", phone, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("sms: gateway returned %d for %s", resp.StatusCode, phone)
	}
}
