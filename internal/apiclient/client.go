// Package apiclient calls the service's own HTTP API. The reconciliation job
// goes through the public surface with the root token instead of reaching into
// the services layer, so every sync mutation is guarded, audited, and enveloped
// exactly like an operator's request.
package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/refprog/backend/internal/apperr"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New builds a client for the API at baseURL authenticating with the root
// token secret.
func New(baseURL, rootToken string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   "0:" + rootToken,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Promotion is the slice of the promotions/list payload the sync job needs.
type Promotion struct {
	ID       uint      `json:"id"`
	Name     string    `json:"name"`
	Partners []Partner `json:"partners"`
}

type Partner struct {
	ID       uint   `json:"id"`
	Code     string `json:"code"`
	Fullname string `json:"fullname"`
	Phone    string `json:"phone"`
}

func (c *Client) PromotionsList() ([]Promotion, error) {
	var out struct {
		Promotions []Promotion `json:"promotions"`
	}
	err := c.post("/admin/promotions/list", map[string]any{}, &out)
	return out.Promotions, err
}

func (c *Client) PartnerDeleteByPhone(phone string, promotionID uint) error {
	return c.post("/admin/partners/delete_by_phone", map[string]any{
		"phone":     phone,
		"promotion": promotionID,
	}, nil)
}

func (c *Client) PartnerCreate(promotionID, clientID uint) (uint, error) {
	var out struct {
		ID uint `json:"id"`
	}
	err := c.post("/admin/partners/create", map[string]any{
		"promotion": promotionID,
		"client":    clientID,
	}, &out)
	return out.ID, err
}

func (c *Client) ClientCreate(fullname, phone string) (uint, error) {
	var out struct {
		ID uint `json:"id"`
	}
	err := c.post("/admin/clients/create", map[string]any{
		"fullname": fullname,
		"phone":    phone,
	}, &out)
	return out.ID, err
}

// post sends one enveloped request. An error state comes back as *apperr.Error
// rebuilt from the wire payload, so callers can inspect kinds and kwargs the
// same way they would for a local call.
func (c *Client) post(path string, params map[string]any, out any) error {
	params["token"] = c.token
	body, err := json.Marshal(params)
	if err != nil {
		return err
	}

	resp, err := c.http.Post(c.baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("apiclient: %s: %w", path, err)
	}
	defer resp.Body.Close()

	var envelope struct {
		State string `json:"state"`
		Error struct {
			Message string         `json:"message"`
			Kwargs  map[string]any `json:"kwargs"`
		} `json:"error"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("apiclient: %s: decode: %w", path, err)
	}
	if envelope.State != "successful" {
		return apperr.FromWire(envelope.Error.Message, envelope.Error.Kwargs)
	}
	if out != nil && len(envelope.Payload) > 0 {
		if err := json.Unmarshal(envelope.Payload, out); err != nil {
			return fmt.Errorf("apiclient: %s: decode payload: %w", path, err)
		}
	}
	return nil
}

// ConflictID extracts the existing row's id from an already-exists error.
// The sync job uses it to adopt a client that another path created first.
func ConflictID(err error) (uint, bool) {
	e, ok := apperr.As(err)
	if !ok || e.Kind != apperr.KindAlreadyExists {
		return 0, false
	}
	// JSON numbers decode as float64.
	switch v := e.Kwargs["model_id"].(type) {
	case float64:
		return uint(v), true
	case uint:
		return v, true
	}
	return 0, false
}
