// Package client is a small HTTP client for the advisory API, used by the
// booking command.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"advisory-api/internal/model"
	"advisory-api/internal/service"
)

type Client struct {
	base  string
	token string
	http  *http.Client
}

func New(base, token string) *Client {
	return &Client{
		base:  strings.TrimRight(base, "/"),
		token: token,
		http:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = resp.Status
		}
		return &service.Error{Kind: kindFor(resp.StatusCode), Msg: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func kindFor(code int) service.Kind {
	switch code {
	case http.StatusBadRequest:
		return service.KindValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return service.KindUnauthorized
	case http.StatusNotFound:
		return service.KindNotFound
	case http.StatusConflict:
		return service.KindConflict
	}
	return service.KindInternal
}

func (c *Client) CreateAppointment(ctx context.Context, in service.AppointmentInput) (*model.Appointment, error) {
	var out struct {
		Appointment *model.Appointment `json:"appointment"`
	}
	if err := c.do(ctx, http.MethodPost, "/appointments", in, &out); err != nil {
		return nil, err
	}
	return out.Appointment, nil
}

func (c *Client) ListAppointments(ctx context.Context, businessID string) ([]model.Appointment, error) {
	var out struct {
		Appointments []model.Appointment `json:"appointments"`
	}
	path := "/appointments?businessId=" + url.QueryEscape(businessID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Appointments, nil
}

func (c *Client) MissingFields(ctx context.Context) ([]string, error) {
	var out struct {
		MissingFields []string `json:"missingFields"`
	}
	if err := c.do(ctx, http.MethodGet, "/user/missing", nil, &out); err != nil {
		return nil, err
	}
	return out.MissingFields, nil
}
