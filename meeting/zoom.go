package meeting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultAPIBase  = "https://api.zoom.us/v2"
	defaultTokenURL = "https://zoom.us/oauth/token"
	defaultTimezone = "Asia/Kolkata"

	scheduledMeeting = 2
)

type Request struct {
	Topic     string
	StartTime time.Time // wall clock in the client's timezone
	Duration  int       // minutes
}

type Meeting struct {
	ID       int64  `json:"id"`
	JoinURL  string `json:"join_url"`
	StartURL string `json:"start_url"`
}

type Config struct {
	AccountID    string
	ClientID     string
	ClientSecret string
	Timezone     string

	// Overrides for the Zoom endpoints.
	APIBase  string
	TokenURL string
}

// Zoom books meetings with a server-to-server OAuth app.
type Zoom struct {
	apiBase  string
	timezone string
	client   *http.Client
}

func NewZoom(cfg Config) (*Zoom, error) {
	if cfg.AccountID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("zoom: account id, client id and client secret are required")
	}
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.Timezone == "" {
		cfg.Timezone = defaultTimezone
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
		EndpointParams: url.Values{
			"grant_type": {"account_credentials"},
			"account_id": {cfg.AccountID},
		},
	}
	hc := cc.Client(context.Background())
	hc.Timeout = 15 * time.Second

	return &Zoom{apiBase: cfg.APIBase, timezone: cfg.Timezone, client: hc}, nil
}

type createMeetingBody struct {
	Topic     string          `json:"topic"`
	Type      int             `json:"type"`
	StartTime string          `json:"start_time"`
	Duration  int             `json:"duration"`
	Timezone  string          `json:"timezone"`
	Settings  meetingSettings `json:"settings"`
}

type meetingSettings struct {
	JoinBeforeHost bool `json:"join_before_host"`
	WaitingRoom    bool `json:"waiting_room"`
	ApprovalType   int  `json:"approval_type"`
}

func (z *Zoom) CreateMeeting(ctx context.Context, req Request) (*Meeting, error) {
	body, err := json.Marshal(createMeetingBody{
		Topic:     req.Topic,
		Type:      scheduledMeeting,
		StartTime: req.StartTime.Format("2006-01-02T15:04:05"),
		Duration:  req.Duration,
		Timezone:  z.timezone,
		Settings:  meetingSettings{JoinBeforeHost: false, WaitingRoom: true, ApprovalType: 0},
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, z.apiBase+"/users/me/meetings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := z.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("zoom: create meeting: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return nil, fmt.Errorf("zoom: create meeting: status %d: %s", res.StatusCode, msg)
	}

	var m Meeting
	if err := json.NewDecoder(res.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("zoom: decode meeting: %w", err)
	}
	if m.JoinURL == "" {
		return nil, errors.New("zoom: meeting response has no join url")
	}
	return &m, nil
}
