package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/noblesavage/site/internal/events"
	"github.com/noblesavage/site/internal/site"
)

const (
	// ClientTimeout is the total request timeout.
	ClientTimeout = 15 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 5 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 5 * time.Second
	// ResponseHeaderTimeout is time to wait for response headers.
	ResponseHeaderTimeout = 10 * time.Second
)

// Header names set on every notification request.
const (
	HeaderSignature  = "X-NobleSavage-Signature"
	HeaderTimestamp  = "X-NobleSavage-Timestamp"
	HeaderDeliveryID = "X-NobleSavage-Delivery-Id"
)

const userAgent = "NobleSavage-Notify/1.0"

// ErrPermanent marks a response that retrying will not fix.
var ErrPermanent = errors.New("permanent delivery failure")

// Payload is the JSON body posted to the webhook.
type Payload struct {
	Event       string    `json:"event"`
	CustomerID  string    `json:"customer_id"`
	Referrer    string    `json:"referrer,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	Dashboard   string    `json:"dashboard"`
	Portal      string    `json:"portal"`
}

// NewPayload builds the webhook body for a stream event.
func NewPayload(event events.IntakeSubmitted) Payload {
	return Payload{
		Event:       event.Type,
		CustomerID:  event.CustomerID,
		Referrer:    event.Referrer,
		SubmittedAt: time.UnixMilli(event.SubmittedAt).UTC(),
		Dashboard:   site.DashboardPath(event.CustomerID),
		Portal:      site.PortalPath(event.CustomerID),
	}
}

// NewHTTPClient creates an HTTP client configured for webhook delivery.
// It does not follow redirects.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: ClientTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   TLSHandshakeTimeout,
			ResponseHeaderTimeout: ResponseHeaderTimeout,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   2,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Sender posts signed payloads to one webhook URL.
type Sender struct {
	targetURL string
	secret    string
	client    *http.Client
	now       func() time.Time
}

// NewSender creates a Sender. A nil client selects NewHTTPClient.
func NewSender(targetURL, secret string, client *http.Client) *Sender {
	if client == nil {
		client = NewHTTPClient()
	}
	return &Sender{
		targetURL: targetURL,
		secret:    secret,
		client:    client,
		now:       time.Now,
	}
}

// Host returns the target host for logging. The path may carry a token.
func (s *Sender) Host() string {
	u, err := url.Parse(s.targetURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// Send posts payload once. A 2xx response is success.
// Errors wrap ErrPermanent for 4xx responses other than 408 and 429.
func (s *Sender) Send(ctx context.Context, deliveryID string, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: marshal payload: %v", ErrPermanent, err)
	}

	timestamp := s.now().Unix()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.targetURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrPermanent, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(HeaderSignature, Sign(s.secret, timestamp, body))
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(timestamp, 10))
	req.Header.Set(HeaderDeliveryID, deliveryID)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case isPermanentStatus(resp.StatusCode):
		return fmt.Errorf("%w: HTTP %d", ErrPermanent, resp.StatusCode)
	default:
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
}

func isPermanentStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return false
	}
	return code >= 400 && code < 500
}
