package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/noblesavage/site/internal/events"
)

func TestNewPayload(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	got := NewPayload(events.NewIntakeSubmitted("a b", "https://noblesavage.example/signup?x=1", at))

	want := Payload{
		Event:       events.TypeIntakeSubmitted,
		CustomerID:  "a b",
		Referrer:    "https://noblesavage.example/signup",
		SubmittedAt: at,
		Dashboard:   "/dashboard/a%20b",
		Portal:      "/portal/a%20b",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestSender_SignsRequest(t *testing.T) {
	t.Parallel()

	const secret = "0123456789abcdef"
	type received struct {
		header http.Header
		body   []byte
	}
	got := make(chan received, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- received{header: r.Header.Clone(), body: body}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sender := NewSender(srv.URL+"/hooks/intake", secret, srv.Client())
	payload := Payload{Event: events.TypeIntakeSubmitted, CustomerID: "abc", Dashboard: "/dashboard/abc", Portal: "/portal/abc"}

	if err := sender.Send(context.Background(), "1700000000000-0", payload); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	req := <-got
	if req.header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", req.header.Get("Content-Type"))
	}
	if req.header.Get(HeaderDeliveryID) != "1700000000000-0" {
		t.Errorf("delivery id = %q", req.header.Get(HeaderDeliveryID))
	}
	ts, err := strconv.ParseInt(req.header.Get(HeaderTimestamp), 10, 64)
	if err != nil {
		t.Fatalf("bad timestamp header: %v", err)
	}
	if err := Verify(secret, req.header.Get(HeaderSignature), ts, req.body, DefaultReplayWindow); err != nil {
		t.Errorf("signature does not verify: %v", err)
	}

	var decoded Payload
	if err := json.Unmarshal(req.body, &decoded); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if diff := cmp.Diff(payload, decoded); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestSender_StatusHandling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status        int
		wantErr       bool
		wantPermanent bool
	}{
		{http.StatusOK, false, false},
		{http.StatusAccepted, false, false},
		{http.StatusFound, true, false},
		{http.StatusBadRequest, true, true},
		{http.StatusUnauthorized, true, true},
		{http.StatusGone, true, true},
		{http.StatusRequestTimeout, true, false},
		{http.StatusTooManyRequests, true, false},
		{http.StatusInternalServerError, true, false},
		{http.StatusBadGateway, true, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status == http.StatusFound {
					w.Header().Set("Location", "/elsewhere")
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := srv.Client()
			client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

			err := NewSender(srv.URL, "secret", client).Send(context.Background(), "1-0", Payload{CustomerID: "abc"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Send() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := errors.Is(err, ErrPermanent); got != tt.wantPermanent {
				t.Errorf("permanent = %v, want %v (err %v)", got, tt.wantPermanent, err)
			}
		})
	}
}

func TestSender_Host(t *testing.T) {
	t.Parallel()

	s := NewSender("https://hooks.example:8443/intake/secret-token", "secret", nil)
	if got := s.Host(); got != "hooks.example:8443" {
		t.Errorf("Host() = %q", got)
	}
}
