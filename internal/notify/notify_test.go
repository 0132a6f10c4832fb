package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"
)

func TestWebhookNotifierPostsRelayPayload(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, time.Second, nil)
	err := n.Send(context.Background(), Message{To: "ana@central.com", Subject: "New Ticket Created", Body: "A new ticket has been created: t-1"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.ToUser != "ana@central.com" || got.EmailSubject != "New Ticket Created" || !strings.HasSuffix(got.EmailBody, "t-1") {
		t.Fatalf("payload = %+v", got)
	}
}

func TestWebhookNotifierRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "relay down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL, time.Second, nil).Send(context.Background(), Message{To: "x@y.com"})
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected 503 error, got %v", err)
	}
}

func TestWebhookNotifierHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewWebhookNotifier("http://127.0.0.1:1", time.Second, nil).Send(ctx, Message{To: "x@y.com"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestSMTPNotifierBuildsMessage(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	n := NewSMTPNotifier(SMTPConfig{Host: "mail.local", Port: 2525, From: "noreply@maintenance.com"})
	n.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	if err := n.Send(context.Background(), Message{To: "ana@central.com", Subject: "Ticket Closed", Body: "done"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotAddr != "mail.local:2525" {
		t.Fatalf("addr = %s", gotAddr)
	}
	if len(gotTo) != 1 || gotTo[0] != "ana@central.com" {
		t.Fatalf("to = %v", gotTo)
	}
	for _, want := range []string{"From: noreply@maintenance.com\r\n", "Subject: Ticket Closed\r\n", "\r\n\r\ndone"} {
		if !strings.Contains(gotMsg, want) {
			t.Errorf("message missing %q:\n%s", want, gotMsg)
		}
	}
}

func TestSMTPNotifierWrapsSendError(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{Host: "mail.local", Port: 25})
	boom := errors.New("connection refused")
	n.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return boom }

	if err := n.Send(context.Background(), Message{To: "a@b.com"}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}

func TestLogNotifierNeverFails(t *testing.T) {
	if err := NewLogNotifier(nil).Send(context.Background(), Message{To: "a@b.com"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
}
