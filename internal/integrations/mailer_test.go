package integrations

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"frutico/backend/internal/config"
)

func testMailer() *SMTPMailer {
	return NewSMTPMailer(config.SMTPConfig{
		Host:       "127.0.0.1",
		Port:       2525,
		From:       "tickets@frutico.example",
		RatePerSec: 1,
	})
}

func TestBuildMessageEmbedsInlineAttachment(t *testing.T) {
	msg, err := testMailer().buildMessage(Email{
		To:      "visitor@example.com",
		Subject: "Your ticket",
		HTML:    `<img src="cid:frutico-qr">`,
		Inline: []InlineAttachment{{
			Filename:  "frutico-ticket.png",
			Content:   []byte("\x89PNG fake"),
			ContentID: "frutico-qr",
		}},
	})
	if err != nil {
		t.Fatalf("buildMessage(): %v", err)
	}

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("write message: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{
		"To: visitor@example.com",
		"From: tickets@frutico.example",
		"Content-ID: <frutico-qr>",
		`filename="frutico-ticket.png"`,
		"Content-Disposition: inline",
	} {
		if !strings.Contains(raw, want) {
			t.Fatalf("expected message to contain %q", want)
		}
	}
}

func TestBuildMessageRequiresRecipient(t *testing.T) {
	if _, err := testMailer().buildMessage(Email{To: "  "}); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("expected ErrNoRecipient, got %v", err)
	}
}

func TestSendHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := testMailer().Send(ctx, Email{To: "visitor@example.com", Subject: "x", HTML: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
