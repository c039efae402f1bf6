package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"inklessnews/internal/config"
	"inklessnews/internal/domain"
	"inklessnews/internal/ports"
)

func TestSendDevelopmentMode(t *testing.T) {
	t.Parallel()

	dispatcher := NewDispatcher(config.SMTPConfig{From: "news@example.com"}, nil)

	err := dispatcher.Send(context.Background(), ports.Delivery{
		To:       "reader@kindle.com",
		Document: []byte("%PDF-fake"),
		Format:   domain.FormatPDF,
		Date:     time.Now(),
	})
	if err != nil {
		t.Fatalf("development mode must not fail the run: %v", err)
	}
}

func TestSendProviderFailure(t *testing.T) {
	t.Parallel()

	// Unroutable host: dial fails, which must surface as DeliveryError.
	dispatcher := NewDispatcher(config.SMTPConfig{
		Host:     "smtp.invalid",
		Port:     587,
		Username: "user",
		Password: "pass",
		From:     "news@example.com",
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := dispatcher.Send(ctx, ports.Delivery{
		To:       "reader@kindle.com",
		Document: []byte("%PDF-fake"),
		Format:   domain.FormatEPUB,
		Date:     time.Now(),
	})

	var deliveryErr *domain.DeliveryError
	if !errors.As(err, &deliveryErr) {
		t.Fatalf("expected *domain.DeliveryError, got %v", err)
	}
	if deliveryErr.To != "reader@kindle.com" {
		t.Fatalf("error carries wrong recipient: %s", deliveryErr.To)
	}
}
