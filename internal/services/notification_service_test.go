// internal/services/notification_service_test.go
package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledrent/ledrent-backend/internal/config"
	"github.com/ledrent/ledrent-backend/internal/models"
)

type sentEmail struct {
	To, Subject, Body string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, _, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{To: to, Subject: subject, Body: body})
	return nil
}

func TestRentalNotificationsOnlyForCustomerFacingStatuses(t *testing.T) {
	store := newMemoryStore()
	user := seedUser(t, store, "renter@example.com", models.UserRoleCustomer)
	sender := &fakeSender{}
	service := NewNotificationService(store, sender, "https://ledrent.example")

	rental := &models.Rental{
		BaseModel:   models.BaseModel{ID: uuid.New()},
		UserID:      user.ID,
		StartDate:   day(2024, 6, 1),
		EndDate:     day(2024, 6, 3),
		TotalAmount: price("150"),
	}
	for _, status := range []models.RentalStatus{
		models.RentalStatusConfirmed,
		models.RentalStatusActive,
		models.RentalStatusCompleted,
		models.RentalStatusReturned,
		models.RentalStatusCancelled,
	} {
		rental.Status = status
		service.RentalStatusChanged(context.Background(), rental, models.RentalStatusPending)
	}
	service.Wait()

	require.Len(t, sender.sent, 3)
	subjects := make([]string, 0, len(sender.sent))
	for _, mail := range sender.sent {
		assert.Equal(t, "renter@example.com", mail.To)
		subjects = append(subjects, mail.Subject)
	}
	assert.ElementsMatch(t, []string{
		"Your LED display rental is confirmed",
		"We received your rented LED displays",
		"Your LED display rental was cancelled",
	}, subjects)
}

func TestRentalConfirmedEmailBody(t *testing.T) {
	store := newMemoryStore()
	user := seedUser(t, store, "abebe@example.com", models.UserRoleCustomer)
	sender := &fakeSender{}
	service := NewNotificationService(store, sender, "https://ledrent.example")

	rental := &models.Rental{
		BaseModel:   models.BaseModel{ID: uuid.New()},
		UserID:      user.ID,
		Status:      models.RentalStatusConfirmed,
		StartDate:   day(2024, 6, 1),
		EndDate:     day(2024, 6, 3),
		TotalAmount: price("150"),
	}
	service.RentalStatusChanged(context.Background(), rental, models.RentalStatusPending)
	service.Wait()

	require.Len(t, sender.sent, 1)
	body := sender.sent[0].Body
	assert.Contains(t, body, "2024-06-01")
	assert.Contains(t, body, "2024-06-03")
	assert.Contains(t, body, "150.00")
	assert.Contains(t, body, "https://ledrent.example/rentals/"+rental.ID.String())
}

func TestOrderPaidEmail(t *testing.T) {
	store := newMemoryStore()
	user := seedUser(t, store, "buyer@example.com", models.UserRoleCustomer)
	sender := &fakeSender{}
	service := NewNotificationService(store, sender, "https://ledrent.example")

	order := &models.Order{
		BaseModel:   models.BaseModel{ID: uuid.New()},
		UserID:      user.ID,
		TotalAmount: price("999.5"),
		Items:       []models.OrderItem{{Quantity: 1}, {Quantity: 2}},
	}
	service.OrderPaid(context.Background(), order)
	service.Wait()

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Payment received for your order", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].Body, "999.50")
	assert.Contains(t, sender.sent[0].Body, "2 item(s)")
}

func TestNotificationFailuresAreSwallowed(t *testing.T) {
	store := newMemoryStore()
	sender := &fakeSender{err: errors.New("smtp: connection refused")}
	service := NewNotificationService(store, sender, "")

	user := seedUser(t, store, "quiet@example.com", models.UserRoleCustomer)
	service.OrderPaid(context.Background(), &models.Order{BaseModel: models.BaseModel{ID: uuid.New()}, UserID: user.ID})
	// Unknown recipients are logged too.
	service.OrderPaid(context.Background(), &models.Order{BaseModel: models.BaseModel{ID: uuid.New()}, UserID: uuid.New()})
	service.Wait()

	assert.Empty(t, sender.sent)
}

func TestNewEmailSenderSelection(t *testing.T) {
	assert.IsType(t, &SendGridSender{}, NewEmailSender(config.EmailConfig{SendGridAPIKey: "SG.key", SMTPHost: "smtp.example.com"}))
	assert.IsType(t, &SMTPSender{}, NewEmailSender(config.EmailConfig{SMTPHost: "smtp.example.com", SMTPPort: 587}))
	assert.IsType(t, LogSender{}, NewEmailSender(config.EmailConfig{}))
}
