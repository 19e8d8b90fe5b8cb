// internal/services/payment_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ledrent/ledrent-backend/internal/config"
	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
	"github.com/ledrent/ledrent-backend/internal/utils"
)

type PaymentService struct {
	store    repository.Store
	gateways map[models.PaymentProvider]PaymentGateway
	rentals  *RentalService
	notifier Notifier
	config   config.PaymentConfig
	timeout  time.Duration
	now      func() time.Time
}

type InitiatePaymentRequest struct {
	Provider  string    `json:"provider" validate:"required,oneof=stripe chapa telebirr"`
	Purpose   string    `json:"purpose" validate:"required,oneof=rental order"`
	PurposeID uuid.UUID `json:"purpose_id" validate:"required"`
}

type RefundRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Reason string           `json:"reason" validate:"required,max=1000"`
}

func NewPaymentService(store repository.Store, rentals *RentalService, notifier Notifier, cfg config.PaymentConfig, timeout time.Duration, gateways ...PaymentGateway) *PaymentService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	// Rental payments confirm through the rental state machine, so one is always present.
	if rentals == nil {
		rentals = NewRentalService(store, RentalOptions{StoreTimeout: timeout, Notifier: notifier})
	}
	s := &PaymentService{
		store:    store,
		gateways: make(map[models.PaymentProvider]PaymentGateway, len(gateways)),
		rentals:  rentals,
		notifier: notifier,
		config:   cfg,
		timeout:  timeout,
		now:      time.Now,
	}
	for _, g := range gateways {
		s.gateways[g.Name()] = g
	}
	return s
}

func (s *PaymentService) gateway(provider string) (PaymentGateway, error) {
	g, ok := s.gateways[models.PaymentProvider(provider)]
	if !ok {
		return nil, &ValidationError{Field: "provider", Reason: fmt.Sprintf("%q is not enabled", provider)}
	}
	return g, nil
}

// Initiate opens a charge for the caller's pending rental or order and records it as a pending payment.
func (s *PaymentService) Initiate(ctx context.Context, actor Actor, req *InitiatePaymentRequest) (*models.Payment, error) {
	gateway, err := s.gateway(req.Provider)
	if err != nil {
		return nil, err
	}

	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	purpose := models.PaymentPurpose(req.Purpose)
	amount, description, err := s.payable(ctx, actor, purpose, req.PurposeID)
	if err != nil {
		return nil, err
	}

	var email, name string
	if user, err := s.store.Users().GetByID(ctx, actor.UserID); err == nil {
		email, name = user.Email, user.Name
	}

	reference, err := utils.GenerateReference("lr")
	if err != nil {
		return nil, fmt.Errorf("failed to generate reference: %w", err)
	}

	charge, err := gateway.CreateCharge(ctx, &ChargeRequest{
		Reference:   reference,
		Amount:      amount,
		Currency:    s.config.Currency,
		Email:       email,
		Name:        name,
		Description: description,
		CallbackURL: strings.TrimRight(s.config.CallbackBaseURL, "/") + "/" + string(gateway.Name()),
		ReturnURL:   s.config.ReturnURL,
		Metadata: map[string]string{
			"purpose":    req.Purpose,
			"purpose_id": req.PurposeID.String(),
			"user_id":    actor.UserID.String(),
		},
	})
	if err != nil {
		logrus.WithError(err).WithField("provider", gateway.Name()).Error("Failed to create charge")
		return nil, fmt.Errorf("failed to create charge: %w", err)
	}

	payment := &models.Payment{
		UserID:            actor.UserID,
		Provider:          gateway.Name(),
		Purpose:           purpose,
		PurposeID:         req.PurposeID,
		Amount:            amount,
		Currency:          s.config.Currency,
		Status:            models.PaymentStatusPending,
		ProviderReference: charge.Reference,
		CheckoutURL:       charge.CheckoutURL,
		RefundedAmount:    decimal.Zero,
	}
	if err := s.store.Payments().Create(ctx, payment); err != nil {
		return nil, translate(err, "payment", charge.Reference)
	}
	payment.ClientSecret = charge.ClientSecret

	logrus.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"provider":   payment.Provider,
		"purpose":    payment.Purpose,
		"purpose_id": payment.PurposeID,
		"amount":     payment.Amount.StringFixed(2),
	}).Info("Payment initiated")

	return payment, nil
}

// payable returns the amount due for a pending rental or order owned by the actor.
func (s *PaymentService) payable(ctx context.Context, actor Actor, purpose models.PaymentPurpose, id uuid.UUID) (decimal.Decimal, string, error) {
	switch purpose {
	case models.PaymentPurposeRental:
		rental, err := s.store.Rentals().GetByID(ctx, id, false)
		if err != nil {
			return decimal.Zero, "", translate(err, "rental", id.String())
		}
		if rental.UserID != actor.UserID {
			return decimal.Zero, "", &NotFoundError{Resource: "rental", ID: id.String()}
		}
		if rental.Status != models.RentalStatusPending {
			return decimal.Zero, "", &ConflictError{Resource: "rental", Reason: fmt.Sprintf("rental is %s, not pending", rental.Status)}
		}
		return rental.TotalAmount, "LED display rental " + utils.FormatDate(rental.StartDate) + " to " + utils.FormatDate(rental.EndDate), nil

	case models.PaymentPurposeOrder:
		order, err := s.store.Orders().GetByID(ctx, id)
		if err != nil {
			return decimal.Zero, "", translate(err, "order", id.String())
		}
		if order.UserID != actor.UserID {
			return decimal.Zero, "", &NotFoundError{Resource: "order", ID: id.String()}
		}
		if order.Status != models.OrderStatusPending {
			return decimal.Zero, "", &ConflictError{Resource: "order", Reason: fmt.Sprintf("order is %s, not pending", order.Status)}
		}
		return order.TotalAmount, "LED display order " + order.ID.String()[:8], nil

	default:
		return decimal.Zero, "", &ValidationError{Field: "purpose", Reason: "must be rental or order"}
	}
}

// Verify asks the provider for the state of one of the actor's payments.
func (s *PaymentService) Verify(ctx context.Context, actor Actor, paymentID uuid.UUID) (*models.Payment, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	payment, err := s.store.Payments().GetByID(ctx, paymentID)
	if err != nil {
		return nil, translate(err, "payment", paymentID.String())
	}
	if !actor.CanAccess(payment.UserID) {
		return nil, &NotFoundError{Resource: "payment", ID: paymentID.String()}
	}

	return s.refresh(ctx, payment)
}

// HandleWebhook reacts to a provider callback. The callback body is not trusted;
// the payment state is read back from the provider.
func (s *PaymentService) HandleWebhook(ctx context.Context, provider, reference string) (*models.Payment, error) {
	if _, err := s.gateway(provider); err != nil {
		return nil, err
	}
	if reference == "" {
		return nil, &ValidationError{Field: "reference", Reason: "is required"}
	}

	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	payment, err := s.store.Payments().GetByReference(ctx, models.PaymentProvider(provider), reference)
	if err != nil {
		return nil, translate(err, "payment", reference)
	}

	return s.refresh(ctx, payment)
}

func (s *PaymentService) refresh(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if payment.Status != models.PaymentStatusPending {
		return payment, nil
	}

	gateway, err := s.gateway(string(payment.Provider))
	if err != nil {
		return nil, err
	}

	status, err := gateway.VerifyCharge(ctx, payment.ProviderReference)
	if err != nil {
		logrus.WithError(err).WithField("payment_id", payment.ID).Warn("Payment verification failed")
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}
	if status == models.PaymentStatusPending {
		return payment, nil
	}

	return s.apply(ctx, payment.ID, status)
}

type confirmation struct {
	rental         *models.Rental
	previousRental models.RentalStatus
	order          *models.Order
}

// apply records a final provider status. Success and the rental or order update
// it triggers commit together.
func (s *PaymentService) apply(ctx context.Context, paymentID uuid.UUID, status models.PaymentStatus) (*models.Payment, error) {
	var updated *models.Payment
	var confirmed confirmation
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		payment, err := tx.Payments().GetForUpdate(ctx, paymentID)
		if err != nil {
			return translate(err, "payment", paymentID.String())
		}
		updated = payment
		if payment.Status != models.PaymentStatusPending {
			return nil
		}

		now := s.now()
		payment.Status = status
		payment.ProcessedAt = &now
		if err := tx.Payments().Update(ctx, payment); err != nil {
			return translate(err, "payment", paymentID.String())
		}

		if status == models.PaymentStatusSucceeded {
			confirmed, err = s.confirmPurpose(ctx, tx, payment)
			if err != nil {
				return err
			}
		}

		logrus.WithFields(logrus.Fields{
			"payment_id": payment.ID,
			"provider":   payment.Provider,
			"status":     status,
		}).Info("Payment status changed")
		return nil
	})
	if err != nil {
		return nil, err
	}

	if confirmed.rental != nil {
		s.rentals.notifier.RentalStatusChanged(ctx, confirmed.rental, confirmed.previousRental)
	}
	if confirmed.order != nil {
		s.notifier.OrderPaid(ctx, confirmed.order)
	}

	return updated, nil
}

func (s *PaymentService) confirmPurpose(ctx context.Context, tx repository.Store, payment *models.Payment) (confirmation, error) {
	log := logrus.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"purpose":    payment.Purpose,
		"purpose_id": payment.PurposeID,
	})

	switch payment.Purpose {
	case models.PaymentPurposeRental:
		rental, err := tx.Rentals().GetForUpdate(ctx, payment.PurposeID)
		if err != nil {
			return confirmation{}, translate(err, "rental", payment.PurposeID.String())
		}
		if rental.Status != models.RentalStatusPending {
			log.WithField("rental_status", rental.Status).Warn("Payment received for a rental that is no longer pending")
			return confirmation{}, nil
		}
		updated, previous, err := s.rentals.transitionInTx(ctx, tx, payment.PurposeID, models.RentalStatusConfirmed)
		if err != nil {
			return confirmation{}, err
		}
		return confirmation{rental: updated, previousRental: previous}, nil

	case models.PaymentPurposeOrder:
		order, changed, err := markPaidInTx(ctx, tx, payment.PurposeID)
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			log.Warn("Payment received for a cancelled order")
			return confirmation{}, nil
		}
		if err != nil {
			return confirmation{}, err
		}
		if !changed {
			return confirmation{}, nil
		}
		return confirmation{order: order}, nil
	}

	return confirmation{}, nil
}

// Refund returns part or all of a succeeded payment. Providers without a refund
// API get the refund recorded only.
func (s *PaymentService) Refund(ctx context.Context, paymentID uuid.UUID, req *RefundRequest) (*models.Payment, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	var updated *models.Payment
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		payment, err := tx.Payments().GetForUpdate(ctx, paymentID)
		if err != nil {
			return translate(err, "payment", paymentID.String())
		}
		if payment.Status != models.PaymentStatusSucceeded {
			return &ConflictError{Resource: "payment", Reason: fmt.Sprintf("cannot refund a %s payment", payment.Status)}
		}

		remaining := payment.Amount.Sub(payment.RefundedAmount)
		amount := remaining
		if req.Amount != nil {
			amount = req.Amount.Round(2)
		}
		if !amount.IsPositive() || amount.GreaterThan(remaining) {
			return &ValidationError{Field: "amount", Reason: fmt.Sprintf("must be between 0 and %s", remaining.StringFixed(2))}
		}

		if gateway, ok := s.gateways[payment.Provider]; ok {
			if refunder, ok := gateway.(Refunder); ok {
				if err := refunder.Refund(ctx, payment.ProviderReference, amount, req.Reason); err != nil {
					return err
				}
			}
		}

		now := s.now()
		payment.RefundedAmount = payment.RefundedAmount.Add(amount)
		payment.RefundedAt = &now
		payment.RefundReason = req.Reason
		if payment.RefundedAmount.Equal(payment.Amount) {
			payment.Status = models.PaymentStatusRefunded
		}
		if err := tx.Payments().Update(ctx, payment); err != nil {
			return translate(err, "payment", paymentID.String())
		}

		logrus.WithFields(logrus.Fields{
			"payment_id": payment.ID,
			"amount":     amount.StringFixed(2),
			"status":     payment.Status,
		}).Info("Payment refunded")

		updated = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PaymentService) History(ctx context.Context, userID uuid.UUID, params utils.PaginationParams) ([]models.Payment, int64, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	payments, total, err := s.store.Payments().ListByUser(ctx, userID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get payment history: %w", err)
	}
	return payments, total, nil
}
