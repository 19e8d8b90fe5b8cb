// internal/router/deps.go
package router

import (
	"github.com/sirupsen/logrus"

	"github.com/ledrent/ledrent-backend/internal/config"
	"github.com/ledrent/ledrent-backend/internal/repository"
	"github.com/ledrent/ledrent-backend/internal/services"
)

// Services is the wired service graph shared by the HTTP layer and the jobs.
type Services struct {
	Users         *services.UserService
	Catalog       *services.CatalogService
	Inventory     *services.InventoryService
	Rentals       *services.RentalService
	Carts         *services.CartService
	Orders        *services.OrderService
	Payments      *services.PaymentService
	Notifications *services.NotificationService
}

// NewServices builds every service on top of store. Payment providers without
// credentials are left out and requests for them are rejected.
func NewServices(cfg *config.Config, store repository.Store) *Services {
	timeout := cfg.Rental.StoreTimeout

	notifications := services.NewNotificationService(store, services.NewEmailSender(cfg.Email), cfg.Frontend.BaseURL)

	var images services.ImageUploader
	storage, err := services.NewStorageService(cfg)
	if err != nil {
		logrus.WithError(err).Warn("Image storage unavailable, product uploads disabled")
	} else {
		images = storage
	}

	rentals := services.NewRentalService(store, services.RentalOptions{
		Policy:          services.PolicyFor(cfg.Rental.StrictTransitions),
		EnforceCapacity: cfg.Rental.EnforceCapacity,
		StoreTimeout:    timeout,
		Notifier:        notifications,
	})

	return &Services{
		Users:         services.NewUserService(store, timeout),
		Catalog:       services.NewCatalogService(store, images, timeout),
		Inventory:     services.NewInventoryService(store, timeout),
		Rentals:       rentals,
		Carts:         services.NewCartService(store, timeout),
		Orders:        services.NewOrderService(store, timeout, notifications),
		Payments:      services.NewPaymentService(store, rentals, notifications, cfg.Payment, timeout, paymentGateways(cfg.Payment)...),
		Notifications: notifications,
	}
}

func paymentGateways(cfg config.PaymentConfig) []services.PaymentGateway {
	var gateways []services.PaymentGateway
	if cfg.StripeSecretKey != "" {
		gateways = append(gateways, services.NewStripeGateway(cfg.StripeSecretKey))
	}
	if cfg.ChapaSecretKey != "" {
		gateways = append(gateways, services.NewChapaGateway(cfg.ChapaSecretKey, cfg.ChapaBaseURL, nil))
	}
	if cfg.TelebirrAppID != "" && cfg.TelebirrAppKey != "" {
		gateways = append(gateways, services.NewTelebirrGateway(cfg.TelebirrAppID, cfg.TelebirrAppKey, cfg.TelebirrBaseURL, nil))
	}

	names := make([]string, 0, len(gateways))
	for _, g := range gateways {
		names = append(names, string(g.Name()))
	}
	logrus.WithField("providers", names).Info("Payment providers configured")

	return gateways
}
