// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authorization
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"
	KeyAuthTokenExpired = "auth.token_expired"

	// Users
	KeyUserCreated   = "user.created"
	KeyUserUpdated   = "user.updated"
	KeyUserNotFound  = "user.not_found"
	KeyUserSuspended = "user.suspended"

	// Catalog
	KeyProductCreated  = "product.created"
	KeyProductUpdated  = "product.updated"
	KeyProductDeleted  = "product.deleted"
	KeyProductNotFound = "product.not_found"
	KeyVariantCreated  = "variant.created"
	KeyVariantNotFound = "variant.not_found"

	// Inventory
	KeyUnitCreated       = "inventory_unit.created"
	KeyUnitNotFound      = "inventory_unit.not_found"
	KeyUnitSerialExists  = "inventory_unit.serial_exists"
	KeyInvalidStatus     = "status.invalid"
	KeyInsufficientStock = "inventory.insufficient"

	// Rentals
	KeyRentalCreated  = "rental.created"
	KeyRentalUpdated  = "rental.updated"
	KeyRentalNotFound = "rental.not_found"
	KeyUnitsAssigned  = "rental.units_assigned"

	// Cart and orders
	KeyCartUpdated      = "cart.updated"
	KeyCartItemNotFound = "cart_item.not_found"
	KeyOrderPlaced      = "order.placed"
	KeyOrderNotFound    = "order.not_found"

	// Payments
	KeyPaymentInitiated = "payment.initiated"
	KeyPaymentNotFound  = "payment.not_found"
	KeyPaymentRefunded  = "payment.refunded"

	// Conflicts
	KeyConflict = "conflict"

	// Admin
	KeyAdminAccessDenied = "admin.access_denied"
	KeyStaffAccessDenied = "staff.access_denied"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// File Upload
	KeyFileUploadSuccess = "file.upload_success"
	KeyFileUploadFailed  = "file.upload_failed"

	// Rate limiting
	KeyRateLimited = "rate.limited"
)
