package models

const (
	ServiceDineIn   = "dine_in"
	ServiceTakeaway = "takeaway"
)

const (
	PaymentCash   = "cash"
	PaymentCard   = "card"
	PaymentOnline = "online"
	PaymentMixed  = "mixed"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

const (
	// DefaultSyncIntervalSeconds is how often the background worker re-checks
	// connectivity and drains the queue.
	DefaultSyncIntervalSeconds = 30

	// DefaultProbeTimeoutSeconds bounds the connectivity probe.
	DefaultProbeTimeoutSeconds = 5

	// DefaultSubmitTimeoutSeconds bounds a single order submission.
	DefaultSubmitTimeoutSeconds = 30

	// MenuCacheTTL lifetime of a cached menu snapshot in seconds.
	MenuCacheTTL = 24 * 60 * 60

	// DefaultProbeURL is a stable, low-cost reachability target.
	DefaultProbeURL = "https://www.google.com"
)
