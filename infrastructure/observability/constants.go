package observability

// Metric name prefixes
const (
	MetricPrefix = "prizepool"
)

// Metric names
const (
	// Ticket metrics
	TicketsPurchasedTotal = MetricPrefix + ".tickets.purchased_total"
	TicketPurchasesTotal  = MetricPrefix + ".tickets.purchases_total"

	// Epoch metrics
	EpochTransitionsTotal = MetricPrefix + ".epoch.transitions_total"

	// Claim metrics
	ClaimsPaidTotal = MetricPrefix + ".claims.paid_total"

	// Operation metrics
	OperationErrorsTotal = MetricPrefix + ".operations.errors_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"

	// Database metrics
	DatabaseTransactionsTotal   = MetricPrefix + ".database.transactions_total"
	DatabaseTransactionDuration = MetricPrefix + ".database.transaction_duration"
)

// Label keys
const (
	LabelType      = "type"
	LabelEventType = "event_type"
	LabelOutcome   = "outcome"
	LabelOperation = "operation"
	LabelErrorType = "error_type"
)

// Epoch transitions
const (
	TransitionOpened           = "opened"
	TransitionConcluded        = "concluded"
	TransitionWithdrawalUnlock = "withdrawal_unlocked"
	TransitionWindowRestarted  = "window_restarted"
)

// Claim types
const (
	ClaimTypeWinner      = "winner"
	ClaimTypeParticipant = "participant"
)
