package shared

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// FailureReason categorises why a transaction record ended FAILED
type FailureReason string

const (
	FailureReasonPersistence       FailureReason = "PERSISTENCE_FAILURE"
	FailureReasonConcurrentUpdate  FailureReason = "CONCURRENT_MODIFICATION"
	FailureReasonInsufficientFunds FailureReason = "INSUFFICIENT_FUNDS"
	FailureReasonAccountNotActive  FailureReason = "ACCOUNT_NOT_ACTIVE"
	FailureReasonCanceled          FailureReason = "CANCELED"
	FailureReasonAbandoned         FailureReason = "ABANDONED"
	FailureReasonUnknownError      FailureReason = "UNKNOWN_ERROR"
)

// EntryDirection tells whether a projected statement line adds to or removes from a balance
type EntryDirection string

const (
	EntryDirectionCredit EntryDirection = "CREDIT"
	EntryDirectionDebit  EntryDirection = "DEBIT"
)

// Event types carried in outbox messages and Kafka headers
const (
	EventTransactionCompleted = "transaction.completed"
	EventTransactionFailed    = "transaction.failed"
)
