package domain

import "time"

// Source identifies which of the two ledgers a transaction came from.
type Source string

const (
	// SourceProcessor is the payment processor ledger (left side).
	SourceProcessor Source = "processor"
	// SourceBooks is the accounting system ledger (right side).
	SourceBooks Source = "books"
)

// TransactionType defines the nature of the transaction.
type TransactionType string

const (
	TypeCharge     TransactionType = "charge"
	TypeRefund     TransactionType = "refund"
	TypePayment    TransactionType = "payment"
	TypeInvoice    TransactionType = "invoice"
	TypeCreditMemo TransactionType = "credit_memo"
	TypeOther      TransactionType = "other"
)

// MetadataFeeAmount is the side-channel key carrying the actual
// processing fee charged for a processor transaction, when known.
const MetadataFeeAmount = "fee_amount"

// Transaction is a single entry from either ledger. ExternalID is
// unique within its source; the amount sign encodes debit/credit
// semantics (refunds and credit memos are negative).
type Transaction struct {
	ExternalID   string            `json:"external_id"`
	Source       Source            `json:"source"`
	Type         TransactionType   `json:"type"`
	Amount       float64           `json:"amount"`
	Date         time.Time         `json:"date"`
	Description  string            `json:"description,omitempty"`
	CustomerID   string            `json:"customer_id,omitempty"`
	CustomerName string            `json:"customer_name,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}
