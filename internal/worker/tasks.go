package worker

// Task types handled by the worker. The services package carries copies of
// these names for enqueueing.
const (
	TypeReceiptGenerate = "receipt:generate"
	TypeReceiptEmail    = "receipt:email"
)

type ReceiptTaskPayload struct {
	OrderID string `json:"orderId"`
}
