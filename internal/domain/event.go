package domain

// EventType classifies a decoded chain event in a group's history log.
type EventType string

const (
	EventJoined  EventType = "JOINED"
	EventWinner  EventType = "WINNER"
	EventClaimed EventType = "CLAIMED"
)

// EventRecord is one entry in a group's transparency log, derived solely from
// receipt/filter log data. Records are immutable once decoded; the canonical
// order is block number descending.
type EventRecord struct {
	Type        EventType
	Participant string
	Amount      string // display value, decimal string
	BlockNumber uint64
	TxHash      string
	Timestamp   int64 // unix seconds where the event carries one, else 0
}
