package domain

// Metric names which tracked value a history record is about.
type Metric int

const (
	MetricArena      Metric = 1
	MetricGrandArena Metric = 2
	MetricOnline     Metric = 3
)

func (m Metric) String() string {
	switch m {
	case MetricArena:
		return "arena"
	case MetricGrandArena:
		return "grand_arena"
	case MetricOnline:
		return "online"
	}
	return "unknown"
}

// HistoryRecord is one evaluated change, written once and never updated.
type HistoryRecord struct {
	SubscriberID int64    `json:"subscriber_id"`
	AccountID    int64    `json:"account_id"`
	Name         string   `json:"name"`
	Platform     Platform `json:"platform"`
	Date         int64    `json:"date"` // evaluation time, epoch seconds
	Before       int64    `json:"before"`
	After        int64    `json:"after"`
	Sent         bool     `json:"sent"`
	Item         Metric   `json:"item"`
}

// Improved reports whether a ranking moved to a smaller (better) number.
func (r HistoryRecord) Improved() bool {
	return r.Item != MetricOnline && r.After < r.Before
}
