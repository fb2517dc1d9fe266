package db

// Layouts for the TEXT date columns. Both sort lexically in time order.
const (
	// DateLayout is the calendar date stored in api_requests.date.
	DateLayout = "2006-01-02"
	// TimestampLayout is the local time stored in cache_data.last_updated.
	TimestampLayout = "2006-01-02 15:04:05"
)
