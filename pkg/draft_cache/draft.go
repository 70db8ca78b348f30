package draft_cache

import "time"

// Draft is a locally edited cell that may not have reached the record store
// yet. Hours equal to zero record a cleared cell.
type Draft struct {
	WeekStart time.Time
	ProjectId string
	Date      time.Time
	Hours     float64
	UpdatedAt time.Time
}
