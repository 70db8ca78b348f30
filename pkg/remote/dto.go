package remote

// Wire types of the record store REST contract.

type EntryDTO struct {
	Id        string  `json:"id,omitempty"`
	ProjectId string  `json:"projectId"`
	Date      string  `json:"date"`
	Hours     float64 `json:"hours"`
}

type TimesheetDTO struct {
	Id         string     `json:"id,omitempty"`
	WeekStart  string     `json:"weekStart,omitempty"`
	Status     string     `json:"status"`
	TotalHours float64    `json:"totalHours"`
	Entries    []EntryDTO `json:"entries"`
}

type SyncRequestDTO struct {
	WeekStart string     `json:"weekStart"`
	Status    string     `json:"status"`
	Entries   []EntryDTO `json:"entries"`
}

type SyncResponseDTO struct {
	Success     bool    `json:"success"`
	TimesheetId string  `json:"timesheetId"`
	EntryCount  int     `json:"entryCount"`
	TotalHours  float64 `json:"totalHours"`
}

type ClockActionRequestDTO struct {
	Action string `json:"action"`
}

type ClockActionResponseDTO struct {
	Success   bool    `json:"success"`
	LoginTime *string `json:"loginTime,omitempty"`
	Error     string  `json:"error,omitempty"`
}

type ClockStatusDTO struct {
	IsActive  bool    `json:"isActive"`
	LoginTime *string `json:"loginTime,omitempty"`
}

type ProjectDTO struct {
	Id       string `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Billable bool   `json:"billable"`
	Color    string `json:"color"`
}

type errorDTO struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}
