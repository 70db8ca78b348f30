package project

const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"

	defaultCode  = "N/A"
	defaultColor = "bg-blue-500"
)

type Project struct {
	Id       string
	Name     string
	Code     string
	Billable bool
	Color    string
	Status   string
}
