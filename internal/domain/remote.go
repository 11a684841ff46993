package domain

// RemoteTask is an OpenProject work package as far as reconciliation cares.
type RemoteTask struct {
	ID      int64
	Subject string
}

// TaskPage is one page of a project's work package listing.
type TaskPage struct {
	Tasks []RemoteTask
	Total int
}

// TimeRecord is a remote time entry.
type TimeRecord struct {
	ID         int64
	TaskID     int64
	ActivityID int64
	SpentOn    string // YYYY-MM-DD as reported by the server
	Comment    string
}

// NewTask is the payload for creating a work package.
type NewTask struct {
	ProjectID     int64
	Subject       string
	TypeID        int64
	StatusID      int64
	Description   string // markdown; omitted when empty
	ResponsibleID int64  // omitted when 0
	AssigneeID    int64  // omitted when 0
}

// NewTimeRecord is the payload for creating a time entry.
type NewTimeRecord struct {
	TaskID     int64
	SpentOn    Date
	Hours      float64
	ActivityID int64
	Comment    string
}

// User is an OpenProject account.
type User struct {
	ID    int64
	Name  string
	Login string
	Email string
}

// Project is an OpenProject project as listed by the diagnostics command.
type Project struct {
	ID         int64
	Name       string
	Identifier string
	Status     string
}

// Status is a work package status offered to the operator.
type Status struct {
	ID   int64
	Name string
}

// Statuses lists the selectable work package statuses in menu order.
var Statuses = []Status{
	{ID: 1, Name: "New"},
	{ID: 2, Name: "To Do"},
	{ID: 7, Name: "In Progress"},
	{ID: 11, Name: "Developed"},
	{ID: 12, Name: "Closed"},
	{ID: 13, Name: "Rejected"},
	{ID: 14, Name: "On Hold"},
}

// DefaultStatus is used when the operator makes no choice.
var DefaultStatus = Statuses[2]

// StatusName returns the display name of a status id.
func StatusName(id int64) string {
	for _, s := range Statuses {
		if s.ID == id {
			return s.Name
		}
	}
	return "Status " + itoa(id)
}
