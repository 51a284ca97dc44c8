package domain

type Status string

const (
	StatusPaid    Status = "Paid"
	StatusPending Status = "Pending"
	StatusOverdue Status = "Overdue"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPaid, StatusPending, StatusOverdue:
		return Status(s), true
	}
	return "", false
}
