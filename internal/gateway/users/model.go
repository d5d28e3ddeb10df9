package users

import "time"

// User is the gateway's local mirror of an IAM identity. Rows are created
// and updated only as a side effect of successful authentication; nothing
// in this subsystem deletes them.
type User struct {
	ID          int64
	Email       string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
