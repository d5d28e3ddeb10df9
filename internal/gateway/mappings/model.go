// Package mappings maintains the 1:1 correspondence between IAM-space user
// identifiers and the gateway's local user identifiers. A mapping is created
// once, on first successful login, and never updated or deleted by the
// normal flow.
package mappings

import "time"

type Mapping struct {
	IamUserID   int64
	LocalUserID int64
	CreatedAt   time.Time
}
