package social

import "errors"

var (
	ErrSelfRequest      = errors.New("cannot befriend yourself")
	ErrBlocked          = errors.New("this user is not accepting friend requests")
	ErrNoPendingRequest = errors.New("no pending friend request from this user")
)
