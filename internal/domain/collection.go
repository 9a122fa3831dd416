package domain

import (
	"fmt"
	"strings"
)

const (
	NearbyMinRange = 100
	NearbyMaxRange = 5000
	NearbyMinUsers = 1
	NearbyMaxUsers = 1000

	// nearbyMetersPerUser caps a nearby scan at one candidate per ten meters of range.
	nearbyMetersPerUser = 10

	groupAllMembers     = 200
	groupPartialMembers = 100
)

type GroupMethod string

const (
	GroupMethodAll    GroupMethod = "all"
	GroupMethodActive GroupMethod = "active"
	GroupMethodRecent GroupMethod = "recent"
)

func (m GroupMethod) Valid() bool {
	switch m {
	case GroupMethodAll, GroupMethodActive, GroupMethodRecent:
		return true
	default:
		return false
	}
}

// ExpectedMembers is the number of members a group scan yields for the method.
func (m GroupMethod) ExpectedMembers() int {
	if m == GroupMethodAll {
		return groupAllMembers
	}

	return groupPartialMembers
}

type NearbyQuery struct {
	Range    int
	MaxUsers int
}

func (q NearbyQuery) Validate() error {
	if q.Range < NearbyMinRange || q.Range > NearbyMaxRange {
		return fmt.Errorf("%w: range must be between %d and %d meters, got %d", ErrInvalidArgument, NearbyMinRange, NearbyMaxRange, q.Range)
	}
	if q.MaxUsers < NearbyMinUsers || q.MaxUsers > NearbyMaxUsers {
		return fmt.Errorf("%w: max users must be between %d and %d, got %d", ErrInvalidArgument, NearbyMinUsers, NearbyMaxUsers, q.MaxUsers)
	}

	return nil
}

func (q NearbyQuery) ExpectedUsers() int {
	return min(q.MaxUsers, q.Range/nearbyMetersPerUser)
}

type GroupQuery struct {
	Link   string
	Method GroupMethod
}

func (q GroupQuery) Validate() error {
	if strings.TrimSpace(q.Link) == "" {
		return fmt.Errorf("%w: group link is required", ErrInvalidArgument)
	}
	if !q.Method.Valid() {
		return fmt.Errorf("%w: unsupported collect method %q", ErrInvalidArgument, q.Method)
	}

	return nil
}
