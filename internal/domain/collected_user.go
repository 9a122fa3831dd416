package domain

import (
	"strconv"
	"time"
)

type CollectedUserID string

type Source string

const (
	SourceNearby Source = "nearby"
	SourceGroup  Source = "group"
)

func (s Source) Valid() bool {
	return s == SourceNearby || s == SourceGroup
}

type Activity string

const (
	ActivityActive   Activity = "active"
	ActivityInactive Activity = "inactive"
)

func (a Activity) Valid() bool {
	return a == ActivityActive || a == ActivityInactive
}

// CollectedUser is a candidate discovered by a collection operation. Source decides
// which optional attributes are set: Distance for nearby, Group and Activity for group.
// Field order mirrors the exported JSON key order.
type CollectedUser struct {
	ID          CollectedUserID `json:"id"`
	Username    string          `json:"username"`
	Phone       string          `json:"phone"`
	Distance    *int            `json:"distance,omitempty"`
	Group       string          `json:"group,omitempty"`
	Activity    Activity        `json:"activity,omitempty"`
	CollectedAt time.Time       `json:"collectedAt"`
	Source      Source          `json:"source"`
}

type Field struct {
	Key   string
	Value string
}

// Fields lists the populated attributes in key order. Source-specific attributes
// appear only when set, the same way they appear in JSON.
func (u CollectedUser) Fields() []Field {
	fields := []Field{
		{Key: "id", Value: string(u.ID)},
		{Key: "username", Value: u.Username},
		{Key: "phone", Value: u.Phone},
	}
	if u.Distance != nil {
		fields = append(fields, Field{Key: "distance", Value: strconv.Itoa(*u.Distance)})
	}
	if u.Group != "" {
		fields = append(fields, Field{Key: "group", Value: u.Group})
	}
	if u.Activity != "" {
		fields = append(fields, Field{Key: "activity", Value: string(u.Activity)})
	}

	return append(fields,
		Field{Key: "collectedAt", Value: FormatTimestamp(u.CollectedAt)},
		Field{Key: "source", Value: string(u.Source)},
	)
}

func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(time.RFC3339)
}

func IntPtr(v int) *int {
	return &v
}

type CollectionStats struct {
	Total  int
	Nearby int
	Group  int
	Active int
}

func SummarizeCollectedUsers(users []CollectedUser) CollectionStats {
	stats := CollectionStats{Total: len(users)}
	for _, user := range users {
		switch user.Source {
		case SourceNearby:
			stats.Nearby++
		case SourceGroup:
			stats.Group++
		}
		if user.Activity == ActivityActive {
			stats.Active++
		}
	}

	return stats
}
