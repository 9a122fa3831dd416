package domain

import "fmt"

// Criteria selects collected users. Every specified field must match; nil pointers
// and empty strings leave that dimension unconstrained.
type Criteria struct {
	Source      Source
	MinDistance *int
	MaxDistance *int
	Activity    Activity
}

func (c Criteria) Validate() error {
	if c.Source != "" && !c.Source.Valid() {
		return fmt.Errorf("%w: unsupported source %q", ErrInvalidArgument, c.Source)
	}
	if c.Activity != "" && !c.Activity.Valid() {
		return fmt.Errorf("%w: unsupported activity %q", ErrInvalidArgument, c.Activity)
	}
	if c.MinDistance != nil && c.MaxDistance != nil && *c.MinDistance > *c.MaxDistance {
		return fmt.Errorf("%w: min distance %d exceeds max distance %d", ErrInvalidArgument, *c.MinDistance, *c.MaxDistance)
	}

	return nil
}

// Matches reports whether u passes every specified criterion. A user without a
// distance never passes a distance bound.
func (c Criteria) Matches(u CollectedUser) bool {
	if c.Source != "" && u.Source != c.Source {
		return false
	}
	if c.MinDistance != nil && (u.Distance == nil || *u.Distance < *c.MinDistance) {
		return false
	}
	if c.MaxDistance != nil && (u.Distance == nil || *u.Distance > *c.MaxDistance) {
		return false
	}
	if c.Activity != "" && u.Activity != c.Activity {
		return false
	}

	return true
}

// FilterUsers returns the users matching c in their original order. The result is
// never nil.
func FilterUsers(users []CollectedUser, c Criteria) []CollectedUser {
	filtered := make([]CollectedUser, 0, len(users))
	for _, user := range users {
		if c.Matches(user) {
			filtered = append(filtered, user)
		}
	}

	return filtered
}
