package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNearbyQueryValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		query   NearbyQuery
		wantErr string
	}{
		{name: "valid", query: NearbyQuery{Range: 1000, MaxUsers: 100}},
		{name: "range below minimum", query: NearbyQuery{Range: 99, MaxUsers: 10}, wantErr: "range must be between"},
		{name: "range above maximum", query: NearbyQuery{Range: 5001, MaxUsers: 10}, wantErr: "range must be between"},
		{name: "zero users", query: NearbyQuery{Range: 1000, MaxUsers: 0}, wantErr: "max users must be between"},
		{name: "too many users", query: NearbyQuery{Range: 1000, MaxUsers: 1001}, wantErr: "max users must be between"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.query.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
			assert.True(t, errors.Is(err, ErrInvalidArgument))
		})
	}
}

func TestNearbyQueryExpectedUsers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 100, NearbyQuery{Range: 1000, MaxUsers: 100}.ExpectedUsers())
	assert.Equal(t, 50, NearbyQuery{Range: 500, MaxUsers: 100}.ExpectedUsers())
	assert.Equal(t, 10, NearbyQuery{Range: 5000, MaxUsers: 10}.ExpectedUsers())
}

func TestGroupQueryValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, GroupQuery{Link: "https://t.me/example", Method: GroupMethodAll}.Validate())

	err := GroupQuery{Link: "  ", Method: GroupMethodAll}.Validate()
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorContains(t, err, "group link is required")

	err = GroupQuery{Link: "g", Method: "everyone"}.Validate()
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorContains(t, err, "unsupported collect method")
}

func TestGroupMethodExpectedMembers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 200, GroupMethodAll.ExpectedMembers())
	assert.Equal(t, 100, GroupMethodActive.ExpectedMembers())
	assert.Equal(t, 100, GroupMethodRecent.ExpectedMembers())
}
