package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/user"
)

func newUser(role string, level, live bool) user.User {
	return user.User{ActorCore: user.ActorCore{Role: role, IsActive: true, PassedLevelExam: level, PassedLiveExam: live}}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		usr     user.User
		roles   []string
		wantErr error
	}{
		{name: "admin allowed", usr: newUser(user.RoleAdmin, false, false), roles: []string{user.RoleAdmin}},
		{name: "one of many", usr: newUser(user.RoleTeacher, false, false), roles: []string{user.RoleAdmin, user.RoleTeacher}},
		{name: "student denied", usr: newUser(user.RoleStudent, true, true), roles: []string{user.RoleAdmin}, wantErr: ErrForbidden},
		{name: "no roles", usr: newUser(user.RoleAdmin, false, false), wantErr: ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, RequireRole(tt.usr, tt.roles...))
		})
	}
}

func TestRequireSequentialEligibility(t *testing.T) {
	tests := []struct {
		name       string
		usr        user.User
		wantErr    error
		wantReason string
	}{
		{name: "nothing passed", usr: newUser(user.RoleStudent, false, false), wantErr: ErrLevelExamRequired, wantReason: ReasonLevelExam},
		{name: "live passed only", usr: newUser(user.RoleStudent, false, true), wantErr: ErrLevelExamRequired, wantReason: ReasonLevelExam},
		{name: "level passed", usr: newUser(user.RoleStudent, true, false), wantErr: ErrLiveExamRequired, wantReason: ReasonLiveExam},
		{name: "both passed", usr: newUser(user.RoleStudent, true, true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireSequentialEligibility(tt.usr)
			assert.Equal(t, tt.wantErr, err)
			if tt.wantReason != "" {
				fErr, ok := err.(*core.ForbiddenError)
				if assert.True(t, ok) {
					assert.Equal(t, tt.wantReason, fErr.Reason)
				}
			}
		})
	}
}
