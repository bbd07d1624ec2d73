// Package access holds the authorization rules applied after the actor is resolved.
package access

import (
	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/user"
)

// Eligibility reasons
const (
	ReasonLevelExam = "level_exam"
	ReasonLiveExam  = "live_exam"
)

var (
	ErrForbidden         = core.NewForbiddenError("", "You do not have permission to perform this action.")
	ErrLevelExamRequired = core.NewForbiddenError(ReasonLevelExam, "You must pass the level exam to access this resource.")
	ErrLiveExamRequired  = core.NewForbiddenError(ReasonLiveExam, "You must pass the live exam to access this resource.")
)

// RequireRole fails with ErrForbidden unless usr has one of roles.
func RequireRole(usr user.User, roles ...string) error {
	if usr.HasRole(roles...) {
		return nil
	}
	return ErrForbidden
}

// RequireSequentialEligibility checks the level exam, then the live exam.
// The first missing one is reported.
func RequireSequentialEligibility(usr user.User) error {
	if !usr.PassedLevelExam {
		return ErrLevelExamRequired
	}
	if !usr.PassedLiveExam {
		return ErrLiveExamRequired
	}
	return nil
}
