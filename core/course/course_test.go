package course_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmoud01140/onlineEdu/core/course"
	"github.com/mahmoud01140/onlineEdu/tests"
)

func TestService(t *testing.T) {
	s := testutil.NewStack()
	ctx := context.Background()

	tajweed, err := s.CourseSvc.Create(ctx, course.NewCourse{
		Title:       " Tajweed basics ",
		Description: "Rules of recitation",
		Duration:    "8 weeks",
		Rating:      4.5,
		Students:    120,
	})
	require.NoError(t, err)
	assert.Equal(t, "Tajweed basics", tajweed.Title)

	tests := []struct {
		name string
		nc   course.NewCourse
	}{
		{name: "no title", nc: course.NewCourse{Description: "d"}},
		{name: "no description", nc: course.NewCourse{Title: "t", Description: "  "}},
		{name: "rating", nc: course.NewCourse{Title: "t", Description: "d", Rating: 6}},
		{name: "students", nc: course.NewCourse{Title: "t", Description: "d", Students: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CourseSvc.Create(ctx, tt.nc)
			assert.Error(t, err)
		})
	}

	courses, err := s.CourseSvc.Query(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, tajweed.ID, courses[0].ID)

	require.NoError(t, s.CourseSvc.Delete(ctx, tajweed.ID))
	assert.Equal(t, course.ErrNotFound, s.CourseSvc.Delete(ctx, tajweed.ID))
}
