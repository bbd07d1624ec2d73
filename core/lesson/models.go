package lesson

import (
	"time"

	"github.com/mahmoud01140/onlineEdu/core"
)

// Resource types
var ResourceTypes = []string{"pdf", "video", "audio", "image", "file", "folder", "link"}

type Resource struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AddedAt     time.Time `json:"addedAt"`
}

type Lesson struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	GroupID      string     `json:"group"`
	Date         time.Time  `json:"date"`
	Resources    []Resource `json:"resources"`
	ZoomLink     string     `json:"zoomLink"`
	ZoomPassword string     `json:"zoomPassword"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type NewResource struct {
	URL         string `json:"url" validate:"required,url"`
	Type        string `json:"type" validate:"omitempty,oneof=pdf video audio image file folder link"`
	Title       string `json:"title" validate:"required,notblank"`
	Description string `json:"description" validate:"max=1000"`
}

func (nr *NewResource) clean() {
	nr.URL = core.CleanString(nr.URL)
	nr.Title = core.CleanString(nr.Title)
	nr.Description = core.CleanString(nr.Description)
	if nr.Type == "" {
		nr.Type = "link"
	}
}

type NewLesson struct {
	Title        string        `json:"title" validate:"required,notblank,max=200"`
	Description  string        `json:"description" validate:"required,notblank"`
	GroupID      string        `json:"group" validate:"required"`
	Date         *time.Time    `json:"date"`
	Resources    []NewResource `json:"resources" validate:"dive"`
	ZoomLink     string        `json:"zoomLink" validate:"omitempty,url"`
	ZoomPassword string        `json:"zoomPassword"`
}

// UpdateLesson is a partial update; nil fields are left unchanged.
type UpdateLesson struct {
	Title        *string    `json:"title" validate:"omitempty,notblank,max=200"`
	Description  *string    `json:"description" validate:"omitempty,notblank"`
	GroupID      *string    `json:"group"`
	Date         *time.Time `json:"date"`
	ZoomLink     *string    `json:"zoomLink" validate:"omitempty,url"`
	ZoomPassword *string    `json:"zoomPassword"`
}

type QueryFilter struct {
	GroupID string    `query:"group"`
	Search  string    `query:"search"`
	From    time.Time `query:"from"` // inclusive
	To      time.Time `query:"to"`   // exclusive
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
