package models

import (
	"time"

	"github.com/google/uuid"
)

// Chapter is one narrative unit of a storybook. Chapter numbers are
// 1..TargetChapters, unique and contiguous per storybook. Rows are immutable
// once written; edits go through the external editor.
type Chapter struct {
	ID               uuid.UUID `json:"id"`
	StorybookID      uuid.UUID `json:"storybookId"`
	ChapterNumber    int       `json:"chapterNumber"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	SceneDescription string    `json:"sceneDescription"`
	CreatedAt        time.Time `json:"createdAt"`
}
