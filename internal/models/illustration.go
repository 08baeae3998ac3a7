package models

import (
	"time"

	"github.com/google/uuid"
)

// Illustration is one generated image bound to a chapter. ImageURL always
// points at permanent storage, never at the ephemeral provider URL.
type Illustration struct {
	ID         uuid.UUID `json:"id"`
	ChapterID  uuid.UUID `json:"chapterId"`
	ImageURL   string    `json:"imageUrl"`
	PromptUsed string    `json:"promptUsed"`
	SeedUsed   int64     `json:"seedUsed"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CharacterReference pairs a character with the reference image supplied to
// the image provider. The prompt builder consumes this list so the
// "Character N" labels in the prompt text and the reference URL ordering are
// structurally guaranteed to match.
type CharacterReference struct {
	CharacterID       uuid.UUID `json:"characterId"`
	Name              string    `json:"name"`
	VisualDescription string    `json:"visualDescription"`
	ReferenceImageURL string    `json:"referenceImageUrl,omitempty"`
}
