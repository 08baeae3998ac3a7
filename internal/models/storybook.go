package models

import (
	"time"

	"github.com/google/uuid"
)

// StorybookStatus is the lifecycle state of the book artifact.
type StorybookStatus string

const (
	StorybookStatusDraft      StorybookStatus = "draft"
	StorybookStatusGenerating StorybookStatus = "generating"
	StorybookStatusComplete   StorybookStatus = "complete"
	StorybookStatusPrinted    StorybookStatus = "printed"
)

// Character is one recurring protagonist of a storybook. The order of the
// characters slice is stable and drives the "Character N" labels embedded in
// illustration prompts.
type Character struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	VisualDescription string    `json:"visualDescription"`
	ReferenceImageURL string    `json:"referenceImageUrl,omitempty"`
}

// PageType distinguishes the fixed non-chapter pages from chapter pages.
type PageType string

const (
	PageTypeCover   PageType = "cover"
	PageTypeTitle   PageType = "title"
	PageTypeChapter PageType = "chapter"
	PageTypeBack    PageType = "back"
)

// Page is one entry of the assembled book content. Chapter pages carry the
// chapter's prose and illustration; cover/title/back pages do not.
type Page struct {
	Number          int      `json:"number"`
	Type            PageType `json:"type"`
	ChapterNumber   int      `json:"chapterNumber,omitempty"`
	Title           string   `json:"title,omitempty"`
	Text            string   `json:"text,omitempty"`
	IllustrationURL string   `json:"illustrationUrl,omitempty"`
}

// BookContent is the denormalized page sequence synchronized from the
// authoritative Chapter/Illustration rows during the layout stage.
type BookContent struct {
	Title      string `json:"title"`
	Dedication string `json:"dedication,omitempty"`
	Pages      []Page `json:"pages"`
}

// FixedPageCount is the number of non-chapter pages (cover, title, back).
// ChapterPageOffset is the page number of the first chapter page.
const (
	FixedPageCount    = 3
	ChapterPageOffset = 3
)

// Storybook is the generated book artifact being built for an order.
type Storybook struct {
	ID               uuid.UUID       `json:"id"`
	Title            string          `json:"title"`
	TitlePinned      bool            `json:"titlePinned"`
	TargetChapters   int             `json:"targetChapters"`
	Setting          string          `json:"setting"`
	Theme            string          `json:"theme"`
	ArtStyle         string          `json:"artStyle"`
	Dedication       string          `json:"dedication,omitempty"`
	Characters       []Character     `json:"characters"`
	IllustrationSeed int64           `json:"illustrationSeed"`
	Status           StorybookStatus `json:"status"`
	Content          *BookContent    `json:"content,omitempty"`
	CoverURL         string          `json:"coverUrl,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// StorybookSummary is the slice of storybook data exposed on the polling endpoint.
type StorybookSummary struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	CoverURL string    `json:"coverUrl,omitempty"`
}
