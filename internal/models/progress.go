package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Stage is one phase of the generation state machine. Stages run strictly
// forward; failed is an absorbing state reachable from any non-terminal stage.
type Stage string

const (
	StagePayment       Stage = "payment"
	StageOutline       Stage = "outline"
	StageNarrative     Stage = "narrative"
	StageCover         Stage = "cover"
	StageIllustrations Stage = "illustrations"
	StageLayout        Stage = "layout"
	StageComplete      Stage = "complete"
	StageFailed        Stage = "failed"
)

// stageOrder fixes the forward ordering used for monotonicity checks.
// Failed is not ordered: it is reachable from any non-terminal stage.
var stageOrder = map[Stage]int{
	StagePayment:       0,
	StageOutline:       1,
	StageNarrative:     2,
	StageCover:         3,
	StageIllustrations: 4,
	StageLayout:        5,
	StageComplete:      6,
}

// Rank returns the position of the stage in the forward ordering, or -1 for
// failed/unknown stages.
func (s Stage) Rank() int {
	r, ok := stageOrder[s]
	if !ok {
		return -1
	}
	return r
}

// IsTerminal reports whether the stage freezes the progress record.
func (s Stage) IsTerminal() bool {
	return s == StageComplete || s == StageFailed
}

// stageSpans fixes the design-constant base percentage and weight of each
// stage. Overall percentage is base + stageProgress*weight/100, so the
// overall number is monotonic as long as stages advance forward and
// stageProgress is monotonic within a stage. The narrative and illustration
// stages carry most of the weight, split evenly across chapters.
var stageSpans = map[Stage]struct{ base, weight int }{
	StagePayment:       {0, 5},
	StageOutline:       {5, 10},
	StageNarrative:     {15, 35},
	StageCover:         {50, 10},
	StageIllustrations: {60, 30},
	StageLayout:        {90, 10},
}

// OverallProgress maps a stage-local percentage (0-100) to the overall run
// percentage. Complete is pinned to 100; failed keeps the last overall value
// and is handled by the tracker.
func OverallProgress(stage Stage, stageProgress int) int {
	if stage == StageComplete {
		return 100
	}
	span, ok := stageSpans[stage]
	if !ok {
		return 0
	}
	if stageProgress < 0 {
		stageProgress = 0
	}
	if stageProgress > 100 {
		stageProgress = 100
	}
	return span.base + stageProgress*span.weight/100
}

// GenerationProgress is the persisted, polled record of one order's run.
// Created/reset when a run starts, advanced monotonically, frozen at
// complete or failed.
type GenerationProgress struct {
	OrderID         uuid.UUID       `json:"orderId"`
	Stage           Stage           `json:"stage"`
	StageProgress   int             `json:"stageProgress"`
	OverallProgress int             `json:"overallProgress"`
	Message         string          `json:"message"`
	Data            json.RawMessage `json:"data,omitempty"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ProgressSnapshot is what the polling endpoint returns: the progress record
// plus the order's current status and a storybook summary.
type ProgressSnapshot struct {
	Status    OrderStatus         `json:"status"`
	Progress  *GenerationProgress `json:"progress"`
	Storybook *StorybookSummary   `json:"storybook,omitempty"`
}
