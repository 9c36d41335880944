package models

import (
	"time"

	"github.com/google/uuid"
)

type RunTrigger string

const (
	TriggerSchedule RunTrigger = "schedule"
	TriggerManual   RunTrigger = "manual"
)

// RunResult describes the outcome of one fetch->normalize->append cycle.
type RunResult struct {
	RunID       uuid.UUID  `json:"run_id"`
	Trigger     RunTrigger `json:"trigger"`
	Base        string     `json:"base"`
	Ok          bool       `json:"ok"`
	RowsWritten int        `json:"rows_written"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  time.Time  `json:"finished_at"`
	Error       string     `json:"error,omitempty"`
}

// RunCompletedEvent is published to Kafka after every successful run.
type RunCompletedEvent struct {
	RunID       string     `json:"run_id"`
	Trigger     RunTrigger `json:"trigger"`
	Base        string     `json:"base"`
	Date        string     `json:"date"`
	RowsWritten int        `json:"rows_written"`
	FinishedAt  time.Time  `json:"finished_at"`
}
