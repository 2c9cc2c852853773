package tasks

import "time"

// StorageKey is the key the task collection is persisted under.
const StorageKey = "todoTasks"

// isoMillis matches JavaScript's Date.prototype.toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z"

type Task struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"createdAt"`
}

// Created parses CreatedAt.
func (t Task) Created() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, t.CreatedAt)
}

func formatCreatedAt(now time.Time) string {
	return now.UTC().Format(isoMillis)
}
