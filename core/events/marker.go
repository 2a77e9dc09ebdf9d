package events

import "time"

// MarkerOp is the kind of change a MarkerEvent describes.
type MarkerOp string

const (
	MarkerAdded   MarkerOp = "added"
	MarkerRemoved MarkerOp = "removed"
)

// MarkerEvent is published for every marker added or removed by a manager.
// It is a flattened copy so subscribers never hold live schedule pointers.
type MarkerEvent struct {
	Op         MarkerOp  `json:"op"`
	ID         string    `json:"id"`
	Schedule   string    `json:"schedule"`
	Source     string    `json:"source"`
	Severity   string    `json:"severity"`
	Message    string    `json:"message"`
	TargetKind string    `json:"target_kind"`
	Target     string    `json:"target"`
	Ephemeral  bool      `json:"ephemeral"`
	Time       time.Time `json:"time"`
}
