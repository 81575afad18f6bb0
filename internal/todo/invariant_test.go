package todo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kazz187/todoguild/pkg/cerr"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(task *Task)
		reason string
	}{
		{name: "valid", mutate: func(*Task) {}},
		{
			name: "regular with assignee",
			mutate: func(task *Task) {
				task.Type = TaskTypeRegular
				task.VisibilityStatus = ""
				task.AssignmentStatus = ""
			},
			reason: "regular tasks cannot have an assignee",
		},
		{
			name: "regular with visibility",
			mutate: func(task *Task) {
				task.Type = TaskTypeRegular
				task.AssigneeID = ""
				task.AssignmentStatus = ""
			},
			reason: "regular tasks cannot have a visibility status",
		},
		{
			name:   "assignee is viewer",
			mutate: func(task *Task) { task.Viewers = append(task.Viewers, Viewer{UserID: "alice"}) },
			reason: "the assignee cannot be a viewer",
		},
		{
			name:   "owner is viewer",
			mutate: func(task *Task) { task.Viewers = append(task.Viewers, Viewer{UserID: "owner"}) },
			reason: "the owner cannot be a viewer",
		},
		{
			name:   "duplicate viewer",
			mutate: func(task *Task) { task.Viewers = append(task.Viewers, Viewer{UserID: "vic"}) },
			reason: `duplicate viewer "vic"`,
		},
		{
			name:   "score without review",
			mutate: func(task *Task) { task.Score = ptr(50) },
			reason: "assessment and score can only be set by a review decision",
		},
		{
			name: "score out of range",
			mutate: func(task *Task) {
				task.AssignmentStatus = AssignmentApproved
				task.ReviewedAt = ptr(t0)
				task.Score = ptr(101)
			},
			reason: "score must be between 0 and 100",
		},
		{
			name:   "reviewed without timestamp",
			mutate: func(task *Task) { task.AssignmentStatus = AssignmentRejected },
			reason: "reviewed assignments must have reviewed_at",
		},
		{
			name:   "completed without stamp",
			mutate: func(task *Task) { task.Status = StatusCompleted },
			reason: "completed_at must be set exactly when the task is completed",
		},
		{
			name:   "deleted without stamp",
			mutate: func(task *Task) { task.IsDeleted = true },
			reason: "deleted_at must be set exactly when the task is deleted",
		},
		{
			name:   "unknown assignment status",
			mutate: func(task *Task) { task.AssignmentStatus = "graded" },
			reason: `invalid assignment status "graded"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := newAssignment(t)
			tt.mutate(task)
			err := Validate(task)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			requireReason(t, err, cerr.InvalidArgument, tt.reason)
		})
	}
}

func TestClone(t *testing.T) {
	task := must(t)(Review(must(t)(Submit(newAssignment(t), "alice", "", t0)), "owner",
		Decision{Outcome: AssignmentApproved, Score: ptr(80)}, t0))
	c := task.Clone()
	*c.Score = 10
	c.Viewers[0].PrivateMemo = "x"
	*c.ReviewedAt = t0.AddDate(1, 0, 0)

	assert.Equal(t, 80, *task.Score)
	assert.Empty(t, task.Viewers[0].PrivateMemo)
	assert.Equal(t, t0, *task.ReviewedAt)
}
