package attachment

import (
	"time"

	"github.com/google/uuid"
)

// Attachment is the metadata of one file attached to a task. The body lives
// next to it in blob storage.
type Attachment struct {
	ID          string    `yaml:"id" json:"id"`
	TaskID      string    `yaml:"task_id" json:"task_id"`
	UploaderID  string    `yaml:"uploader_id" json:"uploader_id"`
	Filename    string    `yaml:"filename" json:"filename"`
	ContentType string    `yaml:"content_type" json:"content_type"`
	Size        int64     `yaml:"size" json:"size"`
	CreatedAt   time.Time `yaml:"created_at" json:"created_at"`
}

type ListResponse struct {
	Attachments []*Attachment `json:"attachments"`
}

type Response struct {
	Attachment *Attachment `json:"attachment"`
}

// newID returns a time-ordered id so listings sort by upload order.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}
