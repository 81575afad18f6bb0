package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/kazz187/todoguild/internal/attachment"
	"github.com/kazz187/todoguild/internal/extension"
	"github.com/kazz187/todoguild/internal/todo"
	"github.com/kazz187/todoguild/pkg/color"
)

const timeFormat = "2006-01-02 15:04"

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	return tw
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(timeFormat)
}

func statusText(t *todo.Task) string {
	s := string(t.Status)
	switch t.Status {
	case todo.StatusCompleted:
		s = color.Green(s)
	case todo.StatusExpired:
		s = color.Red(s)
	case todo.StatusInProgress:
		s = color.Yellow(s)
	}
	if t.Type == todo.TaskTypeAssignment && t.AssignmentStatus != "" {
		s += " / " + color.Cyan(string(t.AssignmentStatus))
	}
	return s
}

func dueText(t *todo.Task, now time.Time) string {
	if t.DueAt == nil {
		return "-"
	}
	s := formatTime(t.DueAt)
	if t.Status != todo.StatusCompleted && t.DueAt.Before(now) {
		return color.Red(s)
	}
	return s
}

func printTasks(w io.Writer, tasks []*todo.Task, actorID string, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No todos.")
		return
	}
	tw := newTable(w)
	tw.AppendHeader(table.Row{"ID", "Title", "Type", "Status", "Role", "Due", "Priority"})
	for _, t := range tasks {
		title := t.Title
		if t.PublishStatus == todo.PublishStatusDraft {
			title += " " + color.Faint("(draft)")
		}
		if t.VisibilityStatus == todo.VisibilityHidden {
			title += " " + color.Faint("(hidden)")
		}
		tw.AppendRow(table.Row{
			t.ID, title, string(t.Type), statusText(t),
			todo.Classify(t, actorID).String(), dueText(t, now), string(t.Priority),
		})
	}
	tw.Render()
}

func printTask(w io.Writer, t *todo.Task, caps todo.Capabilities) {
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(w, "%-12s %s\n", k+":", v)
		}
	}
	fmt.Fprintf(w, "%s %s\n", color.Bold(t.Title), color.Faint(t.ID))
	row("Owner", color.User(t.OwnerID))
	row("Type", string(t.Type))
	row("Status", statusText(t))
	row("Priority", string(t.Priority))
	row("Due", dueText(t, time.Now()))
	row("Publish", string(t.PublishStatus))
	row("Visibility", string(t.VisibilityStatus))
	if t.AssigneeID != "" {
		row("Assignee", color.User(t.AssigneeID))
	}
	row("Description", t.Description)
	row("Memo", t.AssigneeMemo)
	row("Notes", t.SubmissionNotes)
	if t.SubmittedAt != nil {
		row("Submitted", formatTime(t.SubmittedAt))
	}
	row("Assessment", t.Assessment)
	if t.Score != nil {
		row("Score", strconv.Itoa(*t.Score))
	}
	if t.IsDeleted {
		row("Deleted", formatTime(t.DeletedAt))
	}
	row("Role", caps.Role.String())
	row("Version", strconv.FormatInt(t.Version, 10))
}

func printViewers(w io.Writer, viewers []todo.Viewer) {
	if len(viewers) == 0 {
		fmt.Fprintln(w, "No viewers.")
		return
	}
	tw := newTable(w)
	tw.AppendHeader(table.Row{"User", "Memo"})
	for _, v := range viewers {
		tw.AppendRow(table.Row{color.User(v.UserID), v.PrivateMemo})
	}
	tw.Render()
}

func printEligibility(w io.Writer, e extension.Eligibility) {
	if e.Allowed {
		fmt.Fprintln(w, color.Green("An extension can be requested."))
		return
	}
	fmt.Fprintf(w, "%s %s\n", color.Red("Not allowed:"), e.Reason)
}

func printRequests(w io.Writer, requests []*extension.Request) {
	if len(requests) == 0 {
		fmt.Fprintln(w, "No extension requests.")
		return
	}
	tw := newTable(w)
	tw.AppendHeader(table.Row{"ID", "Requester", "Current due", "Proposed due", "Status", "Reason"})
	for _, r := range requests {
		status := string(r.Status)
		switch r.Status {
		case extension.StatusApproved:
			status = color.Green(status)
		case extension.StatusRejected:
			status = color.Red(status)
		}
		tw.AppendRow(table.Row{
			r.ID, color.User(r.RequesterID), formatTime(&r.CurrentDue), formatTime(&r.ProposedDue), status, r.Reason,
		})
	}
	tw.Render()
}

func printAttachments(w io.Writer, list []*attachment.Attachment) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No attachments.")
		return
	}
	tw := newTable(w)
	tw.AppendHeader(table.Row{"ID", "Filename", "Type", "Size", "Uploader", "Uploaded"})
	for _, a := range list {
		tw.AppendRow(table.Row{
			a.ID, a.Filename, a.ContentType, strconv.FormatInt(a.Size, 10), color.User(a.UploaderID), formatTime(&a.CreatedAt),
		})
	}
	tw.Render()
}
