package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/kazz187/todoguild/internal/attachment"
	"github.com/kazz187/todoguild/internal/auth"
	"github.com/kazz187/todoguild/internal/client"
	"github.com/kazz187/todoguild/internal/config"
	"github.com/kazz187/todoguild/internal/extension"
	"github.com/kazz187/todoguild/internal/todo"
	"github.com/kazz187/todoguild/pkg/cerr"
)

var (
	app = kingpin.New("todoguild", "Manage todos and assignments on a todoguild server")

	tokenCmd    = app.Command("token", "Issue a bearer token for a user")
	tokenUser   = tokenCmd.Arg("user", "User ID").Required().String()
	tokenSecret = tokenCmd.Flag("secret", "JWT signing secret").Envar("TODOGUILD_JWT_SECRET").Required().String()
	tokenIssuer = tokenCmd.Flag("issuer", "JWT issuer").Envar("TODOGUILD_JWT_ISSUER").Default("todoguild").String()
	tokenTTL    = tokenCmd.Flag("ttl", "Token lifetime").Default("720h").Duration()

	// Task commands
	createCmd         = app.Command("create", "Create a todo")
	createTitle       = createCmd.Arg("title", "Title").Required().String()
	createDescription = createCmd.Flag("description", "Description").Short('d').String()
	createDue         = createCmd.Flag("due", "Due date (2006-01-02, 2006-01-02 15:04 or RFC3339)").String()
	createPriority    = createCmd.Flag("priority", "Priority").Default("mid").Enum("low", "mid", "high")
	createType        = createCmd.Flag("type", "Task type").Default("regular").Enum("regular", "assignment")
	createDraft       = createCmd.Flag("draft", "Create as draft").Bool()
	createHidden      = createCmd.Flag("hidden", "Create hidden").Bool()
	createAssignee    = createCmd.Flag("assignee", "Assignee user ID").String()
	createMemo        = createCmd.Flag("memo", "Assignee memo").String()
	createViewers     = createCmd.Flag("viewer", "Viewer user ID (repeatable)").Strings()

	listCmd     = app.Command("list", "List todos you can see")
	listView    = listCmd.Flag("view", "Active or deleted todos").Default("active").Enum("active", "deleted")
	listStatus  = listCmd.Flag("status", "Status").Enum("pending", "in_progress", "completed", "expired")
	listType    = listCmd.Flag("type", "Task type").Enum("regular", "assignment")
	listRole    = listCmd.Flag("role", "Your role").Enum("owner", "assignee", "viewer")
	listExpired = listCmd.Flag("expired", "Only overdue todos").Bool()

	showCmd = app.Command("show", "Show a todo")
	showID  = showCmd.Arg("id", "Todo ID").Required().String()

	editCmd         = app.Command("edit", "Edit a todo")
	editID          = editCmd.Arg("id", "Todo ID").Required().String()
	editTitle       = editCmd.Flag("title", "Title").IsSetByUser(&editTitleSet).String()
	editDescription = editCmd.Flag("description", "Description").IsSetByUser(&editDescriptionSet).String()
	editMemo        = editCmd.Flag("memo", "Assignee memo").IsSetByUser(&editMemoSet).String()
	editDue         = editCmd.Flag("due", "Due date").String()
	editClearDue    = editCmd.Flag("clear-due", "Remove the due date").Bool()
	editPriority    = editCmd.Flag("priority", "Priority").Enum("low", "mid", "high")
	editAssignee    = editCmd.Flag("assignee", "Assignee user ID").IsSetByUser(&editAssigneeSet).String()

	editTitleSet, editDescriptionSet, editMemoSet, editAssigneeSet bool

	startCmd = app.Command("start", "Move a todo to in_progress")
	startID  = startCmd.Arg("id", "Todo ID").Required().String()

	completeCmd = app.Command("complete", "Complete a todo")
	completeID  = completeCmd.Arg("id", "Todo ID").Required().String()

	reopenCmd    = app.Command("reopen", "Reopen a completed todo")
	reopenID     = reopenCmd.Arg("id", "Todo ID").Required().String()
	reopenTarget = reopenCmd.Flag("to", "Status to reopen to").Default("pending").Enum("pending", "in_progress")

	deleteCmd = app.Command("delete", "Move a todo to the trash")
	deleteID  = deleteCmd.Arg("id", "Todo ID").Required().String()

	restoreCmd = app.Command("restore", "Restore a todo from the trash")
	restoreID  = restoreCmd.Arg("id", "Todo ID").Required().String()

	publishCmd = app.Command("publish", "Publish a draft")
	publishID  = publishCmd.Arg("id", "Todo ID").Required().String()

	unpublishCmd = app.Command("unpublish", "Return a todo to draft")
	unpublishID  = unpublishCmd.Arg("id", "Todo ID").Required().String()

	visibilityCmd   = app.Command("visibility", "Hide or show an assignment")
	visibilityID    = visibilityCmd.Arg("id", "Todo ID").Required().String()
	visibilityValue = visibilityCmd.Arg("value", "Visibility").Required().Enum("visible", "hidden")

	// Assignment commands
	beginCmd = app.Command("begin", "Begin work on an assignment")
	beginID  = beginCmd.Arg("id", "Todo ID").Required().String()

	submitCmd   = app.Command("submit", "Submit an assignment")
	submitID    = submitCmd.Arg("id", "Todo ID").Required().String()
	submitNotes = submitCmd.Flag("notes", "Submission notes").Short('n').String()

	openReviewCmd = app.Command("open-review", "Start reviewing a submission")
	openReviewID  = openReviewCmd.Arg("id", "Todo ID").Required().String()

	reviewCmd        = app.Command("review", "Approve or reject a submission")
	reviewID         = reviewCmd.Arg("id", "Todo ID").Required().String()
	reviewOutcome    = reviewCmd.Arg("outcome", "Outcome").Required().Enum("approved", "rejected")
	reviewAssessment = reviewCmd.Flag("assessment", "Assessment").String()
	reviewScore      = reviewCmd.Flag("score", "Score (0-100)").IsSetByUser(&reviewScoreSet).Int()

	reviewScoreSet bool

	// Viewer commands
	viewerCmd = app.Command("viewer", "Viewer management commands")

	viewerAddCmd  = viewerCmd.Command("add", "Grant a user view access")
	viewerAddID   = viewerAddCmd.Arg("id", "Todo ID").Required().String()
	viewerAddUser = viewerAddCmd.Arg("user", "User ID").Required().String()

	viewerRemoveCmd  = viewerCmd.Command("remove", "Revoke a viewer")
	viewerRemoveID   = viewerRemoveCmd.Arg("id", "Todo ID").Required().String()
	viewerRemoveUser = viewerRemoveCmd.Arg("user", "User ID").Required().String()

	viewerListCmd = viewerCmd.Command("list", "List viewers")
	viewerListID  = viewerListCmd.Arg("id", "Todo ID").Required().String()

	viewerMemoCmd  = viewerCmd.Command("memo", "Set your private memo as a viewer")
	viewerMemoID   = viewerMemoCmd.Arg("id", "Todo ID").Required().String()
	viewerMemoText = viewerMemoCmd.Arg("memo", "Memo").Required().String()

	// Extension commands
	extensionCmd = app.Command("extension", "Deadline extension commands")

	extensionCheckCmd = extensionCmd.Command("check", "Check whether an extension can be requested")
	extensionCheckID  = extensionCheckCmd.Arg("id", "Todo ID").Required().String()
	extensionCheckDue = extensionCheckCmd.Arg("due", "Proposed due date").Required().String()

	extensionRequestCmd    = extensionCmd.Command("request", "Request an extension")
	extensionRequestID     = extensionRequestCmd.Arg("id", "Todo ID").Required().String()
	extensionRequestDue    = extensionRequestCmd.Arg("due", "Proposed due date").Required().String()
	extensionRequestReason = extensionRequestCmd.Flag("reason", "Reason").Short('r').String()

	extensionListCmd = extensionCmd.Command("list", "List extension requests of a todo")
	extensionListID  = extensionListCmd.Arg("id", "Todo ID").Required().String()

	extensionResolveCmd      = extensionCmd.Command("resolve", "Approve or reject an extension request")
	extensionResolveID       = extensionResolveCmd.Arg("request-id", "Extension request ID").Required().String()
	extensionResolveDecision = extensionResolveCmd.Arg("decision", "Decision").Required().Enum("approved", "rejected")

	// Attachment commands
	attachmentCmd = app.Command("attachment", "Attachment commands")

	attachmentListCmd = attachmentCmd.Command("list", "List attachments of a todo")
	attachmentListID  = attachmentListCmd.Arg("id", "Todo ID").Required().String()

	attachmentUploadCmd  = attachmentCmd.Command("upload", "Upload a file")
	attachmentUploadID   = attachmentUploadCmd.Arg("id", "Todo ID").Required().String()
	attachmentUploadFile = attachmentUploadCmd.Arg("file", "File to upload").Required().ExistingFile()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == tokenCmd.FullCommand() {
		token, err := auth.NewIssuer(*tokenSecret, *tokenIssuer, *tokenTTL).Issue(*tokenUser, time.Now())
		if err != nil {
			fail(err)
		}
		fmt.Println(token)
		return
	}

	env, err := config.LoadClientEnv()
	if err != nil {
		fail(err)
	}
	actorID, err := auth.SubjectOf(env.Token)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Set TODOGUILD_TOKEN (see 'todoguild token').")
		fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := client.New(&http.Client{Timeout: env.Timeout}, env.ServerURL, env.Token)
	s := client.NewSession(c, actorID)
	if err := dispatch(ctx, s, command); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", cerr.Reason(err))
	os.Exit(1)
}

func dispatch(ctx context.Context, s *client.Session, command string) error {
	show := func(t *todo.Task, err error) error {
		if err != nil {
			return err
		}
		printTask(os.Stdout, t, s.Capabilities(t.ID))
		return nil
	}

	switch command {
	case createCmd.FullCommand():
		p, err := createParams()
		if err != nil {
			return err
		}
		return show(s.Create(ctx, p))

	case listCmd.FullCommand():
		tasks, err := s.Refresh(ctx, todo.Filter{
			View:        todo.View(*listView),
			Status:      todo.Status(*listStatus),
			Type:        todo.TaskType(*listType),
			Role:        todo.ParseRole(*listRole),
			ExpiredOnly: *listExpired,
		})
		if err != nil {
			return err
		}
		printTasks(os.Stdout, tasks, s.ActorID(), time.Now())
		return nil

	case showCmd.FullCommand():
		return show(s.Load(ctx, *showID))

	case editCmd.FullCommand():
		p, err := editPatch()
		if err != nil {
			return err
		}
		return show(s.Update(ctx, *editID, p))

	case startCmd.FullCommand():
		return show(s.Start(ctx, *startID))
	case completeCmd.FullCommand():
		return show(s.Complete(ctx, *completeID))
	case reopenCmd.FullCommand():
		return show(s.Reopen(ctx, *reopenID, todo.Status(*reopenTarget)))
	case deleteCmd.FullCommand():
		return show(s.Delete(ctx, *deleteID))
	case restoreCmd.FullCommand():
		return show(s.Restore(ctx, *restoreID))
	case publishCmd.FullCommand():
		return show(s.Publish(ctx, *publishID))
	case unpublishCmd.FullCommand():
		return show(s.Unpublish(ctx, *unpublishID))
	case visibilityCmd.FullCommand():
		return show(s.SetVisibility(ctx, *visibilityID, todo.VisibilityStatus(*visibilityValue)))

	case beginCmd.FullCommand():
		return show(s.BeginWork(ctx, *beginID))
	case submitCmd.FullCommand():
		return show(s.Submit(ctx, *submitID, *submitNotes))
	case openReviewCmd.FullCommand():
		return show(s.OpenReview(ctx, *openReviewID))
	case reviewCmd.FullCommand():
		d := todo.Decision{
			Outcome:    todo.AssignmentStatus(*reviewOutcome),
			Assessment: *reviewAssessment,
		}
		if reviewScoreSet {
			d.Score = reviewScore
		}
		return show(s.Review(ctx, *reviewID, d))

	case viewerAddCmd.FullCommand():
		return show(s.AddViewer(ctx, *viewerAddID, *viewerAddUser))
	case viewerRemoveCmd.FullCommand():
		return show(s.RemoveViewer(ctx, *viewerRemoveID, *viewerRemoveUser))
	case viewerMemoCmd.FullCommand():
		return show(s.UpdateMemo(ctx, *viewerMemoID, *viewerMemoText))
	case viewerListCmd.FullCommand():
		viewers, err := s.Viewers(ctx, *viewerListID)
		if err != nil {
			return err
		}
		printViewers(os.Stdout, viewers)
		return nil

	case extensionCheckCmd.FullCommand():
		due, err := parseTime(*extensionCheckDue)
		if err != nil {
			return err
		}
		e, err := s.CheckExtension(ctx, *extensionCheckID, due)
		if err != nil {
			return err
		}
		printEligibility(os.Stdout, e)
		return nil
	case extensionRequestCmd.FullCommand():
		due, err := parseTime(*extensionRequestDue)
		if err != nil {
			return err
		}
		r, err := s.RequestExtension(ctx, *extensionRequestID, due, *extensionRequestReason)
		if err != nil {
			return err
		}
		printRequests(os.Stdout, []*extension.Request{r})
		return nil
	case extensionListCmd.FullCommand():
		requests, err := s.ExtensionRequests(ctx, *extensionListID)
		if err != nil {
			return err
		}
		printRequests(os.Stdout, requests)
		return nil
	case extensionResolveCmd.FullCommand():
		r, t, err := s.ResolveExtension(ctx, *extensionResolveID, extension.Status(*extensionResolveDecision))
		if err != nil {
			return err
		}
		printRequests(os.Stdout, []*extension.Request{r})
		if t != nil {
			printTask(os.Stdout, t, s.Capabilities(t.ID))
		}
		return nil

	case attachmentListCmd.FullCommand():
		list, err := s.Attachments(ctx, *attachmentListID)
		if err != nil {
			return err
		}
		printAttachments(os.Stdout, list)
		return nil
	case attachmentUploadCmd.FullCommand():
		f, err := os.Open(*attachmentUploadFile)
		if err != nil {
			return err
		}
		defer f.Close()
		a, err := s.Upload(ctx, *attachmentUploadID, filepath.Base(f.Name()), f)
		if err != nil {
			return err
		}
		printAttachments(os.Stdout, []*attachment.Attachment{a})
		return nil
	}
	return fmt.Errorf("unknown command %q", command)
}

func createParams() (todo.CreateParams, error) {
	p := todo.CreateParams{
		Title:         *createTitle,
		Description:   *createDescription,
		AssigneeMemo:  *createMemo,
		Priority:      todo.Priority(*createPriority),
		Type:          todo.TaskType(*createType),
		PublishStatus: todo.PublishStatusPublished,
		Visibility:    todo.VisibilityVisible,
		AssigneeID:    *createAssignee,
		Viewers:       *createViewers,
	}
	if *createDraft {
		p.PublishStatus = todo.PublishStatusDraft
	}
	if *createHidden {
		p.Visibility = todo.VisibilityHidden
	}
	if *createDue != "" {
		due, err := parseTime(*createDue)
		if err != nil {
			return p, err
		}
		p.DueAt = &due
	}
	return p, nil
}

func editPatch() (todo.Patch, error) {
	var p todo.Patch
	if editTitleSet {
		p.Title = editTitle
	}
	if editDescriptionSet {
		p.Description = editDescription
	}
	if editMemoSet {
		p.AssigneeMemo = editMemo
	}
	if editAssigneeSet {
		p.AssigneeID = editAssignee
	}
	if *editPriority != "" {
		pr := todo.Priority(*editPriority)
		p.Priority = &pr
	}
	p.ClearDue = *editClearDue
	if *editDue != "" {
		if p.ClearDue {
			return p, cerr.Validation("--due and --clear-due are exclusive")
		}
		due, err := parseTime(*editDue)
		if err != nil {
			return p, err
		}
		p.DueAt = &due
	}
	return p, nil
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTime reads local wall-clock times unless the value carries a zone.
func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, cerr.Validation(fmt.Sprintf("invalid date %q", s))
}
