package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gjum/newsroom/pkg/domain/model"
)

func (r *Registry) registerBuiltins() {
	r.Register(&Command{
		Usage:   "help [command]",
		Info:    "Show usage and examples for the command, or list all commands.",
		Handler: r.cmdHelp,
	})
	r.Register(&Command{
		Usage:    "submit <title>",
		Info:     "Submit a new story. Lines after the first become its content.",
		Examples: []string{"submit City council postpones vote\nThe vote was moved to next week after ..."},
		Handler:  r.cmdSubmit,
	})
	r.Register(&Command{
		Usage:   "next",
		Info:    "Claim the next unassigned story, oldest draft first.",
		Handler: r.cmdNext,
	})
	r.Register(&Command{
		Usage:    "edit <id> [title]",
		Info:     "Update a story's title and/or content. Lines after the first replace the content.",
		Examples: []string{"edit 12 Council vote postponed again\nNew intro paragraph here."},
		Handler:  r.cmdEdit,
	})
	r.Register(&Command{
		Usage:   "ready <id>",
		Info:    "Mark a story ready for review.",
		Handler: r.cmdReady,
	})
	r.Register(&Command{
		Usage:   "revise <id>",
		Info:    "Send a ready story back for more work.",
		Handler: r.cmdRevise,
	})
	r.Register(&Command{
		Usage:   "publish <id>",
		Info:    "Publish a ready story.",
		Handler: r.cmdPublish,
	})
	r.Register(&Command{
		Usage:    "discard <id> [duplicate-of]",
		Info:     "Discard a story, optionally linking the story it duplicates.",
		Examples: []string{"discard 15 12"},
		Handler:  r.cmdDiscard,
	})
	r.Register(&Command{
		Usage:    "review <id> <ok|needswork> [comment]",
		Info:     "Record a review verdict on a story.",
		Examples: []string{"review 12 ok tight lede, ship it", "review 12 needswork second source missing"},
		Handler:  r.cmdReview,
	})
	r.Register(&Command{
		Usage:   "queue",
		Info:    "List unassigned stories and stories awaiting review.",
		Handler: r.cmdQueue,
	})
	r.Register(&Command{
		Usage:   "show <id>",
		Info:    "Show a story with its reviews.",
		Handler: r.cmdShow,
	})
}

// parseStoryID parses a "#12" or "12" argument.
func parseStoryID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, Usagef("%s is not a story ID.", codeSpan(arg))
	}
	return id, nil
}

func (r *Registry) cmdHelp(ctx context.Context, ev MessageEvent, args []string, body string) error {
	if len(args) == 0 {
		return r.reply(ctx, ev, "Available commands:\n"+strings.Join(r.helpLines(ev.UserID), "\n"))
	}

	name := strings.ToLower(strings.TrimPrefix(args[0], r.prefix))
	cmd, ok := r.commands[name]
	if !ok {
		return r.reply(ctx, ev, "Unknown command: "+codeSpan(args[0]))
	}
	if !r.canBeUsedBy(ev.UserID, cmd) {
		return r.reply(ctx, ev, "No permission to use command: "+codeSpan(args[0]))
	}

	text := codeSpan(r.prefix+cmd.Usage) + " " + cmd.Info
	if len(cmd.Examples) > 0 {
		text += "\nExamples:\n    " + strings.ReplaceAll(strings.Join(cmd.Examples, "\n"), "\n", "\n    ")
	}
	return r.reply(ctx, ev, text)
}

func (r *Registry) cmdSubmit(ctx context.Context, ev MessageEvent, args []string, body string) error {
	if len(args) == 0 {
		return Usagef("A story needs a title.")
	}

	story, err := r.workflow.Submit(ctx, ev.UserID, strings.Join(args, " "), body)
	if err != nil {
		return err
	}
	return r.reply(ctx, ev, fmt.Sprintf("Submitted story %s.", bold(fmt.Sprintf("#%d", story.ID))))
}

func (r *Registry) cmdNext(ctx context.Context, ev MessageEvent, args []string, body string) error {
	story, err := r.workflow.AssignNext(ctx, ev.UserID)
	if err != nil {
		return err
	}
	return r.reply(ctx, ev, "You picked up:\n"+renderStory(story))
}

func (r *Registry) cmdEdit(ctx context.Context, ev MessageEvent, args []string, body string) error {
	if len(args) == 0 {
		return Usagef("Which story?")
	}
	id, err := parseStoryID(args[0])
	if err != nil {
		return err
	}

	var upd model.ContentUpdate
	if len(args) > 1 {
		title := strings.Join(args[1:], " ")
		upd.Title = &title
	}
	if body != "" {
		upd.Content = &body
	}

	story, err := r.workflow.Edit(ctx, id, upd)
	if err != nil {
		return err
	}
	return r.reply(ctx, ev, "Updated:\n"+renderStory(story))
}

func (r *Registry) cmdReady(ctx context.Context, ev MessageEvent, args []string, body string) error {
	if len(args) == 0 {
		return Usagef("Which story?")
	}
	id, err := parseStoryID(args[0])
	if err != nil {
		return err
	}

	story, err := r.workflow.MarkReady(ctx, id)
	if err != nil {
		return err
	}
	return r.reply(ctx, ev, fmt.Sprintf("Story %s is ready for review.", bold(fmt.Sprintf("#%d", story.ID))))
}

func (r *Registry) cmdRevise(ctx context.Context, ev MessageEvent, args []string, body string) error {
	if len(args) == 0 {
		return Usagef("Which story?")
	}
	id, err := parseStoryID(args[0])
	if err != nil {
		return err
	}

	story, err := r.workflow.SendBack(ctx, id)
	if err != nil {
		return err
	}
	return r.reply(ctx, ev, fmt.Sprintf("Story %s went back for revision.", bold(fmt.Sprintf("#%d", story.ID))))
}

func (r *Registry) cmdPublish(ctx context.Context, ev MessageEvent, args []string, body string) error {
	if len(args) == 0 {
		return Usagef("Which story?")
	}
	id, err := parseStoryID(args[0])
	if err != nil {
		return err
	}

	story, err := r.workflow.Publish(ctx, id)
	if err != nil {
		return err
	}
	return r.reply(ctx, ev, fmt.Sprintf(":newspaper: Published %s %s", bold(fmt.Sprintf("#%d", story.ID)), escape(story.Title)))
}

func (r *Registry) cmdDiscard(ctx context.Context, ev MessageEvent, args []string, body string) error {
	if len(args) == 0 {
		return Usagef("Which story?")
	}
	id, err := parseStoryID(args[0])
	if err != nil {
		return err
	}

	var duplicateOf int64
	if len(args) > 1 {
		if duplicateOf, err = parseStoryID(args[1]); err != nil {
			return err
		}
	}

	story, err := r.workflow.Discard(ctx, id, duplicateOf)
	if err != nil {
		return err
	}

	reply := fmt.Sprintf("Discarded %s.", bold(fmt.Sprintf("#%d", story.ID)))
	if story.DuplicateOf != 0 {
		reply = fmt.Sprintf("Discarded %s as a duplicate of %s.",
			bold(fmt.Sprintf("#%d", story.ID)), bold(fmt.Sprintf("#%d", story.DuplicateOf)))
	}
	return r.reply(ctx, ev, reply)
}

func (r *Registry) cmdReview(ctx context.Context, ev MessageEvent, args []string, body string) error {
	if len(args) < 2 {
		return Usagef("A review needs a story ID and a verdict.")
	}
	id, err := parseStoryID(args[0])
	if err != nil {
		return err
	}

	var accepted bool
	switch strings.ToLower(args[1]) {
	case "ok", "accept", "yes":
		accepted = true
	case "needswork", "reject", "no":
		accepted = false
	default:
		return Usagef("The verdict must be %s or %s.", codeSpan("ok"), codeSpan("needswork"))
	}

	comment := strings.Join(args[2:], " ")
	if body != "" {
		if comment != "" {
			comment += "\n"
		}
		comment += body
	}

	review, err := r.workflow.Review(ctx, id, ev.UserID, accepted, comment)
	if err != nil {
		return err
	}
	return r.reply(ctx, ev, fmt.Sprintf("Recorded review on %s: %s",
		bold(fmt.Sprintf("#%d", review.StoryID)), renderReview(review)))
}

func (r *Registry) cmdQueue(ctx context.Context, ev MessageEvent, args []string, body string) error {
	unassigned, err := r.workflow.ListUnassigned(ctx)
	if err != nil {
		return err
	}
	reviewable, err := r.workflow.ListReviewable(ctx, 0)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(bold("Unassigned") + "\n")
	if len(unassigned) == 0 {
		b.WriteString(italic("nothing waiting") + "\n")
	}
	for _, story := range unassigned {
		b.WriteString(renderStoryLine(story) + "\n")
	}

	b.WriteString(bold("Awaiting review") + "\n")
	if len(reviewable) == 0 {
		b.WriteString(italic("nothing waiting"))
	}
	for i, rs := range reviewable {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s (%d/%d reviews)", renderStoryLine(rs.Story), rs.ReviewCount, r.workflow.MaxReviews())
	}
	return r.reply(ctx, ev, strings.TrimRight(b.String(), "\n"))
}

func (r *Registry) cmdShow(ctx context.Context, ev MessageEvent, args []string, body string) error {
	if len(args) == 0 {
		return Usagef("Which story?")
	}
	id, err := parseStoryID(args[0])
	if err != nil {
		return err
	}

	story, err := r.workflow.Get(ctx, id)
	if err != nil {
		return err
	}
	reviews, err := r.workflow.Reviews(ctx, id)
	if err != nil {
		return err
	}

	text := renderStory(story)
	for _, review := range reviews {
		text += "\n" + renderReview(review)
	}
	return r.reply(ctx, ev, text)
}
