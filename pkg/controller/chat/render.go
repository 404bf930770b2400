package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gjum/newsroom/pkg/domain/model"
	"github.com/gjum/newsroom/pkg/domain/types"
	"github.com/gjum/newsroom/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
)

// mrkdwn helpers. Slack treats &, < and > as markup delimiters, and
// formatting characters cannot be backslash-escaped, so formatting
// marks inside user text are stripped instead.

func escape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "*", "")
	return s
}

func escapeCodeSpan(s string) string {
	return strings.ReplaceAll(s, "`", "")
}

func italic(s string) string {
	return "_" + escape(s) + "_"
}

func bold(s string) string {
	return "*" + escape(s) + "*"
}

func codeSpan(s string) string {
	return "`" + escapeCodeSpan(s) + "`"
}

func mention(userID string) string {
	return "<@" + userID + ">"
}

// renderStory formats one story for a chat reply.
func renderStory(story *model.Story) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", bold(fmt.Sprintf("#%d", story.ID)), renderState(story.State), escape(story.Title))
	if story.Assignee != "" {
		fmt.Fprintf(&b, " (assigned to %s)", mention(story.Assignee))
	}
	if story.DuplicateOf != 0 {
		fmt.Fprintf(&b, " (duplicate of %s)", bold(fmt.Sprintf("#%d", story.DuplicateOf)))
	}
	if story.Content != "" {
		b.WriteString("\n")
		b.WriteString(escape(story.Content))
	}
	return b.String()
}

// renderStoryLine is the one-line list form.
func renderStoryLine(story *model.Story) string {
	line := fmt.Sprintf("%s %s %s", bold(fmt.Sprintf("#%d", story.ID)), renderState(story.State), escape(story.Title))
	if story.Assignee != "" {
		line += " (assigned to " + mention(story.Assignee) + ")"
	}
	return line
}

func renderState(state types.StoryState) string {
	switch state {
	case types.StoryStateIncomplete:
		return ":pencil2:"
	case types.StoryStateReady:
		return ":white_check_mark:"
	case types.StoryStatePublished:
		return ":newspaper:"
	case types.StoryStateDiscarded:
		return ":wastebasket:"
	default:
		return italic(state.String())
	}
}

func renderReview(review *model.Review) string {
	verdict := ":+1:"
	if !review.Accepted {
		verdict = ":-1:"
	}
	line := fmt.Sprintf("%s %s", verdict, mention(review.Reviewer))
	if review.Content != "" {
		line += " " + escape(review.Content)
	}
	return line
}

// describeError translates workflow errors into user-facing replies.
// Storage and transport failures deliberately stay vague.
func describeError(err error) string {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return "No such story."
	case errors.Is(err, model.ErrAlreadyAssigned):
		return "That story is already assigned to someone else."
	case errors.Is(err, model.ErrNotAssigned):
		return "That story is not assigned to anyone."
	case errors.Is(err, model.ErrInvalidTransition):
		if ge := goerr.Unwrap(err); ge != nil {
			values := ge.Values()
			from, fromOK := values["from"]
			to, toOK := values["to"]
			if fromOK && toOK {
				return fmt.Sprintf("That story is %v and cannot move to %v.", from, to)
			}
		}
		return "That story cannot change state like that."
	case errors.Is(err, model.ErrStorageUnavailable):
		return "The story store is unavailable right now. Try again in a moment."
	case errors.Is(err, usecase.ErrNoUnassignedStories):
		return "No unassigned stories right now."
	case errors.Is(err, usecase.ErrTitleRequired):
		return "A story needs a title."
	case errors.Is(err, usecase.ErrEmptyEdit):
		return "Nothing to change."
	default:
		return "Something went wrong while running your command."
	}
}
