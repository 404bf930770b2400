// Package chat maps chat messages onto the editorial workflow. The
// command set is closed: commands are registered at construction and
// dispatched through a single registry.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	slacksvc "github.com/gjum/newsroom/pkg/service/slack"
	"github.com/gjum/newsroom/pkg/usecase"
	"github.com/gjum/newsroom/pkg/utils/errutil"
	"github.com/gjum/newsroom/pkg/utils/logging"
)

// DefaultPrefix marks command messages in shared channels.
const DefaultPrefix = "!"

// MessageEvent is one inbound chat message.
type MessageEvent struct {
	ChannelID string
	UserID    string
	Text      string
}

// IsDirect reports whether the message arrived in a direct-message
// channel, where the command prefix may be omitted.
func (ev MessageEvent) IsDirect() bool {
	return strings.HasPrefix(ev.ChannelID, "D")
}

// HandlerFunc runs one command. args holds the whitespace-split first
// line after the command name; body holds the remaining message lines.
type HandlerFunc func(ctx context.Context, ev MessageEvent, args []string, body string) error

// Command is one registered chat command.
type Command struct {
	Usage    string
	Info     string
	Examples []string
	Handler  HandlerFunc
}

// Name returns the command keyword, the first token of Usage.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return strings.ToLower(name)
}

// UsageError signals that the user invoked a command with bad arguments.
// The reply includes the command's usage line.
type UsageError struct {
	msg string
}

func (e *UsageError) Error() string {
	return e.msg
}

// Usagef builds a UsageError.
func Usagef(format string, args ...any) error {
	return &UsageError{msg: fmt.Sprintf(format, args...)}
}

// Registry dispatches chat messages to commands.
type Registry struct {
	prefix   string
	slack    slacksvc.Service
	workflow *usecase.WorkflowUseCase
	commands map[string]*Command
}

type RegistryOption func(*Registry)

// WithPrefix overrides the command prefix.
func WithPrefix(prefix string) RegistryOption {
	return func(r *Registry) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// NewRegistry builds the registry with the built-in command set.
func NewRegistry(svc slacksvc.Service, workflow *usecase.WorkflowUseCase, opts ...RegistryOption) *Registry {
	r := &Registry{
		prefix:   DefaultPrefix,
		slack:    svc,
		workflow: workflow,
		commands: make(map[string]*Command),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.registerBuiltins()
	return r
}

// Register adds a command, replacing any with the same name.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name()] = cmd
}

// canBeUsedBy is the permission predicate. Everyone is admitted until a
// role model exists.
func (r *Registry) canBeUsedBy(userID string, cmd *Command) bool {
	return true
}

// HandleMessage parses one message and runs the matching command. Non
// commands are ignored silently; in shared channels only prefixed
// messages are considered at all.
func (r *Registry) HandleMessage(ctx context.Context, ev MessageEvent) error {
	text := ev.Text
	hasPrefix := strings.HasPrefix(text, r.prefix)
	if !ev.IsDirect() && !hasPrefix {
		return nil
	}
	if hasPrefix {
		text = text[len(r.prefix):]
	}

	cmdLine, body, _ := strings.Cut(text, "\n")
	parts := strings.Fields(cmdLine)
	if len(parts) == 0 {
		return nil
	}

	cmd, ok := r.commands[strings.ToLower(parts[0])]
	if !ok {
		// a bare one-character prefix matches too much ordinary chatter
		// to warrant a reply; wordy prefixes get the hint
		if strings.Contains(r.prefix, " ") || ev.IsDirect() {
			return r.reply(ctx, ev, ":warning: Unknown command: "+codeSpan(cmdLine)+
				" Try "+codeSpan(r.prefix+"help")+" for a list of available commands.")
		}
		return nil
	}
	if !r.canBeUsedBy(ev.UserID, cmd) {
		return r.reply(ctx, ev, ":warning: No permission to use command: "+codeSpan(cmdLine))
	}

	err := cmd.Handler(ctx, ev, parts[1:], strings.TrimSpace(body))
	if err != nil {
		var usageErr *UsageError
		if errors.As(err, &usageErr) {
			return r.reply(ctx, ev, ":warning: "+usageErr.Error()+
				" Usage: "+codeSpan(r.prefix+cmd.Usage))
		}
		errutil.Handle(ctx, err, "command failed")
		return r.reply(ctx, ev, ":warning: "+describeError(err))
	}

	logging.From(ctx).Info("ran chat command",
		"command", cmd.Name(),
		"user_id", ev.UserID,
		"channel_id", ev.ChannelID)
	return nil
}

func (r *Registry) reply(ctx context.Context, ev MessageEvent, text string) error {
	return r.slack.PostMessage(ctx, ev.ChannelID, text)
}

// helpLines renders one usage+info line per command the user may run,
// sorted and deduplicated.
func (r *Registry) helpLines(userID string) []string {
	var lines []string
	seen := make(map[string]bool)
	for _, cmd := range r.commands {
		if !r.canBeUsedBy(userID, cmd) {
			continue
		}
		line := codeSpan(r.prefix+cmd.Usage) + " " + cmd.Info
		if !seen[line] {
			seen[line] = true
			lines = append(lines, line)
		}
	}
	sort.Strings(lines)
	return lines
}
