// Package usecase holds the application logic: the editorial workflow,
// the star-board promotion engine, and the one-shot reaction registry.
package usecase

import (
	"github.com/gjum/newsroom/pkg/domain/interfaces"
	slacksvc "github.com/gjum/newsroom/pkg/service/slack"
)

// UseCases bundles the application services for the controllers.
type UseCases struct {
	Workflow  *WorkflowUseCase
	Starboard *StarboardUseCase
	Reactions *ReactionRegistry
}

type Option func(*options)

type options struct {
	maxReviews    int
	starChannelID string
	starboardOpts []StarboardOption
}

// WithMaxReviews sets the review quota used by reviewable-story selection.
func WithMaxReviews(n int) Option {
	return func(o *options) {
		o.maxReviews = n
	}
}

// WithStarChannel sets the destination channel for promoted messages.
func WithStarChannel(channelID string) Option {
	return func(o *options) {
		o.starChannelID = channelID
	}
}

// WithStarboardOptions forwards options to the promotion engine.
func WithStarboardOptions(opts ...StarboardOption) Option {
	return func(o *options) {
		o.starboardOpts = append(o.starboardOpts, opts...)
	}
}

// New wires the use cases against a repository and a chat service.
func New(repo interfaces.Repository, svc slacksvc.Service, opts ...Option) *UseCases {
	o := &options{
		maxReviews: DefaultMaxReviews,
	}
	for _, opt := range opts {
		opt(o)
	}

	reactions := NewReactionRegistry()
	return &UseCases{
		Workflow:  NewWorkflowUseCase(repo, o.maxReviews),
		Starboard: NewStarboardUseCase(svc, reactions, o.starChannelID, o.starboardOpts...),
		Reactions: reactions,
	}
}
