package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/gjum/newsroom/pkg/cli/config"
	"github.com/gjum/newsroom/pkg/controller/chat"
	httpctrl "github.com/gjum/newsroom/pkg/controller/http"
	"github.com/gjum/newsroom/pkg/usecase"
	"github.com/gjum/newsroom/pkg/utils/logging"
	"github.com/gjum/newsroom/pkg/utils/safe"
)

func cmdServe() *cli.Command {
	var addr string
	var repoCfg config.Repository
	var slackCfg config.Slack
	var newsroomCfg config.Newsroom

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("NEWSROOM_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, newsroomCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the bot's HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			policy, err := newsroomCfg.LoadPolicy()
			if err != nil {
				return goerr.Wrap(err, "failed to load editorial policy")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			slackSvc, err := slackCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure slack service")
			}

			ucOpts := []usecase.Option{
				usecase.WithStarChannel(newsroomCfg.StarChannelID()),
			}
			if policy.MaxReviews > 0 {
				ucOpts = append(ucOpts, usecase.WithMaxReviews(policy.MaxReviews))
			}
			var starOpts []usecase.StarboardOption
			if newsroomCfg.StarThreshold() > 0 {
				starOpts = append(starOpts, usecase.WithStarThreshold(newsroomCfg.StarThreshold()))
			}
			if len(policy.ExtraStarEmoji) > 0 {
				starOpts = append(starOpts, usecase.WithExtraEmoji(policy.ExtraStarEmoji))
			}
			if len(starOpts) > 0 {
				ucOpts = append(ucOpts, usecase.WithStarboardOptions(starOpts...))
			}

			ucs := usecase.New(repo, slackSvc, ucOpts...)

			var registryOpts []chat.RegistryOption
			if policy.CommandPrefix != "" {
				registryOpts = append(registryOpts, chat.WithPrefix(policy.CommandPrefix))
			}
			registry := chat.NewRegistry(slackSvc, ucs.Workflow, registryOpts...)

			webhook := httpctrl.NewSlackWebhookHandler(registry, ucs.Starboard)
			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(httpctrl.WithSlackWebhook(webhook, slackCfg.SigningSecret())),
				ReadHeaderTimeout: 30 * time.Second,
			}

			if newsroomCfg.StarChannelID() == "" {
				logging.Default().Warn("star channel not configured, promotion disabled")
			}

			sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			eg, egCtx := errgroup.WithContext(sigCtx)
			eg.Go(func() error {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return goerr.Wrap(err, "failed to serve")
				}
				return nil
			})
			eg.Go(func() error {
				<-egCtx.Done()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				logging.Default().Info("Server shutdown completed")
				return nil
			})

			return eg.Wait()
		},
	}
}
