package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gjum/newsroom/pkg/cli/config"
	"github.com/m-mizutani/gt"
)

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadPolicy(t *testing.T) {
	n := config.NewNewsroomForTest("C_STAR", 0, writePolicy(t, `
max_reviews = 5
command_prefix = "newsroom "
extra_star_emoji = ["party-parrot", "tada"]
`))

	policy := gt.R1(n.LoadPolicy()).NoError(t)
	gt.Value(t, policy.MaxReviews).Equal(5)
	gt.Value(t, policy.CommandPrefix).Equal("newsroom ")
	gt.A(t, policy.ExtraStarEmoji).Length(2)
}

func TestLoadPolicyDefaults(t *testing.T) {
	n := config.NewNewsroomForTest("", 0, "")

	// no policy file configured at all
	policy := gt.R1(n.LoadPolicy()).NoError(t)
	gt.Value(t, policy.MaxReviews).Equal(0)
	gt.Value(t, policy.CommandPrefix).Equal("")
	gt.A(t, policy.ExtraStarEmoji).Length(0)
}

func TestLoadPolicyMissingFile(t *testing.T) {
	n := config.NewNewsroomForTest("", 0, filepath.Join(t.TempDir(), "nope.toml"))
	_, err := n.LoadPolicy()
	gt.Error(t, err)
}

func TestLoadPolicyValidation(t *testing.T) {
	cases := map[string]string{
		"negative quota":   `max_reviews = -1`,
		"empty emoji name": `extra_star_emoji = [""]`,
		"emoji with colon": `extra_star_emoji = [":star:"]`,
		"broken toml":      `max_reviews = `,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			n := config.NewNewsroomForTest("", 0, writePolicy(t, content))
			_, err := n.LoadPolicy()
			gt.Error(t, err)
		})
	}
}

func TestLoggerConfigure(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		closer := gt.R1(config.NewLoggerForTest("debug", "json", "stderr").Configure()).NoError(t)
		closer()
	})

	t.Run("defaults", func(t *testing.T) {
		closer := gt.R1(config.NewLoggerForTest("", "", "").Configure()).NoError(t)
		closer()
	})

	t.Run("bad level", func(t *testing.T) {
		_, err := config.NewLoggerForTest("loud", "console", "stdout").Configure()
		gt.Error(t, err)
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := config.NewLoggerForTest("info", "xml", "stdout").Configure()
		gt.Error(t, err)
	})

	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "newsroom.log")
		closer := gt.R1(config.NewLoggerForTest("info", "json", path).Configure()).NoError(t)
		closer()
		gt.R1(os.Stat(path)).NoError(t)
	})
}

func TestSlackConfigureRequiresCredentials(t *testing.T) {
	ctx := context.Background()

	_, err := config.NewSlackForTest("", "sekrit").Configure(ctx)
	gt.Error(t, err)

	_, err = config.NewSlackForTest("xoxb-test", "").Configure(ctx)
	gt.Error(t, err)

	s := config.NewSlackForTest("xoxb-test", "sekrit")
	gt.B(t, s.IsConfigured()).True()
	gt.B(t, s.IsWebhookConfigured()).True()
	gt.Value(t, s.BotToken()).Equal("xoxb-test")
	gt.Value(t, s.SigningSecret()).Equal("sekrit")
}

func TestRepositoryConfigure(t *testing.T) {
	ctx := context.Background()

	repo := gt.R1(config.NewRepositoryForTest("memory", "", "").Configure(ctx)).NoError(t)
	gt.NoError(t, repo.Close())

	// firestore backend requires the project ID up front
	_, err := config.NewRepositoryForTest("firestore", "", "").Configure(ctx)
	gt.Error(t, err)

	_, err = config.NewRepositoryForTest("sqlite", "", "").Configure(ctx)
	gt.Error(t, err)
}
