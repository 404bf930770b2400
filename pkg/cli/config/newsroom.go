package config

import (
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Newsroom holds CLI flags for the editorial workflow itself.
type Newsroom struct {
	starChannelID string
	starThreshold int
	policyPath    string
}

// Flags returns CLI flags for newsroom configuration
func (n *Newsroom) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "star-channel-id",
			Usage:       "Channel ID where popular messages get cross-posted (empty disables promotion)",
			Category:    "Newsroom",
			Sources:     cli.EnvVars("NEWSROOM_STAR_CHANNEL_ID"),
			Destination: &n.starChannelID,
		},
		&cli.IntFlag{
			Name:        "star-threshold",
			Usage:       "Reaction count that triggers promotion",
			Category:    "Newsroom",
			Value:       0,
			Sources:     cli.EnvVars("NEWSROOM_STAR_THRESHOLD"),
			Destination: &n.starThreshold,
		},
		&cli.StringFlag{
			Name:        "policy",
			Usage:       "Path to the editorial policy TOML file",
			Category:    "Newsroom",
			Sources:     cli.EnvVars("NEWSROOM_POLICY"),
			Destination: &n.policyPath,
		},
	}
}

// StarChannelID returns the star channel ID
func (n *Newsroom) StarChannelID() string {
	return n.starChannelID
}

// StarThreshold returns the configured threshold, 0 means the default
func (n *Newsroom) StarThreshold() int {
	return n.starThreshold
}

// Policy is the editorial policy loaded from TOML.
type Policy struct {
	MaxReviews     int      `toml:"max_reviews"`
	CommandPrefix  string   `toml:"command_prefix"`
	ExtraStarEmoji []string `toml:"extra_star_emoji"`
}

// Validate checks if the Policy is valid
func (p *Policy) Validate() error {
	if p.MaxReviews < 0 {
		return goerr.New("max_reviews must not be negative", goerr.V("max_reviews", p.MaxReviews))
	}
	for _, name := range p.ExtraStarEmoji {
		if name == "" {
			return goerr.New("extra_star_emoji entries must not be empty")
		}
		if strings.ContainsAny(name, ": \t\n") {
			return goerr.New("emoji names are written without colons or spaces", goerr.V("emoji", name))
		}
	}
	return nil
}

// LoadPolicy loads the editorial policy. A missing --policy flag yields
// the zero policy, where every knob falls back to its default.
func (n *Newsroom) LoadPolicy() (*Policy, error) {
	var policy Policy
	if n.policyPath == "" {
		return &policy, nil
	}

	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(n.policyPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read policy file", goerr.V("path", n.policyPath))
	}
	if err := toml.Unmarshal(data, &policy); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML policy", goerr.V("path", n.policyPath))
	}
	if err := policy.Validate(); err != nil {
		return nil, goerr.Wrap(err, "policy validation failed", goerr.V("path", n.policyPath))
	}

	return &policy, nil
}
