package config

// Test helper constructors, flag parsing is exercised in pkg/cli.

func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

func NewRepositoryForTest(backend, projectID, databaseID string) *Repository {
	return &Repository{
		backend:    backend,
		projectID:  projectID,
		databaseID: databaseID,
	}
}

func NewSlackForTest(botToken, signingSecret string) *Slack {
	return &Slack{
		botToken:      botToken,
		signingSecret: signingSecret,
	}
}

func NewNewsroomForTest(starChannelID string, starThreshold int, policyPath string) *Newsroom {
	return &Newsroom{
		starChannelID: starChannelID,
		starThreshold: starThreshold,
		policyPath:    policyPath,
	}
}
