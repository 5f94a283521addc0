package config

const (
	defaultConfigPath        = "~/.config/videolens/config.toml"
	defaultModel             = "gemini-2.0-flash-thinking-exp-01-21"
	defaultTemperature       = 0.3
	defaultTopP              = 0.3
	defaultTopK              = 4
	defaultMaxOutputTokens   = 65536
	defaultResponseMIMEType  = "text/plain"
	defaultPollInterval      = 10
	defaultPollMaxWait       = 900
	defaultBackoffMultiplier = 1.0
	defaultMaxUploadMB       = 2048
	defaultServerBind        = "127.0.0.1:8501"
	defaultNotifyTimeout     = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"

	// DefaultSystemInstruction is the analysis brief used when none is supplied.
	DefaultSystemInstruction = "Analyze the video in detail, focusing on its main political topic, content, and key highlights. " +
		"Pay close attention to the spoken language, identifying any specific dialects or accents. " +
		"Note any background music, specifying the song if recognizable, and describe its impact on the video's tone. " +
		"Identify and highlight the appearance of any notable public figures, politicians, or celebrities. " +
		"Consider the video's visual elements, including body language, crowd reactions, and setting, to provide context and insight into the social and political implications. " +
		"If multiple people are speaking, use the captions to accurately attribute statements to the correct individuals. " +
		"Incorporate time frames to structure the analysis effectively when required. " +
		"If multiple videos are given, provide timestamps for within each video that have crucial information. " +
		"Ensure the analysis is comprehensive and written in English, directly summarizing the content without introductory phrases."

	// DefaultInputPrompt is the follow-up instruction sent after the videos.
	DefaultInputPrompt = "Analyze each video separately, generate a comprehensive summary, and include relevant subheadings for better organization. Do not miss any video"
)

var (
	defaultAllowedModels = []string{
		"gemini-2.0-flash-thinking-exp-01-21",
		"gemini-2.0-flash",
		"gemini-2.0-pro-exp-02-05",
		"gemini-1.5-pro",
		"gemini-1.5-flash",
	}
	defaultAllowedExtensions = []string{"mp4", "avi", "mov", "mpeg", "wmv"}
	defaultAllowedOrigins    = []string{"*"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Gemini: Gemini{
			Model:         defaultModel,
			AllowedModels: append([]string(nil), defaultAllowedModels...),
		},
		Generation: Generation{
			Temperature:      defaultTemperature,
			TopP:             defaultTopP,
			TopK:             defaultTopK,
			MaxOutputTokens:  defaultMaxOutputTokens,
			ResponseMIMEType: defaultResponseMIMEType,
		},
		Prompts: Prompts{
			SystemInstruction: DefaultSystemInstruction,
			InputPrompt:       DefaultInputPrompt,
		},
		Polling: Polling{
			IntervalSeconds:    defaultPollInterval,
			MaxIntervalSeconds: defaultPollInterval,
			BackoffMultiplier:  defaultBackoffMultiplier,
			MaxWaitSeconds:     defaultPollMaxWait,
		},
		Uploads: Uploads{
			TempDir:           defaultTempDir(),
			AllowedExtensions: append([]string(nil), defaultAllowedExtensions...),
			MaxUploadMB:       defaultMaxUploadMB,
		},
		Server: Server{
			Bind:           defaultServerBind,
			AllowedOrigins: append([]string(nil), defaultAllowedOrigins...),
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Analysis:       true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
