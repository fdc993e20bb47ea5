package config

const DefaultSystemPrompt = `You are a friendly and knowledgeable AI assistant.

Role:
- Be a pleasant conversation partner for casual chat
- Give accurate, easy-to-understand answers to questions
- Respond to personal concerns with care
- Suggest topics that match the user's interests

Personality and tone:
- Friendly and approachable
- Polite without being stiff
- Empathetic toward the user's feelings
- Light humor where the situation allows

Scope:
- Everyday conversation
- General questions
- Advice on everyday worries
- Hobbies and interests
- Sharing and explaining knowledge

Boundaries:
- Do not help with illegal or harmful requests
- Do not give professional medical or legal advice
- Do not record or store personal information
- Always aim to be honest and accurate

Aim for conversations that are enjoyable and worthwhile for the user.`

func DefaultSettings() *Settings {
	return &Settings{
		DataDirectory: GetDefaultDataDir(),
		Server: ServerConfig{
			Addr:         "127.0.0.1:3000",
			MaxBodyBytes: 64 << 20,
		},
		Provider: ProviderConfig{
			Type:         "anthropic",
			Model:        "claude-sonnet-4-5-20250929",
			MaxTokens:    4096,
			SystemPrompt: DefaultSystemPrompt,
		},
		Client: ClientConfig{
			ServerURL: "http://127.0.0.1:3000",
		},
	}
}

func GenerateSettingsTemplate() string {
	return `# streamchat configuration
# Location: ~/.config/streamchat/settings.toml
# This file uses TOML format: https://toml.io
#
# Provider credentials are never read from this file. Set one of
# ANTHROPIC_API_KEY, OPENAI_API_KEY or OPENROUTER_API_KEY in the environment
# or in a .env file next to the binary.

# Directory for debug.log (enabled with STREAMCHAT_DEBUG=1)
data_directory = "~/.local/share/streamchat"

[server]
# Listen address for "streamchat serve"
addr = "127.0.0.1:3000"

# Upper bound on a single POST /api/chat body, in bytes
max_body_bytes = 67108864

[provider]
# One of: anthropic, openai, openrouter, ollama
type = "anthropic"

# Model used for every request
model = "claude-sonnet-4-5-20250929"

# Leave empty for the provider's default endpoint
base_url = ""

# Maximum tokens per reply
max_tokens = 4096

# System prompt sent with every conversation (empty = built-in assistant persona)
system_prompt = ""

[client]
# Server used by "streamchat chat"
server_url = "http://127.0.0.1:3000"
`
}
