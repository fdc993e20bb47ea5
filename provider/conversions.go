package provider

import (
	"encoding/base64"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"

	"streamchat/config"
	"streamchat/model"
)

// withSystemPrompt prepends the configured system prompt as a system turn.
func withSystemPrompt(prompt string, turns []model.Turn) []model.Turn {
	if prompt == "" {
		return turns
	}
	out := make([]model.Turn, 0, len(turns)+1)
	out = append(out, model.Turn{Role: model.RoleSystem, Content: prompt})
	return append(out, turns...)
}

// ConvertToAnthropicMessages converts turns to Anthropic format.
// Returns the message array and any system turns as system blocks, since
// Anthropic takes the system prompt as a separate parameter.
//
// Image parts on user turns become base64 image blocks placed before the text.
// Assistant turns only carry text.
func ConvertToAnthropicMessages(turns []model.Turn) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var systemBlocks []anthropic.TextBlockParam
	anthropicMsgs := make([]anthropic.MessageParam, 0, len(turns))

	for _, turn := range turns {
		switch turn.Role {
		case model.RoleSystem:
			systemBlocks = append(systemBlocks, anthropic.TextBlockParam{
				Text: turn.Text(),
			})

		case model.RoleAssistant:
			anthropicMsgs = append(anthropicMsgs,
				anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Text())),
			)

		default:
			anthropicMsgs = append(anthropicMsgs,
				anthropic.NewUserMessage(anthropicBlocks(turn)...),
			)
		}
	}

	return anthropicMsgs, systemBlocks
}

func anthropicBlocks(turn model.Turn) []anthropic.ContentBlockParamUnion {
	if !turn.HasParts() {
		return []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(turn.Content)}
	}

	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(turn.Parts))
	for _, part := range turn.Parts {
		switch part.Type {
		case model.PartImage:
			blocks = append(blocks, anthropic.NewImageBlockBase64(part.MimeType, part.Data))
		case model.PartText:
			blocks = append(blocks, anthropic.NewTextBlock(part.Text))
		}
	}
	return blocks
}

// ConvertToOpenAIMessages converts turns to OpenAI chat messages.
// Used by both the OpenAI and OpenRouter providers.
//
// Image parts on user turns become image_url parts carrying the data URI.
func ConvertToOpenAIMessages(turns []model.Turn) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, len(turns))

	for i, turn := range turns {
		switch turn.Role {
		case model.RoleSystem:
			result[i] = openai.SystemMessage(turn.Text())
		case model.RoleAssistant:
			result[i] = openai.AssistantMessage(turn.Text())
		default:
			if !turn.HasParts() {
				result[i] = openai.UserMessage(turn.Content)
				continue
			}
			parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(turn.Parts))
			for _, part := range turn.Parts {
				switch part.Type {
				case model.PartImage:
					parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
						URL: part.DataURI(),
					}))
				case model.PartText:
					parts = append(parts, openai.TextContentPart(part.Text))
				}
			}
			result[i] = openai.UserMessage(parts)
		}
	}

	return result
}

// ConvertToOllamaMessages converts turns to Ollama api.Message.
//
// Ollama takes raw image bytes, so image parts are decoded here. Parts that fail
// to decode are dropped; the validator rejects malformed base64 long before a
// turn gets this far.
func ConvertToOllamaMessages(turns []model.Turn) []api.Message {
	result := make([]api.Message, len(turns))
	for i, turn := range turns {
		msg := api.Message{
			Role:    string(turn.Role),
			Content: turn.Text(),
		}
		for _, part := range turn.Parts {
			if part.Type != model.PartImage {
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(part.Data)
			if err != nil {
				if config.DebugLog != nil {
					config.DebugLog.Printf("[Ollama] dropping undecodable image in turn %d: %v", i, err)
				}
				continue
			}
			msg.Images = append(msg.Images, api.ImageData(raw))
		}
		result[i] = msg
	}
	return result
}
