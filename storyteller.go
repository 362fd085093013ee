package main

import (
	"context"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const storytellerSystemPrompt = `You are a dramatic storyteller for a medieval werewolf game. After each death or lynching you tell a short atmospheric story about the victim's fate. Keep it to 2-3 sentences. Be gothic and dramatic, fitting for a village plagued by werewolves, vampires and a whispering cult.`

// Storyteller turns the game history into a short dramatic story.
// onChunk is called with each text chunk as it streams in.
type Storyteller interface {
	Tell(ctx context.Context, history []string, onChunk func(string)) (string, error)
}

// globalStoryteller is nil when no provider is configured (feature disabled).
var globalStoryteller Storyteller

type llmStoryteller struct {
	llm          llms.Model
	systemPrompt string
	callOpts     []llms.CallOption
}

func (s *llmStoryteller) Tell(ctx context.Context, history []string, onChunk func(string)) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, s.systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman,
			"Game history so far:\n"+strings.Join(history, "\n")+
				"\n\nTell a short dramatic story (2-3 sentences) about what just happened to the victim."),
	}

	var fullText strings.Builder
	opts := append(s.callOpts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		text := string(chunk)
		fullText.WriteString(text)
		if onChunk != nil {
			onChunk(text)
		}
		return nil
	}))

	_, err := s.llm.GenerateContent(ctx, messages, opts...)
	return strings.TrimSpace(fullText.String()), err
}

// initStoryteller sets up the global storyteller from config.
func initStoryteller(cfg AppConfig) {
	var callOpts []llms.CallOption
	if cfg.StorytellerTemperature != "" {
		if f, err := strconv.ParseFloat(cfg.StorytellerTemperature, 64); err == nil {
			callOpts = append(callOpts, llms.WithTemperature(f))
		} else {
			log.Printf("Storyteller: invalid temperature %q: %v", cfg.StorytellerTemperature, err)
		}
	}

	model := cfg.StorytellerModel
	var llm llms.Model
	var err error

	switch cfg.StorytellerProvider {
	case "ollama":
		llm, err = ollama.New(ollama.WithModel(model), ollama.WithServerURL(cfg.StorytellerOllamaURL))
	case "openai":
		llm, err = openai.New(openai.WithModel(model))
	case "claude":
		llm, err = anthropic.New(anthropic.WithModel(model))
	case "gemini":
		llm, err = googleai.New(context.Background(), googleai.WithDefaultModel(model))
	case "groq":
		llm, err = openai.New(
			openai.WithModel(model),
			openai.WithBaseURL("https://api.groq.com/openai/v1"),
			openai.WithToken(cfg.GroqAPIKey),
		)
	case "openai-compatible":
		if cfg.StorytellerURL == "" {
			log.Printf("Storyteller: storyteller_url is required for openai-compatible provider")
			return
		}
		opts := []openai.Option{openai.WithModel(model), openai.WithBaseURL(cfg.StorytellerURL)}
		if cfg.StorytellerAPIKey != "" {
			opts = append(opts, openai.WithToken(cfg.StorytellerAPIKey))
		}
		llm, err = openai.New(opts...)
	default:
		log.Printf("Storyteller: disabled (set storyteller_provider to enable)")
		return
	}

	if err != nil {
		log.Printf("Storyteller: failed to init %s (%s): %v", cfg.StorytellerProvider, model, err)
		return
	}
	globalStoryteller = &llmStoryteller{llm: llm, systemPrompt: storytellerSystemPrompt, callOpts: callOpts}
	log.Printf("Storyteller: provider=%s model=%s", cfg.StorytellerProvider, model)
}

// maybeGenerateStory asynchronously streams a story into the game's event
// history after a death. Returns immediately; partial text appears in the
// history as it arrives.
func maybeGenerateStory(gameID int64) {
	if globalStoryteller == nil {
		return
	}

	go func() {
		events, err := getEvents(gameID)
		if err != nil {
			logError("maybeGenerateStory: getEvents", err)
			return
		}
		history := make([]string, 0, len(events))
		for _, ev := range events {
			history = append(history, ev.Text)
		}

		// Placeholder row; empty text keeps it out of the history until the
		// first tokens land.
		storyID := appendEvent(gameID, "story", "")
		if storyID == 0 {
			return
		}

		var mu sync.Mutex
		var buf strings.Builder

		// Push partial text to the clients a few times a second.
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(300 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					text := strings.TrimSpace(buf.String())
					mu.Unlock()
					if text != "" {
						db.Exec("UPDATE game_event SET text = ? WHERE rowid = ?", text, storyID)
						broadcastGameUpdate()
					}
				case <-done:
					return
				}
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		_, err = globalStoryteller.Tell(ctx, history, func(chunk string) {
			mu.Lock()
			buf.WriteString(chunk)
			mu.Unlock()
		})
		close(done)

		mu.Lock()
		finalText := strings.TrimSpace(buf.String())
		mu.Unlock()

		if err != nil {
			log.Printf("maybeGenerateStory: storyteller error: %v", err)
		}
		if finalText == "" {
			db.Exec("DELETE FROM game_event WHERE rowid = ?", storyID)
			return
		}

		db.Exec("UPDATE game_event SET text = ? WHERE rowid = ?", finalText, storyID)
		log.Printf("Storyteller: completed story for game %d", gameID)
		broadcastGameUpdate()
	}()
}
