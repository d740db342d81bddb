package provider

import (
	"context"
	"log"
	"os"
	"strings"
)

// ChainFromEnv builds the ordered provider chain from environment variables.
// PROVIDER_CHAIN lists identifiers in priority order (default cheapest-first:
// "ollama,gemini,openai,anthropic"). A provider missing its credentials is
// dropped from the chain rather than failing startup; an empty chain falls
// back to the mock provider so the pipeline stays runnable in development.
//
// Supported providers:
//   - ollama:    OLLAMA_ADDR (e.g. http://localhost:11434), optional OLLAMA_MODEL
//   - openai:    OPENAI_API_KEY, optional OPENAI_MODEL, OPENAI_API_BASE
//   - anthropic: ANTHROPIC_API_KEY, optional ANTHROPIC_MODEL
//   - gemini:    GOOGLE_API_KEY, optional GEMINI_MODEL
func ChainFromEnv(ctx context.Context) []Adapter {
	order := strings.Split(envOr("PROVIDER_CHAIN", "ollama,gemini,openai,anthropic"), ",")

	var chain []Adapter
	for _, name := range order {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "ollama":
			if addr := strings.TrimSpace(os.Getenv("OLLAMA_ADDR")); addr != "" {
				chain = append(chain, NewOllama(strings.TrimRight(addr, "/"), os.Getenv("OLLAMA_MODEL")))
			}
		case "openai":
			if key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); key != "" {
				chain = append(chain, NewOpenAI(key, os.Getenv("OPENAI_MODEL"), strings.TrimRight(os.Getenv("OPENAI_API_BASE"), "/")))
			}
		case "anthropic":
			if key := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); key != "" {
				chain = append(chain, NewAnthropic(key, os.Getenv("ANTHROPIC_MODEL")))
			}
		case "gemini":
			if key := strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")); key != "" {
				g, err := NewGemini(ctx, key, os.Getenv("GEMINI_MODEL"))
				if err != nil {
					log.Printf("Skipping gemini provider: %v", err)
					continue
				}
				chain = append(chain, g)
			}
		default:
			log.Printf("Unknown provider %q in PROVIDER_CHAIN, skipping", name)
		}
	}

	if len(chain) == 0 {
		log.Println("No providers configured, using mock provider")
		chain = append(chain, NewMock("mock"))
	}

	return chain
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}

	return def
}
