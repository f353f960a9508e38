package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// SummarizeFunc performs a non-streaming LLM call for summarization.
type SummarizeFunc func(ctx context.Context, prompt string) (string, error)

// CompressorConfig configures history compression.
type CompressorConfig struct {
	ContextWindow int     // total token budget; 0 disables compression
	Threshold     float64 // trigger ratio (default 0.80)
	PreserveRatio float64 // budget ratio for retained recent messages (default 0.25)
	CharsPerToken int     // heuristic (default 4)
}

// CompressResult holds the output of a compression pass.
type CompressResult struct {
	Messages   []*schema.Message
	Summary    string
	Compressed bool
}

// Compressor keeps long conversations inside the model's context window by
// summarizing the oldest messages into a rolling summary.
type Compressor struct {
	contextWindow int
	threshold     float64
	preserveRatio float64
	charsPerToken int
}

// NewCompressor creates a Compressor with defaults filled in for zero values.
func NewCompressor(cfg CompressorConfig) *Compressor {
	return &Compressor{
		contextWindow: cfg.ContextWindow,
		threshold:     ratioOr(cfg.Threshold, 0.80),
		preserveRatio: ratioOr(cfg.PreserveRatio, 0.25),
		charsPerToken: intOr(cfg.CharsPerToken, 4),
	}
}

func ratioOr(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func intOr(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// messageTokens estimates one message: content plus role/formatting overhead.
func (c *Compressor) messageTokens(msg *schema.Message) int {
	return len(msg.Content)/c.charsPerToken + 4
}

// EstimateTokens returns a heuristic token count for a slice of messages.
func (c *Compressor) EstimateTokens(messages []*schema.Message) int {
	total := 0
	for _, msg := range messages {
		total += c.messageTokens(msg)
	}
	return total
}

// NeedsCompression reports whether the history exceeds the trigger ratio.
func (c *Compressor) NeedsCompression(messages []*schema.Message) bool {
	if c.contextWindow <= 0 {
		return false
	}
	return c.EstimateTokens(messages) > int(float64(c.contextWindow)*c.threshold)
}

// Compress summarizes the oldest messages when the history exceeds the
// threshold. The previous rolling summary is folded into the new one. A
// summarization failure falls back to plain truncation so the turn can still
// proceed.
func (c *Compressor) Compress(ctx context.Context, summary string, messages []*schema.Message, summarize SummarizeFunc) CompressResult {
	if !c.NeedsCompression(messages) {
		return CompressResult{Messages: messages, Summary: summary}
	}

	splitIdx := c.findSplitIndex(messages, int(float64(c.contextWindow)*c.preserveRatio))
	if splitIdx <= 0 {
		return CompressResult{Messages: messages, Summary: summary}
	}
	old, recent := messages[:splitIdx], messages[splitIdx:]

	slog.Info("compressing conversation history",
		"total", len(messages),
		"summarized", len(old),
		"retained", len(recent),
	)

	newSummary, err := summarize(ctx, c.buildPrompt(summary, old))
	if err != nil {
		slog.Error("summarization failed, truncating instead", "error", err)
		return CompressResult{Messages: recent, Summary: summary, Compressed: true}
	}
	return CompressResult{Messages: recent, Summary: newSummary, Compressed: true}
}

// findSplitIndex walks backwards from the end accumulating the preserve
// budget and returns the index where old messages end. The split never lands
// between a user message and its answer: it only cuts just before a user
// message.
func (c *Compressor) findSplitIndex(messages []*schema.Message, preserveBudget int) int {
	used := 0
	idx := len(messages)
	for i := len(messages) - 1; i >= 0; i-- {
		if used += c.messageTokens(messages[i]); used > preserveBudget {
			break
		}
		if messages[i].Role == schema.User {
			idx = i
		}
	}
	if idx < len(messages) {
		return idx
	}
	// Nothing fits the preserve budget; keep the last exchange.
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == schema.User {
			return i
		}
	}
	return 0
}

func (c *Compressor) buildPrompt(previousSummary string, old []*schema.Message) string {
	var sb strings.Builder
	sb.WriteString("Summarize the following conversation. Keep decisions, facts, file paths, and unresolved questions. Be dense and factual.\n\n")
	if previousSummary != "" {
		sb.WriteString("Earlier summary to fold in:\n")
		sb.WriteString(previousSummary)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Conversation:\n")
	for _, msg := range old {
		if msg.Content != "" {
			fmt.Fprintf(&sb, "[%s] %s\n", msg.Role, msg.Content)
		}
	}
	return sb.String()
}
