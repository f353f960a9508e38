package agent

import (
	"io"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"

	"github.com/quill-sh/quill/internal/stream"
)

// consumeIterator drains one ADK run and translates it into stream events
// under the given namespace: assistant text becomes text fragments, tool
// calls and tool results become their respective kinds. It returns the final
// assistant text. The namespace-terminal event is the caller's job; primary
// turns never terminate their namespace, subagent runs always do.
func consumeIterator(iter *adk.AsyncIterator[*adk.AgentEvent], ns stream.Namespace, emit func(stream.Event)) (string, error) {
	var final string

	for {
		event, ok := iter.Next()
		if !ok {
			break
		}
		if event.Err != nil {
			return final, event.Err
		}
		if event.Output == nil || event.Output.MessageOutput == nil {
			continue
		}

		mv := event.Output.MessageOutput

		if mv.Role == schema.Tool {
			consumeToolResult(mv, ns, emit)
			continue
		}

		if mv.IsStreaming {
			content, err := consumeStream(mv.MessageStream, ns, emit)
			if err != nil {
				return final, err
			}
			if content != "" {
				final = content
			}
			continue
		}

		if mv.Message == nil {
			continue
		}
		for _, call := range mv.Message.ToolCalls {
			emit(stream.ToolInvoked(ns, call.ID, call.Function.Name))
		}
		if mv.Message.Content != "" && len(mv.Message.ToolCalls) == 0 {
			final = mv.Message.Content
			emit(stream.TextFragment(ns, final))
		}
	}

	return final, nil
}

// consumeStream drains a streamed assistant message, emitting one text
// fragment per chunk. Tool calls arrive as chunk deltas with ids on the
// first piece.
func consumeStream(sr *schema.StreamReader[*schema.Message], ns stream.Namespace, emit func(stream.Event)) (string, error) {
	defer sr.Close()

	var content string
	seen := make(map[string]bool)

	for {
		chunk, err := sr.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return content, err
		}
		if chunk == nil {
			continue
		}
		for _, call := range chunk.ToolCalls {
			if call.ID != "" && !seen[call.ID] {
				seen[call.ID] = true
				emit(stream.ToolInvoked(ns, call.ID, call.Function.Name))
			}
		}
		if chunk.Content != "" {
			emit(stream.TextFragment(ns, chunk.Content))
			content += chunk.Content
		}
	}
	return content, nil
}

// consumeToolResult handles a tool-role message, streamed or not, and emits
// a tool_result event.
func consumeToolResult(mv *adk.MessageVariant, ns stream.Namespace, emit func(stream.Event)) {
	if mv.IsStreaming {
		if mv.MessageStream == nil {
			return
		}
		defer mv.MessageStream.Close()
		callID := ""
		for {
			chunk, err := mv.MessageStream.Recv()
			if err != nil {
				break
			}
			if chunk != nil && chunk.ToolCallID != "" {
				callID = chunk.ToolCallID
			}
		}
		emit(stream.ToolResult(ns, callID, "", ""))
		return
	}
	if mv.Message != nil {
		emit(stream.ToolResult(ns, mv.Message.ToolCallID, mv.Message.Name, ""))
	}
}
