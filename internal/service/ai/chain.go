package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// Runnable is a compiled template → chat model chain.
type Runnable = compose.Runnable[map[string]any, *schema.Message]

// CompileChain joins a chat template and a chat model into one runnable chain.
func CompileChain(ctx context.Context, template prompt.ChatTemplate, chatModel model.BaseChatModel) (Runnable, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}
	return runnable, nil
}
