package observers

import (
	einocb "github.com/cloudwego/eino/callbacks"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
)

// NewAllCallbacks aggregates the model, prompt and tool handlers into one
// callbacks.Handler.
func NewAllCallbacks() einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		Tool(newToolHandler()).
		ChatModel(newModelHandler()).
		Prompt(newPromptHandler()).
		Handler()
}

// NewTurnCallbacks returns every handler attached to a pipeline run.
func NewTurnCallbacks() []einocb.Handler {
	return []einocb.Handler{NewAllCallbacks(), NewStageCallbacks()}
}
