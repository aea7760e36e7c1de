package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

type LetterCounterHandler struct{}

func (h *LetterCounterHandler) ToolAdapter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	text, _ := args["text"].(string)
	letter, _ := args["letter"].(string)
	if letter == "" {
		return mcp.NewToolResultError("letter is required"), nil
	}
	return mcp.NewToolResultText(CountLetter(text, letter)), nil
}

// CountLetter reports the case-sensitive, non-overlapping occurrences of
// letter in text.
func CountLetter(text, letter string) string {
	return fmt.Sprintf("The letter '%s' appears %d times in the text.", letter, strings.Count(text, letter))
}
