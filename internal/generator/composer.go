package generator

import (
	"fmt"
	"strings"

	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/indicator"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/rules"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/template"
)

// ComposeInput carries everything the prompt needs: the target template's
// metadata, the resolved indicator definitions (never the whole catalog),
// and the conversation.
type ComposeInput struct {
	Name         string
	Description  string
	Category     string
	Type         template.Type
	Direction    rules.Direction
	Timeframe    string
	Definitions  []indicator.Definition
	Conversation string
}

// ComposePrompt builds the system instruction and user prompt for the
// generation tier. Embedding only the resolved definitions bounds prompt
// size and reduces the chance the model invents indicator types.
func ComposePrompt(in ComposeInput) (system string, prompt string) {
	switch in.Type {
	case template.TypeSignal:
		system = signalSystemPrompt
	default:
		system = stepwiseSystemPrompt
	}

	var b strings.Builder

	b.WriteString("TARGET TEMPLATE\n")
	fmt.Fprintf(&b, "Name: %s\n", in.Name)
	if in.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", in.Description)
	}
	if in.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", in.Category)
	}
	if in.Timeframe != "" {
		fmt.Fprintf(&b, "Timeframe: %s\n", in.Timeframe)
	}
	if in.Type == template.TypeSignal && in.Direction != "" {
		fmt.Fprintf(&b, "Direction: %s\n", in.Direction)
	}

	b.WriteString("\nAVAILABLE INDICATOR TYPES\n")
	b.WriteString("Use only these types. Usage notes per type:\n\n")
	for _, def := range in.Definitions {
		fmt.Fprintf(&b, "- %s\n", def.PromptSnippet)
	}

	b.WriteString("\nCONVERSATION\n")
	b.WriteString(in.Conversation)
	b.WriteString("\n\nGenerate the rule structure now. Remember: JSON only.")

	return system, b.String()
}
