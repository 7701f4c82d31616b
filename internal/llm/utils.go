package llm

import (
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
)

// formatPrompt dedents and trims a prompt template before interpolating.
func formatPrompt(text string, a ...any) string {
	return fmt.Sprintf(strings.TrimSpace(dedent.Dedent(text)), a...)
}
