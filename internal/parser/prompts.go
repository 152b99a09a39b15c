package parser

import (
	"strings"

	"cloud.google.com/go/civil"
)

// buildInterpretPrompt renders the extraction instructions for one statement.
// The model is asked for a single JSON object and nothing else.
func buildInterpretPrompt(text string, categories []string, currency string, today civil.Date) string {
	var b strings.Builder

	b.WriteString("You extract one financial operation from a short message written by a small business owner.\n")
	b.WriteString("The message may be in Russian or English.\n\n")
	b.WriteString("Message: \"" + strings.TrimSpace(text) + "\"\n\n")

	b.WriteString("Return a single JSON object with these keys:\n")
	b.WriteString("- \"type\": \"доход\" for money received, \"расход\" for money spent\n")
	b.WriteString("- \"amount\": number, always positive\n")
	b.WriteString("- \"currency\": ISO code, \"" + currency + "\" when the message does not name one\n")
	b.WriteString("- \"category\": one of the categories below\n")
	b.WriteString("- \"subcategory\": short string or null\n")
	b.WriteString("- \"date\": \"YYYY-MM-DD\", today is " + today.String() + "; resolve words like \"вчера\" or \"yesterday\" against it\n")
	b.WriteString("- \"description\": what the money was for, in the message's language\n\n")

	b.WriteString("Categories:\n")
	for _, c := range categories {
		b.WriteString("  - " + c + "\n")
	}
	b.WriteString("\n")

	b.WriteString("Example:\n")
	b.WriteString("Message: \"расход 2500 на рекламу в яндексе\"\n")
	b.WriteString(`{"type":"расход","amount":2500,"currency":"` + currency + `","category":"маркетинг","subcategory":"контекстная реклама","date":"` + today.String() + `","description":"реклама в яндексе"}` + "\n\n")

	b.WriteString("Return ONLY the JSON object.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Output must begin with \"{\" and end with \"}\".\n")

	return b.String()
}

// buildCategorizePrompt asks for a single category word for a description.
func buildCategorizePrompt(description string, categories []string) string {
	var b strings.Builder
	b.WriteString("Pick the category that best fits this financial operation.\n\n")
	b.WriteString("Operation: \"" + strings.TrimSpace(description) + "\"\n\n")
	b.WriteString("Allowed categories: " + strings.Join(categories, ", ") + "\n\n")
	b.WriteString("Answer with the category name only, in lower case, without punctuation.\n")
	return b.String()
}
