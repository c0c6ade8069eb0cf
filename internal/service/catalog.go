package service

import (
	"fmt"
	"strings"

	"github.com/aislecart-ai/shopping-assistant/internal/model"
)

// defaultPreamble is the fixed instruction block prepended to every
// generation request, ahead of the catalog snapshot.
const defaultPreamble = `You are a helpful AI shopping assistant for an e-commerce store. You have access to the following products:

%s

Your role is to:
1. Help customers find products that match their needs
2. Ask clarifying questions when needed to narrow down choices
3. Provide honest recommendations based on the available products
4. Mention prices and availability
5. Be friendly, helpful, and conversational

When recommending products, format your response to include product details in a clear way. If no exact match is found, suggest the closest alternatives.

IMPORTANT: You can use markdown formatting in your responses to make them more readable. Use bold text, bullet points, and other formatting as appropriate.

When you want to display products, include their details in your response in this format:

**Product Name:** [Product Name]
**Price:** $[Price]
**Description:** [Description]
**Stock:** [Stock quantity]

You can recommend multiple products by listing them one after another.`

// FormatProductLine renders one catalog item as a plain context line.
func FormatProductLine(p model.Product) string {
	return fmt.Sprintf("Product ID: %d, Name: %s, Description: %s, Price: $%s, Stock: %d",
		p.ID, p.Name, p.Description, p.Price, p.Stock)
}

// BuildSystemPrompt concatenates the instruction preamble with the catalog
// snapshot. An empty preamble selects the built-in one.
func BuildSystemPrompt(preamble string, products []model.Product) string {
	lines := make([]string, len(products))
	for i, p := range products {
		lines[i] = FormatProductLine(p)
	}
	catalog := strings.Join(lines, "\n")

	if preamble == "" {
		return fmt.Sprintf(defaultPreamble, catalog)
	}
	return preamble + "\n\n" + catalog
}
