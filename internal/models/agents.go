package models

import "strings"

// Agent describes a selectable agent variant on the server
type Agent struct {
	Name        string
	Description string
}

// DefaultAgent is the coordinator that routes to the specialized agents
const DefaultAgent = "retail_coordinator"

// Agents lists the agent variants the server exposes
var Agents = []Agent{
	{Name: "retail_coordinator", Description: "Main coordinator agent for retail operations, managing multiple specialized sub-agents."},
	{Name: "product_search_agent", Description: "Searches and finds products in the retail inventory."},
	{Name: "review_text_analysis_agent", Description: "Analyzes customer reviews and extracts insights."},
	{Name: "inventory_agent", Description: "Manages and tracks inventory status."},
	{Name: "shopping_agent", Description: "Analyzes customer shopping data and purchase patterns."},
	{Name: "customer_support_agent", Description: "Handles customer inquiries, issues, and support requests."},
}

// AgentByName looks up an agent variant, ignoring case and surrounding spaces
func AgentByName(name string) (Agent, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, a := range Agents {
		if a.Name == name {
			return a, true
		}
	}
	return Agent{}, false
}

// AgentNames returns the names of all agent variants
func AgentNames() []string {
	names := make([]string, len(Agents))
	for i, a := range Agents {
		names[i] = a.Name
	}
	return names
}
