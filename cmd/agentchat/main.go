// Command agentchat is a terminal client for a streaming agent chat server.
package main

import "github.com/diogo/agentchat/internal/commands"

func main() {
	commands.Execute()
}
