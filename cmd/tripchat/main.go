// Command tripchat is a terminal travel planning assistant.
package main

import "github.com/diogo/tripchat/internal/commands"

func main() {
	commands.Execute()
}
