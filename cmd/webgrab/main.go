package main

import (
	"context"

	"github.com/use-agent/webgrab/cmd/webgrab/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
