package main

import (
	"context"
	"ncue-api/cmd/ncue/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
