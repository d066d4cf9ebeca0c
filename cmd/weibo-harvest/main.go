package main

import (
	"context"

	"weibo-harvest/cmd/weibo-harvest/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
