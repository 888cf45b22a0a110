package main

import (
	"fmt"
	"os"

	"github.com/franciscosanchezn/gin-chat-auth/internal/cli"
)

func main() {
	if err := cli.NewRootCommand(cli.Config{}).Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, cli.Describe(err))
		os.Exit(1)
	}
}
