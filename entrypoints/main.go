package main

import (
	"github.com/distributed-ai/query-router/cmd"
)

func main() {
	cmd.Execute()
}
