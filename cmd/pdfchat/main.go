package main

import "pdf-chat-client/internal/cli"

func main() {
	cli.Execute()
}
