package main

import (
	"finbot/cmd/export"
	"finbot/cmd/renew"
	"finbot/cmd/root"
	"finbot/cmd/serve"
)

func init() {
	root.Cmd.AddCommand(serve.Cmd)
	root.Cmd.AddCommand(renew.Cmd)
	root.Cmd.AddCommand(export.Cmd)
}

func main() {
	root.Execute()
}
