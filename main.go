package main

import "github.com/shaharia-lab/mailnotify/cmd"

func main() {
	cmd.Execute()
}
