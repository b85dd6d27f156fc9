package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	var root = &cobra.Command{Use: "askdgp"}

	root.AddCommand(serveCMD(), chatCMD(), migrateCMD())
	_ = root.Execute()
}
