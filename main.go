// Package main is the entry point for the roundtable CLI, which ingests
// Paladins custom-match reports and answers player and leaderboard queries.
package main

import "github.com/Igor-Kaminski/round-table-bot/cmd"

func main() {
	cmd.Execute()
}
