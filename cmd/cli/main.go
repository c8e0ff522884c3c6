// chatstat - Chat Transcript Statistics
//
// chatstat parses exported chat transcripts into messages and reports
// counts, activity, authors, emojis, links and word frequencies.
package main

import (
	"os"

	"github.com/ccollicutt/chatstat/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
