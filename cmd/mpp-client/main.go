// Command mpp-client is the interactive MPP client: it connects to an
// mpp-server, reads nouns from the terminal one per line, and prints
// each ISSING reply with its round-trip time. Exits on "quit"/"exit"
// (case-insensitive), ctrl-c, or ctrl-d (end of input).
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/victorcarri/mpp/clientui"
)

func main() {
	fs := pflag.NewFlagSet("mpp-client", pflag.ContinueOnError)
	address := fs.String("address", "127.0.0.1:9999", "address of the mpp-server to connect to")
	help := fs.BoolP("help", "h", false, "show usage and exit")

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}
	if *help {
		fs.PrintDefaults()
		os.Exit(1)
	}

	p := tea.NewProgram(clientui.New(*address))
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "mpp-client:", err)
		os.Exit(1)
	}
}
