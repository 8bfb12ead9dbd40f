// Command boxreq sends a single request to the Box API.
package main

import (
	"os"

	"github.com/AmmannChristian/go-boxclient/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
