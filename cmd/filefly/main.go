// Command filefly runs the FileFly auth server and its admin subcommands.
package main

import (
	"fmt"
	"io"
	"os"

	"filefly/cmd/internal/app"
)

func main() {
	if err := run(os.Args, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run(argv []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(argv) < 2 {
		usage(stderr)
		return fmt.Errorf("missing subcommand")
	}

	switch argv[1] {
	case "serve":
		return app.Serve(argv[2:], stderr)
	case "useradd":
		return app.UserAdd(argv[2:], stdin, stdout, stderr)
	case "-h", "--help", "help":
		usage(stderr)
		return nil
	default:
		usage(stderr)
		return fmt.Errorf("unknown subcommand: %s", argv[1])
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "filefly <serve|useradd> [flags]")
}
