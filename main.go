package main

import (
	"fmt"
	"os"

	"github.com/zalepa/censo/cmd"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmd.Serve(os.Args[2:])
	case "show":
		cmd.Show(os.Args[2:])
	case "export":
		cmd.Export(os.Args[2:])
	case "snapshot":
		cmd.Snapshot(os.Args[2:])
	case "share":
		cmd.Share(os.Args[2:])
	case "list":
		cmd.List(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: censo <command>

Commands:
  serve      Start the census dashboard
  show       Print a municipality's indicators to the terminal
  export     Write a municipality's indicators as json, csv, xlsx or pdf
  snapshot   Export every municipality into a directory
  share      Print a link that opens the dashboard on a municipality
  list       List the configured municipalities
`)
}
