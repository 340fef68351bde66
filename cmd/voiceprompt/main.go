// Command voiceprompt prints the art prompt derived from each audio file.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/satindergrewal/voiceart/internal/pipeline"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("voiceprompt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "print the full analysis result as JSON")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: voiceprompt [-json] file...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	analyzer := pipeline.NewAnalyzer()
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	status := 0
	for _, path := range fs.Args() {
		res, err := analyzer.AnalyzeFile(pipeline.NewInvocation(path))
		if err != nil {
			fmt.Fprintf(stderr, "voiceprompt: %v\n", err)
			status = 1
			continue
		}
		if *asJSON {
			if err := enc.Encode(res); err != nil {
				fmt.Fprintf(stderr, "voiceprompt: %v\n", err)
				status = 1
			}
			continue
		}
		if fs.NArg() > 1 {
			fmt.Fprintf(stdout, "%s: %s\n", path, res.Prompt)
		} else {
			fmt.Fprintln(stdout, res.Prompt)
		}
	}
	return status
}
