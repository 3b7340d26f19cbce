package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"plainjs/pkg/compiler"
	"plainjs/pkg/logger"
	"plainjs/pkg/utils"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is main without the process exit, so tests can drive it.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("plainjs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inPath := fs.String("in", "", "input plain source file path")
	outPath := fs.String("out", "", "output JavaScript file path (default: input with .js extension)")
	verbose := fs.Bool("v", false, "log each compiler phase")
	logFormat := fs.String("log-format", "text", "log format: text or json")
	jobs := fs.Int("j", runtime.NumCPU(), "files compiled in parallel when several inputs are given")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := logger.LevelWarn
	if *verbose {
		level = logger.LevelDebug
	}
	logger.Init(logger.Config{Level: level, Format: *logFormat, Output: stderr})

	inputs := fs.Args()
	if *inPath != "" {
		inputs = append([]string{*inPath}, inputs...)
	}
	if len(inputs) == 0 {
		fmt.Fprintln(stderr, "nothing to do: provide -in <file> or one or more input paths")
		fs.Usage()
		return 2
	}
	if *outPath != "" && len(inputs) > 1 {
		fmt.Fprintln(stderr, "-out can only be used with a single input")
		return 2
	}

	if len(inputs) > 1 {
		err := compiler.CompileFiles(context.Background(), inputs, utils.DefaultOutputPath, *jobs)
		if err != nil {
			report(stderr, err)
			return 1
		}
		fmt.Fprintf(stdout, "compiled %d files\n", len(inputs))
		return 0
	}

	in := inputs[0]
	source, err := os.ReadFile(in)
	if err != nil {
		fmt.Fprintf(stderr, "failed to read input file %q: %v\n", in, err)
		return 1
	}

	js, err := compiler.Compile(string(source))
	if err != nil {
		report(stderr, fmt.Errorf("%s: %w", in, err))
		return 1
	}

	output := *outPath
	if output == "" {
		output = utils.DefaultOutputPath(in)
	}
	if err := os.WriteFile(output, []byte(js), 0o644); err != nil {
		fmt.Fprintf(stderr, "failed to write output file %q: %v\n", output, err)
		return 1
	}

	fmt.Fprintf(stdout, "compiled %d bytes -> %s\n", len(js), output)
	return 0
}

// report prints a diagnostic naming the failed stage.
func report(w io.Writer, err error) {
	var syn *compiler.SyntaxError
	var rec *compiler.ReconstructionError
	var gen *compiler.CodegenError
	switch {
	case errors.As(err, &syn):
		fmt.Fprintf(w, "parse failed: %v\n", err)
	case errors.As(err, &rec):
		fmt.Fprintf(w, "ast build failed: %v\n", err)
	case errors.As(err, &gen):
		fmt.Fprintf(w, "code generation failed: %v\n", err)
	default:
		fmt.Fprintf(w, "compilation failed: %v\n", err)
	}
}
