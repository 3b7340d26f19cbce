package main

import (
	"flag"
	"fmt"
	"os"

	"plainjs/pkg/compiler"
	"plainjs/pkg/utils"
)

const testSource = `total = 0
i = from 1 to 5
    if i mod 2 is 0
        skip
    total = total plus i
print "total:" total
`

func main() {
	stage := flag.String("stage", "all", "what to dump: tokens, tree, ast, js, or all")
	flag.Parse()

	src := testSource
	if flag.NArg() > 0 {
		path, _, err := utils.GetPathInfo(flag.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, "path error:", err)
			os.Exit(1)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = string(data)
	}
	show := func(s string) bool { return *stage == "all" || *stage == s }
	switch *stage {
	case "all", "tokens", "tree", "ast", "js":
	default:
		fmt.Fprintf(os.Stderr, "unknown stage %q\n", *stage)
		os.Exit(2)
	}

	src = compiler.Preprocess(src)
	if show("tokens") {
		fmt.Printf("Source:\n%s\n", src)
	}

	// Lex
	tokens, err := compiler.Lex(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lex error:", err)
		os.Exit(1)
	}
	if show("tokens") {
		fmt.Printf("Tokens (%d)\n", len(tokens))
		for _, tok := range tokens {
			if tok.Type.IsTrivia() {
				continue
			}
			fmt.Println(" ", tok)
		}
		fmt.Println()
	}

	// Parse
	tree, err := compiler.Parse(tokens, src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse error:", err)
		os.Exit(1)
	}
	if show("tree") {
		fmt.Printf("Parse tree (%d nodes)\n", tree.Count())
		fmt.Print(tree)
		fmt.Println()
	}

	// Build
	mod, err := compiler.Build(tree, src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "build error:", err)
		os.Exit(1)
	}
	if show("ast") {
		fmt.Println("AST")
		for _, s := range mod.Body {
			fmt.Println(" ", s)
		}
		fmt.Println()
	}

	// Code generation
	js, err := compiler.Generate(mod)
	if err != nil {
		fmt.Fprintln(os.Stderr, "codegen error:", err)
		os.Exit(1)
	}
	if show("js") {
		fmt.Println("Generated JavaScript")
		fmt.Print(js)
	}
}
