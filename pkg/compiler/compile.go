package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"plainjs/pkg/logger"
)

// Compile translates one plain source text into JavaScript. The error, if
// any, is a *SyntaxError, *ReconstructionError, or *CodegenError.
func Compile(src string) (string, error) {
	return compileUnit("<input>", src)
}

func compileUnit(file, src string) (string, error) {
	src = Preprocess(src)

	logger.LogPhase("lex")
	tokens, err := Lex(src)
	if err != nil {
		logger.LogCompileError("lex", file, ErrorLine(err), err)
		return "", err
	}
	logger.LogTokens(file, len(tokens))

	logger.LogPhase("parse")
	tree, err := Parse(tokens, src)
	if err != nil {
		logger.LogCompileError("parse", file, ErrorLine(err), err)
		return "", err
	}
	logger.LogParseTree(file, tree.Count())

	logger.LogPhase("build")
	mod, err := Build(tree, src)
	if err != nil {
		logger.LogCompileError("build", file, ErrorLine(err), err)
		return "", err
	}
	logger.LogStatements(file, len(mod.Body))

	logger.LogPhase("codegen")
	js, err := Generate(mod)
	if err != nil {
		logger.LogCompileError("codegen", file, ErrorLine(err), err)
		return "", err
	}
	logger.LogPhaseComplete("codegen")
	return js, nil
}

// ErrorLine returns the source line carried by a compile error, or 0.
func ErrorLine(err error) int {
	var syn *SyntaxError
	var rec *ReconstructionError
	var gen *CodegenError
	switch {
	case errors.As(err, &syn):
		return syn.Line
	case errors.As(err, &rec):
		return rec.Line
	case errors.As(err, &gen):
		return gen.Line
	}
	return 0
}

// CompileFiles compiles each path and writes the result to outFor(path).
// Up to limit files are compiled at once; limit <= 0 means no limit. The
// first failure cancels the files that have not started yet.
func CompileFiles(ctx context.Context, paths []string, outFor func(string) string, limit int) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return compileFile(path, outFor(path))
		})
	}
	return g.Wait()
}

func compileFile(path, out string) error {
	logger.LogFileProcessing(path, out)
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	js, err := compileUnit(path, string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := os.WriteFile(out, []byte(js), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	return nil
}
