package compiler

import "strings"

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Preprocess normalises line endings to "\n" and replaces every tab with
// four spaces. It makes no attempt at tab stops: "\t" is always four spaces.
func Preprocess(src string) string {
	src = lineEndings.Replace(src)
	return strings.ReplaceAll(src, "\t", "    ")
}
