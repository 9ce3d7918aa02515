package main

import (
	"fmt"
	"os"

	lx "github.com/tinyrange/bfc/internal/lexer"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: debug_tokens <file>")
		os.Exit(2)
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	l := lx.New(data)
	for {
		t := l.Next()
		fmt.Printf("%-6s %q at %d:%d\n", t.Type, t.Type.Char(), t.Line, t.Col)
		if t.Type == lx.EOF {
			break
		}
	}
}
