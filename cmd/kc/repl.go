package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"klang/internal/compiler"
	"klang/internal/diag"
	"klang/internal/source"
)

// ---- ANSI colors ----

const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

// ---- repl command ----

// cmdRepl runs an interactive loop: each balanced-brace snippet goes
// through the full pipeline, and the resulting module IR is printed on
// success.
func cmdRepl() {
	// Determine history file path (~/.kc_history)
	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".kc_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            colorGreen + "kc> " + colorReset,
		HistoryFile:       historyFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline init failed: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	// Welcome banner
	fmt.Fprintf(rl.Stdout(), "%s%sklang REPL%s %s(type 'exit' or Ctrl+D to quit)%s\n\n",
		colorBold, colorCyan, colorReset, colorGray, colorReset)

	renderer := diag.NewRenderer(rl.Stderr())
	renderer.Color = true

	var accumulated strings.Builder
	braceDepth := 0

	for {
		// Update prompt based on multi-line state
		if braceDepth > 0 {
			rl.SetPrompt(colorGray + "... " + colorReset)
		} else {
			rl.SetPrompt(colorGreen + "kc> " + colorReset)
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if braceDepth > 0 {
					// Cancel multi-line input
					accumulated.Reset()
					braceDepth = 0
					continue
				}
				fmt.Fprintf(rl.Stdout(), "\n%s(use 'exit' or Ctrl+D to quit)%s\n", colorGray, colorReset)
				continue
			}
			// EOF (Ctrl+D) or other error → exit
			if err == io.EOF {
				fmt.Fprintln(rl.Stdout())
			}
			break
		}

		// Exit command
		if braceDepth == 0 && strings.TrimSpace(line) == "exit" {
			break
		}

		// Count braces for multi-line input
		braceDepth += strings.Count(line, "{") - strings.Count(line, "}")
		accumulated.WriteString(line)
		accumulated.WriteString("\n")

		// If braces are unbalanced, keep reading
		if braceDepth > 0 {
			continue
		}
		braceDepth = 0

		text := accumulated.String()
		accumulated.Reset()

		// Skip empty input
		if strings.TrimSpace(text) == "" {
			continue
		}

		file := source.NewFile("<repl>", text)
		mod, err := compiler.Compile(file)
		if err != nil {
			if d, ok := err.(*diag.Diagnostic); ok {
				renderer.Render(d, file)
			} else {
				fmt.Fprintf(rl.Stderr(), "error: %v\n", err)
			}
			continue
		}
		fmt.Fprint(rl.Stdout(), mod.String())
	}
}
