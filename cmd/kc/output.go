package main

import (
	"encoding/json"
	"fmt"
	"os"

	"klang/internal/token"
)

// ---- output helpers ----

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "error: JSON encoding failed: %v\n", err)
		os.Exit(1)
	}
}

func printTokensText(tokens []token.Token) {
	for _, tok := range tokens {
		fmt.Printf("%-12s %-20s %d:%d\n", tok.Kind, tok.Lexeme, tok.Span.Start.Line, tok.Span.Start.Column)
	}
}

func printTokensJSON(tokens []token.Token, lexErr error) {
	type tokenJSON struct {
		Kind   string  `json:"kind"`
		Lexeme string  `json:"lexeme"`
		Value  float64 `json:"value,omitempty"`
		Line   int     `json:"line"`
		Column int     `json:"column"`
		Offset int     `json:"offset"`
	}

	var toks []tokenJSON
	for _, tok := range tokens {
		toks = append(toks, tokenJSON{
			Kind:   tok.Kind.String(),
			Lexeme: tok.Lexeme,
			Value:  tok.Value,
			Line:   tok.Span.Start.Line,
			Column: tok.Span.Start.Column,
			Offset: tok.Span.Start.Offset,
		})
	}

	output := map[string]interface{}{"tokens": toks}
	if lexErr != nil {
		output["error"] = lexErr.Error()
	}
	printJSON(output)
}
