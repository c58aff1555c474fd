package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"propgen/internal/database"
)

// promptOraclePassword asks for the Oracle password when output is the bare
// "oracle:" form, no password is configured and stdin is a terminal.
func promptOraclePassword(output string, cfg *database.DBConfig) error {
	scheme, rest, ok := strings.Cut(output, ":")
	if !ok || !strings.EqualFold(scheme, "oracle") || strings.TrimPrefix(rest, "//") != "" {
		return nil
	}
	if cfg.Password != "" {
		return nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}

	fmt.Fprintf(os.Stderr, "Oracle password for %s@%s:%s/%s: ", cfg.Username, cfg.Host, cfg.Port, cfg.Service)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	cfg.Password = string(pw)
	return nil
}

// confirm asks a yes/no question on stdin, defaulting to no.
func confirm(question string) bool {
	fmt.Print(question + " (y/N): ")
	resp, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	resp = strings.ToLower(strings.TrimSpace(resp))
	return resp == "y" || resp == "yes"
}
