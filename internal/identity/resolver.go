// Package identity maps card identifiers to known owner emails.
package identity

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// Resolver is a static lookup table populated at process start. Resolution is
// pure and side-effect free; unknown identifiers are absent, never errors.
type Resolver struct {
	byIdentifier map[string]string
}

// NewStatic builds a resolver from an in-memory table.
func NewStatic(entries map[string]string) *Resolver {
	table := make(map[string]string, len(entries))
	for identifier, email := range entries {
		identifier = strings.TrimSpace(identifier)
		email = strings.TrimSpace(email)
		if identifier == "" || email == "" {
			continue
		}
		table[identifier] = email
	}
	return &Resolver{byIdentifier: table}
}

// NewFromFile loads "identifier,email" lines. Blank lines and lines starting
// with '#' are skipped.
func NewFromFile(path string) (*Resolver, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open resolver table: %w", err)
	}
	defer f.Close()

	entries := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		identifier, email, ok := strings.Cut(line, ",")
		if !ok {
			return nil, fmt.Errorf("resolver table line %d: expected identifier,email", lineNo)
		}
		entries[identifier] = email
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read resolver table: %w", err)
	}

	return NewStatic(entries), nil
}

// Resolve returns the owner email for identifier, or ok=false when the
// identifier is unknown or unset.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (string, bool) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", false
	}
	email, ok := r.byIdentifier[identifier]
	return email, ok
}

// Len returns the number of known identifiers, for startup logging.
func (r *Resolver) Len() int { return len(r.byIdentifier) }
