package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"tplc/internal/domain"
)

// terminalPrompter reads credentials and MFA codes interactively.
// Passwords are read without echo.
type terminalPrompter struct{}

func (p *terminalPrompter) Credentials(_ context.Context) (domain.Credentials, error) {
	username, err := readLine("TP-Link email: ")
	if err != nil {
		return domain.Credentials{}, err
	}

	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("reading password: %w", err)
	}

	return domain.Credentials{
		Username: username,
		Password: string(password),
	}, nil
}

func (p *terminalPrompter) MFACode(_ context.Context, provider domain.Provider, email string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s MFA verification required for %s\n", provider, email)
	return readLine(fmt.Sprintf("Enter %s MFA code: ", provider))
}

func readLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
