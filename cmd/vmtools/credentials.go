package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nirarg/vmtools/internal/config"
	"golang.org/x/term"
)

var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// promptCredentials asks for whichever of username and password is missing
// from creds and fills it in. The password is read without echo when stdin is
// a terminal; otherwise it is read as a plain line so the tool can be fed from
// automation.
func promptCredentials(in *bufio.Reader, out io.Writer, fd int, creds *config.VSphereConfig) error {
	if creds.HasCredentials() {
		return nil
	}

	fmt.Fprintln(out, "\nIn order to connect to vSphere, please provide your authentication details.")

	if creds.Username == "" {
		fmt.Fprint(out, "Username: ")
		line, err := readLine(in)
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		creds.Username = strings.TrimSpace(line)
	}

	if creds.Password == "" {
		fmt.Fprint(out, "Password: ")
		if isTerminal(fd) {
			bytePassword, err := readPassword(fd)
			fmt.Fprintln(out)
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			creds.Password = string(bytePassword)
		} else {
			line, err := readLine(in)
			fmt.Fprintln(out)
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			creds.Password = line
		}
	}

	return nil
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
