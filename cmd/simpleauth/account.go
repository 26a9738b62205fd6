// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/holomush/simpleauth/internal/auth"
)

// NewAccountCmd creates the account command group.
func NewAccountCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Create, verify and delete accounts",
	}
	cmd.AddCommand(
		newAccountCreateCmd(opts),
		newAccountVerifyCmd(opts),
		newAccountDeleteCmd(opts),
	)
	return cmd
}

type accountCreateFlags struct {
	email    string
	login    string
	username string
	password string
}

func newAccountCreateCmd(opts *rootOptions) *cobra.Command {
	flags := &accountCreateFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Long: `Create an account with at least one identifier. The password is read
from --password or prompted for twice.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAccountCreate(cmd, opts, flags)
		},
	}
	cmd.Flags().StringVar(&flags.email, "email", "", "email address")
	cmd.Flags().StringVar(&flags.login, "login", "", "login name")
	cmd.Flags().StringVar(&flags.username, "username", "", "username")
	cmd.Flags().StringVar(&flags.password, "password", "", "password (prompted when omitted)")
	return cmd
}

func runAccountCreate(cmd *cobra.Command, opts *rootOptions, flags *accountCreateFlags) error {
	password, confirmation := flags.password, flags.password
	if !cmd.Flags().Changed("password") {
		in := newPrompter(cmd)
		var err error
		if password, err = in.secret("Password: "); err != nil {
			return err
		}
		if confirmation, err = in.secret("Confirm password: "); err != nil {
			return err
		}
	}

	a, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := auth.NewAccountService(a.backend.Accounts, a.backend.Sessions, a.cfg.Hasher(), auth.WithLogger(a.logger))
	if err != nil {
		return err
	}

	account := auth.NewAccount(flags.email, flags.login, flags.username)
	account.SetPassword(password, confirmation)
	if err := svc.Save(cmd.Context(), account); err != nil {
		return err
	}
	cmd.Printf("created account %s\n", account.ID)
	return nil
}

func newAccountVerifyCmd(opts *rootOptions) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "verify IDENTIFIER",
		Short: "Check a password against the configured credential fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("password") {
				var err error
				if password, err = newPrompter(cmd).secret("Password: "); err != nil {
					return err
				}
			}
			return runAccountVerify(cmd, opts, args[0], password)
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func runAccountVerify(cmd *cobra.Command, opts *rootOptions, identifier, password string) error {
	a, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	authn, err := auth.NewAuthenticator(a.authCfg, a.backend.Accounts, a.cfg.Hasher(), auth.WithLogger(a.logger))
	if err != nil {
		return err
	}
	account, err := authn.Authenticate(cmd.Context(), identifier, password)
	if err != nil {
		return err
	}
	if account == nil {
		return oops.Code("AUTH_FAILED").Errorf("invalid credentials")
	}
	cmd.Printf("authenticated account %s\n", account.ID)
	return nil
}

func newAccountDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an account and its sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ulid.Parse(args[0])
			if err != nil {
				return oops.Code("INVALID_ACCOUNT_ID").With("input", args[0]).Wrap(err)
			}

			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			svc, err := auth.NewAccountService(a.backend.Accounts, a.backend.Sessions, a.cfg.Hasher(), auth.WithLogger(a.logger))
			if err != nil {
				return err
			}
			if err := svc.Delete(cmd.Context(), id); err != nil {
				return err
			}
			cmd.Printf("deleted account %s\n", id)
			return nil
		},
	}
}

// prompter reads secrets from the terminal without echo, or line by line
// when input is not a terminal.
type prompter struct {
	out    io.Writer
	in     io.Reader
	lines  *bufio.Reader
	termFd int
}

func newPrompter(cmd *cobra.Command) *prompter {
	p := &prompter{out: cmd.ErrOrStderr(), in: cmd.InOrStdin(), termFd: -1}
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.termFd = int(f.Fd())
	} else {
		p.lines = bufio.NewReader(p.in)
	}
	return p
}

func (p *prompter) secret(prompt string) (string, error) {
	_, _ = io.WriteString(p.out, prompt)
	if p.termFd >= 0 {
		b, err := term.ReadPassword(p.termFd)
		_, _ = io.WriteString(p.out, "\n")
		if err != nil {
			return "", oops.Code("PROMPT_FAILED").Wrap(err)
		}
		return string(b), nil
	}
	line, err := p.lines.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", oops.Code("PROMPT_FAILED").Wrap(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
