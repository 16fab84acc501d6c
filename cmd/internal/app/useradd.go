package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"filefly/cmd/accounts"
)

// UserAddOptions are the inputs of "filefly useradd".
type UserAddOptions struct {
	ConfigPath string
	Name       string
	Root       bool
	// SkipChecks bypasses name and password policy (never the existence check).
	SkipChecks bool
}

// UserAdd is the "filefly useradd" entrypoint. The password is prompted twice on a
// terminal, or read from the first line of stdin otherwise.
func UserAdd(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("useradd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opt UserAddOptions
	fs.StringVar(&opt.ConfigPath, "config", "", "path to filefly.yaml")
	fs.StringVar(&opt.Name, "name", "", "account name")
	fs.BoolVar(&opt.Root, "root", false, "grant root")
	fs.BoolVar(&opt.SkipChecks, "skip-checks", false, "skip name and password policy checks")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if opt.Name == "" && fs.NArg() > 0 {
		opt.Name = fs.Arg(0)
	}
	if opt.Name == "" {
		return errors.New("useradd: account name is required")
	}

	pass, err := readPassword(stdin, stderr)
	if err != nil {
		return err
	}

	cfg, err := LoadConfig(opt.ConfigPath)
	if err != nil {
		return err
	}
	log := NewLogger(cfg.Log.Level, cfg.Log.Format, false, stderr)

	acct, err := addUser(context.Background(), cfg, log, opt, pass)
	if err != nil {
		if code := accounts.KindOf(err); code != "" {
			return fmt.Errorf("useradd: %s", code)
		}
		return err
	}
	fmt.Fprintf(stdout, "created %s (%s) root=%t\n", acct.Name, acct.Identifier, acct.Root)
	return nil
}

func addUser(ctx context.Context, cfg Config, log Logger, opt UserAddOptions, pass string) (accounts.Account, error) {
	backend, release, err := openBackend(ctx, cfg.Storage, log)
	if err != nil {
		return accounts.Account{}, err
	}
	defer release()

	svc, err := accounts.NewService(backend, cfg.Accounts, log)
	if err != nil {
		_ = backend.Close()
		return accounts.Account{}, err
	}
	defer func() { _ = svc.Close() }()

	in := accounts.CreateInput{Name: opt.Name, Password: pass, Root: opt.Root}
	if err := svc.Create(ctx, in, opt.SkipChecks); err != nil {
		return accounts.Account{}, err
	}
	return svc.Get(ctx, opt.Name)
}

func readPassword(stdin io.Reader, stderr io.Writer) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return promptPassword(int(f.Fd()), stderr)
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	pass := strings.TrimRight(line, "\r\n")
	if pass == "" {
		return "", errors.New("useradd: empty password on stdin")
	}
	return pass, nil
}

func promptPassword(fd int, stderr io.Writer) (string, error) {
	for {
		fmt.Fprint(stderr, "Password: ")
		p1, err := term.ReadPassword(fd)
		fmt.Fprintln(stderr)
		if err != nil {
			return "", err
		}
		fmt.Fprint(stderr, "Confirm password: ")
		p2, err := term.ReadPassword(fd)
		fmt.Fprintln(stderr)
		if err != nil {
			return "", err
		}
		if len(p1) == 0 {
			fmt.Fprintln(stderr, "password cannot be empty")
			continue
		}
		if string(p1) != string(p2) {
			fmt.Fprintln(stderr, "passwords do not match")
			continue
		}
		return string(p1), nil
	}
}
