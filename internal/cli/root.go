// Package cli is the authctl command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/99minutos/console-auth/internal/app"
	"github.com/99minutos/console-auth/internal/infrastructure/config"
	"github.com/99minutos/console-auth/pkg/logger"
)

// CLI holds the command tree and the state shared by its commands.
type CLI struct {
	root   *cobra.Command
	out    io.Writer
	prompt Prompter

	verbose bool
	authAPI string
	storage string

	// opts is handed to app.New; tests swap the storage and opener.
	opts app.Options
	app  *app.App
}

// New builds the command tree. in and out are the terminal streams.
func New(in io.Reader, out io.Writer) *CLI {
	c := &CLI{out: out, prompt: newTerminalPrompter(in, out)}
	c.opts.Opener = c.printURL
	c.opts.OnNavigate = func(_, to string) {
		fmt.Fprintf(c.out, "→ %s\n", to)
	}

	c.root = &cobra.Command{
		Use:           "authctl",
		Short:         "Sign in to the operations console from the terminal.",
		Long:          "Sign in to the operations console from the terminal, manage the persisted session and run the local agent API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close(context.WithoutCancel(cmd.Context()))
		},
	}
	c.root.SetOut(out)
	c.root.SetErr(out)

	c.root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "print debug logs")
	c.root.PersistentFlags().StringVar(&c.authAPI, "auth-api", "", "auth backend base URL (overrides AUTH_API)")
	c.root.PersistentFlags().StringVar(&c.storage, "storage", "", "session storage driver: file, redis, mongo or memory (overrides STORAGE_DRIVER)")

	c.root.AddCommand(
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.signOutCmd(),
		c.resetPasswordCmd(),
		c.socialCmd(),
		c.whoamiCmd(),
		c.serveCmd(),
	)
	return c
}

func (c *CLI) setup(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if c.authAPI != "" {
		cfg.AuthAPI = c.authAPI
	}
	if c.storage != "" {
		cfg.Storage.Driver = c.storage
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Verbose: c.verbose, Pretty: cfg.LogPretty})

	a, err := app.New(ctx, cfg, log, c.opts)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func (c *CLI) printURL(authURL string) error {
	_, err := fmt.Fprintf(c.out, "Open this URL in your browser to continue:\n\n  %s\n\n", authURL)
	return err
}

// ExecuteContext runs the command line in args.
func (c *CLI) ExecuteContext(ctx context.Context, args []string) error {
	c.root.SetArgs(args)
	return c.root.ExecuteContext(ctx)
}

// Execute runs os.Args and exits non-zero on failure.
func Execute(ctx context.Context) {
	c := New(os.Stdin, os.Stdout)
	if err := c.ExecuteContext(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
