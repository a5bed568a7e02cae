package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/99minutos/console-auth/internal/core/domain"
	"github.com/99minutos/console-auth/internal/core/ports"
)

func (c *CLI) loginCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := c.valueOrPrompt(email, "Email")
			if err != nil {
				return err
			}
			password, err := c.prompt.Secret("Password")
			if err != nil {
				return err
			}
			got, err := c.app.Dispatch(cmd.Context(), domain.Login(email, password),
				domain.ActionLoginSuccess, domain.ActionLoginFailure)
			if err != nil {
				return err
			}
			return c.reportSignIn(got)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func (c *CLI) registerCmd() *cobra.Command {
	var email, firstName string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := c.valueOrPrompt(email, "Email")
			if err != nil {
				return err
			}
			firstName, err := c.valueOrPrompt(firstName, "First name")
			if err != nil {
				return err
			}
			password, err := c.prompt.Secret("Password")
			if err != nil {
				return err
			}
			got, err := c.app.Dispatch(cmd.Context(), domain.Register(email, firstName, password),
				domain.ActionRegisterSuccess, domain.ActionRegisterFailure)
			if err != nil {
				return err
			}
			if got.Err != nil {
				return got.Err
			}
			fmt.Fprintf(c.out, "Registered %s. Sign in with `authctl login`.\n", got.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVar(&firstName, "first-name", "", "first name")
	return cmd
}

func (c *CLI) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the persisted session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.app.Dispatch(cmd.Context(), domain.Logout(), domain.ActionLogoutSuccess); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Signed out.")
			return nil
		},
	}
}

func (c *CLI) signOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the session and sign out of the identity provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Service.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Signed out.")
			return nil
		},
	}
}

func (c *CLI) resetPasswordCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Ask the backend to send a password reset email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := c.valueOrPrompt(email, "Email")
			if err != nil {
				return err
			}
			raw, err := c.app.Service.ResetPassword(cmd.Context(), email)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, string(raw))
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func (c *CLI) socialCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "social {google|facebook}",
		Short:     "Sign in with an identity provider",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{ports.ProviderGoogle, ports.ProviderFacebook},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := domain.SignInWithGoogle()
			if args[0] == ports.ProviderFacebook {
				action = domain.SignInWithFacebook()
			}
			got, err := c.app.Dispatch(cmd.Context(), action, domain.ActionLoginSuccess, domain.ActionLoginFailure)
			if err != nil {
				return err
			}
			return c.reportSignIn(got)
		},
	}
}

func (c *CLI) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user := c.app.Service.CurrentUser()
			if user == nil {
				return domain.ErrNoSession
			}
			if user.ID != "" {
				fmt.Fprintf(c.out, "ID:    %s\n", user.ID)
			}
			fmt.Fprintf(c.out, "Email: %s\n", user.Email)
			if user.FirstName != "" {
				fmt.Fprintf(c.out, "Name:  %s\n", user.FirstName)
			}
			fmt.Fprintf(c.out, "Role:  %s\n", user.EffectiveRole())
			return nil
		},
	}
}

func (c *CLI) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local agent API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := c.app.Serve(cmd.Context())
			if err != nil && cmd.Context().Err() != nil {
				return nil
			}
			return err
		},
	}
}

func (c *CLI) reportSignIn(got domain.Action) error {
	if got.Err != nil {
		return got.Err
	}
	fmt.Fprintf(c.out, "Signed in as %s (%s).\n", got.User.Email, got.User.EffectiveRole())
	return nil
}

func (c *CLI) valueOrPrompt(value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	return c.prompt.Line(label)
}
