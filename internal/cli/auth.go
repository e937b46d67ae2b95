package cli

import (
	"github.com/spf13/cobra"

	"github.com/communityboard/board-system/internal/client/session"
	"github.com/communityboard/board-system/internal/core/domain"
)

type whoAmI struct {
	State   string           `json:"state"`
	User    *domain.Identity `json:"user,omitempty"`
	IsAdmin bool             `json:"is_admin"`
}

func currentUser(s *session.Store) whoAmI {
	out := whoAmI{State: s.State().String()}
	if id, ok := s.Identity(); ok {
		out.User = &id
		out.IsAdmin = id.IsAdmin()
	}
	return out
}

func newSignUpCmd(a *app) *cobra.Command {
	var email string
	var admin bool
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, done, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer done()

			email, password, err := a.credentials(cmd, email)
			if err != nil {
				return err
			}
			if admin {
				err = b.Board.Session.SignUpAdmin(cmd.Context(), email, password)
			} else {
				err = b.Board.Session.SignUp(cmd.Context(), email, password)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, currentUser(b.Board.Session))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().BoolVar(&admin, "admin", false, "request the admin role")
	return cmd
}

func newSignInCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, done, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer done()

			email, password, err := a.credentials(cmd, email)
			if err != nil {
				return err
			}
			if err := b.Board.Session.SignIn(cmd.Context(), email, password); err != nil {
				return err
			}
			return printJSON(cmd, currentUser(b.Board.Session))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newSignOutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, done, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer done()

			err = b.Board.Session.SignOut(cmd.Context())
			if perr := printJSON(cmd, currentUser(b.Board.Session)); perr != nil {
				return perr
			}
			return err
		},
	}
}

func newWhoAmICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, done, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer done()
			return printJSON(cmd, currentUser(b.Board.Session))
		},
	}
}
