package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/communityboard/board-system/internal/core/domain"
)

func newDeleteAccountCmd(a *app) *cobra.Command {
	var confirm string
	cmd := &cobra.Command{
		Use:   "delete-account",
		Short: "Delete the signed-in account and everything it posted",
		Long: fmt.Sprintf(`Deletes your lost-and-found listings, your job posts, your news articles
(admins only), then the account itself, and signs out.

You must type %q exactly. If a step fails, run the command again: it
resumes after the last step that completed.`, domain.ConfirmationPhrase),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, done, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer done()

			if _, ok := b.Board.Session.Identity(); !ok {
				return domain.ErrNotAuthenticated
			}
			if !cmd.Flags().Changed("confirm") {
				confirm, err = a.readLine(cmd, fmt.Sprintf("Type %q to confirm: ", domain.ConfirmationPhrase))
				if err != nil {
					return err
				}
			}

			if err := b.Board.DeleteAccount(cmd.Context(), confirm); err != nil {
				return err
			}
			return printJSON(cmd, currentUser(b.Board.Session))
		},
	}
	cmd.Flags().StringVar(&confirm, "confirm", "", "confirmation phrase, instead of the prompt")
	return cmd
}
