package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved credential",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			store := rt.store()

			_, ok, err := store.Load()
			if err != nil {
				rt.log.WithError(err).Debug("Credential file unreadable, removing it anyway")
			}
			if err := store.Clear(); err != nil {
				return err
			}

			if ok {
				_, _ = fmt.Fprintln(rt.out, "Logged out.")
			} else {
				_, _ = fmt.Fprintln(rt.out, "Not logged in.")
			}
			return nil
		},
	}
}
