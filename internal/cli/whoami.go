package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWhoAmICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the account the saved credential belongs to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}

			cred, err := rt.store().RequireValid()
			if err != nil {
				return err
			}

			identity, err := rt.client().WhoAmI(cmd.Context(), cred)
			if err != nil {
				return err
			}

			name := identity.Email
			if identity.Name != "" {
				name = fmt.Sprintf("%s <%s>", identity.Name, identity.Email)
			}
			_, _ = fmt.Fprintf(rt.out, "Logged in as %s on %s\n", name, rt.cfg.ServerURL)
			if identity.Role != "" {
				_, _ = fmt.Fprintf(rt.out, "Role: %s\n", identity.Role)
			}
			if cred.ExpiresAt != nil {
				_, _ = fmt.Fprintf(rt.out, "Token expires: %s\n", cred.ExpiresAt.Local().Format("2006-01-02 15:04 MST"))
			}
			return nil
		},
	}
}
