package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/franciscosanchezn/gin-chat-auth/internal/credentials"
	"github.com/franciscosanchezn/gin-chat-auth/internal/deviceflow"
	"github.com/mdp/qrterminal/v3"
	"github.com/spf13/cobra"
)

var (
	codeStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63"))
	urlStyle = lipgloss.NewStyle().
			Underline(true).
			Foreground(lipgloss.Color("39"))
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

func newLoginCommand() *cobra.Command {
	var force, noQR bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize this machine through the browser",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			store := rt.store()

			if !force {
				proceed, err := rt.confirmReplace(store)
				if err != nil || !proceed {
					return err
				}
			}

			api := rt.client()
			reg, err := api.RequestDeviceCode(cmd.Context())
			if err != nil {
				return fmt.Errorf("device registration failed: %w", err)
			}

			rt.printInstructions(reg, !noQR)

			// Ctrl-C stops polling; the server side request simply expires
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cred, err := rt.poller(api).Poll(ctx, *reg)
			if err != nil {
				return err
			}

			if err := store.Save(cred); err != nil {
				rt.log.WithError(err).Warn("Login succeeded but the credential could not be saved; you will need to log in again next time")
			}

			_, _ = fmt.Fprintf(rt.out, "Logged in%s.\n", describeUser(cred.User))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing credential without asking")
	cmd.Flags().BoolVar(&noQR, "no-qr", false, "Do not render the verification URL as a QR code")
	return cmd
}

// confirmReplace decides whether a login should proceed when a usable
// credential is already cached
func (rt *runtimeState) confirmReplace(store *credentials.Store) (bool, error) {
	existing, ok, err := store.Load()
	if err != nil {
		rt.log.WithError(err).Warn("Ignoring unreadable credential file")
		return true, nil
	}
	if !ok || store.IsExpired(existing) {
		return true, nil
	}

	if !rt.interactive {
		_, _ = fmt.Fprintf(rt.out, "Already logged in%s. Use --force to log in again.\n", describeUser(existing.User))
		return false, nil
	}

	replace, err := rt.confirm(
		fmt.Sprintf("Already logged in%s", describeUser(existing.User)),
		"Log in again and replace the saved credential?",
	)
	if err != nil {
		return false, err
	}
	if !replace {
		_, _ = fmt.Fprintln(rt.out, "Keeping the existing credential.")
	}
	return replace, nil
}

func (rt *runtimeState) printInstructions(reg *deviceflow.Registration, showQR bool) {
	_, _ = fmt.Fprintf(rt.out, "Open %s and enter the code:\n\n", urlStyle.Render(reg.VerificationURI))
	_, _ = fmt.Fprintln(rt.out, codeStyle.Render(reg.UserCode))
	_, _ = fmt.Fprintln(rt.out)

	if showQR {
		qrterminal.GenerateWithConfig(reg.VerificationURL(), qrterminal.Config{
			Level:     qrterminal.L,
			Writer:    rt.out,
			BlackChar: qrterminal.BLACK,
			WhiteChar: qrterminal.WHITE,
			QuietZone: 2,
		})
	}

	_, _ = fmt.Fprintln(rt.out, dimStyle.Render(fmt.Sprintf("Waiting for approval (code expires in %s)...", reg.Lifetime())))
}

func promptConfirm(title, description string) (bool, error) {
	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Value(&confirmed).
				Affirmative("Yes").
				Negative("No"),
		),
	)
	if err := form.WithTheme(huh.ThemeBase()).Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

func describeUser(user *credentials.UserSnapshot) string {
	if user == nil {
		return ""
	}
	if user.Name == "" {
		return " as " + user.Email
	}
	return fmt.Sprintf(" as %s <%s>", user.Name, user.Email)
}

