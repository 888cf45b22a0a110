package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/franciscosanchezn/gin-chat-auth/internal/client"
	"github.com/franciscosanchezn/gin-chat-auth/internal/config"
	"github.com/franciscosanchezn/gin-chat-auth/internal/credentials"
	"github.com/franciscosanchezn/gin-chat-auth/internal/deviceflow"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"k8s.io/utils/clock"
)

// Config wires the command tree to its environment. Zero values fall back
// to the process's stdio and the real clock.
type Config struct {
	Out   io.Writer
	Err   io.Writer
	Clock clock.Clock
	// Interactive overrides terminal detection when set
	Interactive *bool
	// Confirm asks a yes/no question; defaults to a huh prompt
	Confirm func(title, description string) (bool, error)
}

type runtimeState struct {
	verbose     bool
	cfg         config.CLIConfig
	out         io.Writer
	errOut      io.Writer
	log         *logrus.Logger
	clock       clock.Clock
	interactive bool
	confirm     func(title, description string) (bool, error)
}

type runtimeKey struct{}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{
		out:     cfg.Out,
		errOut:  cfg.Err,
		clock:   cfg.Clock,
		confirm: cfg.Confirm,
	}
	if rt.out == nil {
		rt.out = os.Stdout
	}
	if rt.errOut == nil {
		rt.errOut = os.Stderr
	}
	if rt.clock == nil {
		rt.clock = clock.RealClock{}
	}
	if rt.confirm == nil {
		rt.confirm = promptConfirm
	}

	root := &cobra.Command{
		Use:           "chat",
		Short:         "Chat assistant command line client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			rt.log = newLogger(rt.errOut, rt.verbose)

			if err := godotenv.Load(); err != nil {
				rt.log.Debug("No .env file found, using system environment variables")
			}

			v, err := config.NewCLIViper(cmd.Flags())
			if err != nil {
				return err
			}
			rt.cfg = config.ResolveCLIConfig(v)
			if cfg.Interactive != nil {
				rt.interactive = *cfg.Interactive
			} else {
				rt.interactive = term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
			}

			rt.log.WithFields(logrus.Fields{
				"server":      rt.cfg.ServerURL,
				"client_id":   rt.cfg.ClientID,
				"credentials": rt.cfg.CredentialsPath,
			}).Debug("Resolved configuration")
			return nil
		},
	}

	config.AddCLIFlags(root.PersistentFlags())
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Enable debug logging")

	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))
	root.SetOut(rt.out)
	root.SetErr(rt.errOut)

	root.AddCommand(
		newLoginCommand(),
		newLogoutCommand(),
		newWhoAmICommand(),
	)

	return root
}

func newLogger(out io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(logrus.WarnLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

func (rt *runtimeState) store() *credentials.Store {
	return credentials.NewStore(rt.cfg.CredentialsPath, credentials.WithClock(rt.clock))
}

func (rt *runtimeState) client() *client.Client {
	return client.New(rt.cfg, client.WithClock(rt.clock), client.WithLogger(rt.log))
}

func (rt *runtimeState) poller(exchanger deviceflow.Exchanger) *deviceflow.Poller {
	return deviceflow.NewPoller(exchanger, deviceflow.WithClock(rt.clock), deviceflow.WithLogger(rt.log))
}
