package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/varsilias/bubblechat/internal/chatclient"
	"github.com/varsilias/bubblechat/internal/config"
	"github.com/varsilias/bubblechat/internal/console"
	"github.com/varsilias/bubblechat/internal/logging"
	"github.com/varsilias/bubblechat/internal/persona"
	"github.com/varsilias/bubblechat/internal/remote"
	"github.com/varsilias/bubblechat/internal/render"
	"github.com/varsilias/bubblechat/internal/tui"
	"github.com/varsilias/bubblechat/pkg/types"
)

const consoleWidth = 80

func newChatCmd() *cobra.Command {
	var (
		endpoint string
		role     string
		style    string
		length   string
		ordered  bool
		htmlLog  string
		plain    bool
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with a running service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClient()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("endpoint") {
				cfg.Endpoint = endpoint
			}
			if flags.Changed("role") {
				cfg.Role = role
			}
			if flags.Changed("style") {
				cfg.Style = style
			}
			if flags.Changed("length") {
				cfg.Length = length
			}
			if flags.Changed("ordered") {
				cfg.Ordered = ordered
			}
			if flags.Changed("html-log") {
				cfg.HTMLLog = htmlLog
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			interactive := !plain && isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
			return runChat(ctx, cfg, interactive)
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "chat service URL (CHAT_ENDPOINT)")
	cmd.Flags().StringVar(&role, "role", "", "bot role (CHAT_ROLE)")
	cmd.Flags().StringVar(&style, "style", "", "reply style (CHAT_STYLE)")
	cmd.Flags().StringVar(&length, "length", "", "reply length (CHAT_LENGTH)")
	cmd.Flags().BoolVar(&ordered, "ordered", false, "show replies in the order messages were sent (CHAT_ORDERED)")
	cmd.Flags().StringVar(&htmlLog, "html-log", "", "append the conversation to this HTML file (CHAT_HTML_LOG)")
	cmd.Flags().BoolVar(&plain, "plain", false, "line mode even on a terminal")
	return cmd
}

func runChat(ctx context.Context, cfg *config.Client, interactive bool) error {
	logger, closeLog, err := clientLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	svc := remote.New(cfg.Endpoint, logger)
	params := types.Params{Role: cfg.Role, Style: cfg.Style, Length: cfg.Length}

	var opts []chatclient.Option
	if cfg.Ordered {
		opts = append(opts, chatclient.WithOrderedCompletions())
	}

	var mirror chatclient.Log
	if cfg.HTMLLog != "" {
		f, err := os.OpenFile(cfg.HTMLLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return errors.Wrap(err, "open html log")
		}
		defer f.Close()
		mirror = render.NewHTML(logger, f)
	}

	if interactive {
		return runTUI(ctx, logger, svc, params, mirror, opts)
	}
	return runConsole(ctx, logger, svc, params, mirror, opts)
}

func runTUI(ctx context.Context, logger *slog.Logger, svc *remote.Service, params types.Params, mirror chatclient.Log, opts []chatclient.Option) error {
	defaults := persona.Default()
	m, err := tui.New(ctx, logger, svc, tui.Options{
		Params: params,
		Choices: remote.Options{
			Roles:   defaults.Names(persona.KindRole),
			Styles:  defaults.Names(persona.KindStyle),
			Lengths: defaults.Names(persona.KindLength),
		},
		LoadChoices: svc.Options,
		Mirror:      mirror,
	}, opts...)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func runConsole(ctx context.Context, logger *slog.Logger, svc *remote.Service, params types.Params, mirror chatclient.Log, opts []chatclient.Option) error {
	glamourStyle := "notty"
	if isatty.IsTerminal(os.Stdout.Fd()) {
		glamourStyle = "dark"
	}
	styler, err := render.NewStyler(consoleWidth, glamourStyle)
	if err != nil {
		return err
	}
	var view chatclient.Log = render.NewTerminal(os.Stdout, styler)
	if mirror != nil {
		view = render.Multi{view, mirror}
	}
	err = console.New(logger, svc, view, os.Stderr, params, opts...).Run(ctx, os.Stdin)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// clientLogger logs to CHAT_LOG_FILE, or nowhere: the terminal belongs to the conversation.
func clientLogger(cfg *config.Client) (*slog.Logger, func(), error) {
	if cfg.LogFile == "" {
		return logging.Discard(), func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open log file")
	}
	return logging.New(f, cfg.LogLevel, false), func() { _ = f.Close() }, nil
}
