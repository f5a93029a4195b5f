package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/komsit37/marginview/pkg/mv/columns"
	"github.com/komsit37/marginview/pkg/mv/config"
	"github.com/komsit37/marginview/pkg/mv/logging"
	"github.com/komsit37/marginview/pkg/mv/notify"
	"github.com/komsit37/marginview/pkg/mv/pipeline"
	"github.com/komsit37/marginview/pkg/mv/render"
	"github.com/komsit37/marginview/pkg/mv/source"
	"github.com/komsit37/marginview/pkg/mv/span"
	"github.com/komsit37/marginview/pkg/mv/tui"
	"github.com/komsit37/marginview/pkg/mv/window"
)

type app struct {
	v       *viper.Viper
	cfgPath string
	cfg     *config.Config
	logFile *os.File
	remote  *notify.Async
}

func main() {
	a := &app{v: config.New()}
	root := a.rootCmd()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	if a.remote != nil {
		_ = a.remote.Wait(ctx)
	}
	stop()
	if a.logFile != nil {
		a.logFile.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "marginview",
		Short:        "Margin balance to float market cap ratio dashboard",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(".env"); err != nil {
				return err
			}
			cfg, err := config.Load(a.v, a.cfgPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "config file (default ./mv.yaml or $HOME/.config/mv/mv.yaml)")
	pf.String("source", "", "data source kind: "+strings.Join(source.Kinds(), ", "))
	pf.String("log-level", "", "log level: debug, info, warn, error")
	_ = a.v.BindPFlag("source.kind", pf.Lookup("source"))
	_ = a.v.BindPFlag("log.level", pf.Lookup("log-level"))

	view := a.viewCmd()
	root.RunE = view.RunE
	root.AddCommand(view, a.showCmd(), a.pngCmd(), a.sourcesCmd())
	return root
}

// logger writes to the configured log file, or to stderr when toFile is
// false. The dashboard owns the terminal so it always logs to a file.
func (a *app) logger(toFile bool) (*slog.Logger, error) {
	var w io.Writer = os.Stderr
	if toFile {
		path := a.cfg.Log.File
		if path == "" {
			path = logging.DefaultFile()
		}
		f, err := logging.OpenFile(path)
		if err != nil {
			return nil, err
		}
		a.logFile = f
		w = f
	}
	l := logging.New(a.cfg.Log.Level, a.cfg.Log.Format, w)
	slog.SetDefault(l)
	return l, nil
}

// controller wires the configured source and notifiers. extra receives
// load-failure notices too.
func (a *app) controller(log *slog.Logger, extra ...notify.Notifier) (*window.Controller, error) {
	src, err := source.New(a.cfg.Source)
	if err != nil {
		return nil, err
	}
	notifiers := notify.Multi{notify.Log{Logger: log}}
	notifiers = append(notifiers, extra...)
	if tg := a.cfg.Notify.Telegram; tg.Enabled() {
		a.remote = notify.NewAsync(notify.NewTelegram(tg.BotToken, tg.ChatID, a.cfg.Source.Proxy), notify.DefaultAsyncTimeout, log)
		notifiers = append(notifiers, a.remote)
		log.Info("telegram notifications enabled", "chat_id", tg.ChatID)
	}
	return window.New(src,
		window.WithDefaultWindow(a.cfg.Window.Default),
		window.WithNotifier(notifiers),
		window.WithLogger(log),
	), nil
}

func (a *app) viewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Interactive terminal dashboard (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := a.logger(true)
			if err != nil {
				return err
			}
			notices := notify.NewChannel(4)
			ctrl, err := a.controller(log, notices)
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), tui.Options{
				Controller:      ctrl,
				Notices:         notices,
				Title:           a.cfg.UI.Title,
				Toast:           a.cfg.Toast(),
				HandleTolerance: a.cfg.UI.HandleTolerance,
				RefreshCron:     a.cfg.Refresh.Cron,
				Logger:          log,
			})
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	var (
		spanExpr string
		fmtName  string
		cols     []string
		sets     []string
		pretty   bool
		noColor  bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the selected window as a table, csv, markdown or json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := a.logger(false)
			if err != nil {
				return err
			}
			sp, err := span.Parse(spanExpr)
			if err != nil {
				return err
			}
			r, err := render.ForFormat(fmtName)
			if err != nil {
				return err
			}
			fromSets, err := columns.ExpandSets(sets)
			if err != nil {
				return err
			}
			keys := columns.Compute(append(fromSets, cols...))
			if err := columns.Validate(keys); err != nil {
				return err
			}
			maxWidth := 0
			if w := detectTerminalWidth(); w > 0 && len(keys) > 0 {
				maxWidth = w / len(keys)
			}
			ctrl, err := a.controller(log)
			if err != nil {
				return err
			}
			runner := &pipeline.Runner{Controller: ctrl, Renderer: r, Writer: cmd.OutOrStdout(), Logger: log}
			return runner.Execute(cmd.Context(), pipeline.ExecuteOptions{
				Span:          sp,
				DefaultWindow: a.cfg.Window.Default,
				Columns:       keys,
				Color:         a.cfg.UI.Color && !noColor,
				PrettyJSON:    pretty,
				MaxColWidth:   maxWidth,
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&spanExpr, "span", "", "window: default, all, last:N or YYYY-MM-DD..YYYY-MM-DD")
	f.StringVarP(&fmtName, "format", "f", "table", "output format: table, csv, markdown, json")
	f.StringSliceVarP(&cols, "columns", "c", nil, "columns to show: "+strings.Join(columns.Available(), ", "))
	f.StringSliceVar(&sets, "set", nil, "named column sets, e.g. basic, full")
	f.BoolVar(&pretty, "pretty", false, "indent json output")
	f.BoolVar(&noColor, "no-color", false, "disable colored table output")
	return cmd
}

func (a *app) pngCmd() *cobra.Command {
	var (
		out           string
		spanExpr      string
		width, height int
	)
	cmd := &cobra.Command{
		Use:   "png",
		Short: "Render the selected window to a PNG chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := a.logger(false)
			if err != nil {
				return err
			}
			sp, err := span.Parse(spanExpr)
			if err != nil {
				return err
			}
			r, err := render.ForFormat("png")
			if err != nil {
				return err
			}
			ctrl, err := a.controller(log)
			if err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			runner := &pipeline.Runner{Controller: ctrl, Renderer: r, Writer: f, Logger: log}
			err = runner.Execute(cmd.Context(), pipeline.ExecuteOptions{
				Span:          sp,
				DefaultWindow: a.cfg.Window.Default,
				Width:         width,
				Height:        height,
			})
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				os.Remove(out)
				return err
			}
			log.Info("chart written", "path", out)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&out, "out", "o", "", "output file")
	f.StringVar(&spanExpr, "span", "", "window: default, all, last:N or YYYY-MM-DD..YYYY-MM-DD")
	f.IntVar(&width, "width", 1024, "image width in pixels")
	f.IntVar(&height, "height", 480, "image height in pixels")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func (a *app) sourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the registered data source kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, k := range source.Kinds() {
				mark := " "
				if k == a.cfg.Source.Kind {
					mark = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, k)
			}
			return nil
		},
	}
}
