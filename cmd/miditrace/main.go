// miditrace is a command-line MIDI file viewer: it decodes Standard MIDI
// Files and renders a fixed-width diagnostic trace of every event, with
// subcommands for statistics, an HTTP inspection API and live playback.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"miditrace/internal/common/fsutil"
	"miditrace/internal/config"
	"miditrace/internal/httpapi"
	"miditrace/internal/logging"
	"miditrace/internal/player"
	"miditrace/internal/smf"
	"miditrace/internal/stats"
	"miditrace/internal/trace"
)

type app struct {
	cfgPath  string
	logLevel string
	debug    bool
	noColor  bool

	cfg config.Config
	log zerolog.Logger
}

// setup resolves the config file and persistent flags into the process
// logger. Flags win over file values; -d wins over everything.
func (a *app) setup(cmd *cobra.Command) error {
	if a.cfgPath != "" {
		path, err := fsutil.ExpandHome(a.cfgPath)
		if err != nil {
			return err
		}
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		a.cfg = cfg
	}
	level := a.cfg.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	if a.debug {
		level = "debug"
	}
	a.log = logging.New(cmd.ErrOrStderr(), level, a.noColor || a.cfg.NoColor)
	return nil
}

// load reads and decodes one MIDI file.
func (a *app) load(path string) (*smf.File, error) {
	path, err := fsutil.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	if !fsutil.PathExists(path) {
		return nil, fmt.Errorf("no such file: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := smf.Parse(data, a.log)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return f, nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "miditrace",
		Short:         "A command line MIDI viewer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "Path to a yaml/json/toml config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug|info|warn|error (default info)")
	root.PersistentFlags().BoolVarP(&a.debug, "debug", "d", false, "Turn debugging information on (shorthand for --log-level=debug)")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(newDumpCmd(a), newStatsCmd(a), newServeCmd(a), newPlayCmd(a))
	return root
}

func newDumpCmd(a *app) *cobra.Command {
	var limit int
	c := &cobra.Command{
		Use:     "dump <file>",
		Short:   "Decode a MIDI file and trace every event",
		Long:    "Decode a MIDI file and trace every event.\n\nTrace rows are emitted at debug severity; pass -d to see them.",
		Example: "  miditrace dump -d song.mid",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.load(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.DumpLimit
			}
			a.log.Info().
				Stringer("format", f.Format).
				Int("tracks", len(f.Tracks)).
				Int("division", int(f.Division)).
				Msg("file parsed")

			tr := trace.New(a.log)
			data := f.Data()
			for i := range f.Tracks {
				for j := range f.Tracks[i].Events {
					if limit > 0 && j >= limit {
						a.log.Debug().Int("track", i).Int("limit", limit).Msg("row limit reached")
						break
					}
					de := &f.Tracks[i].Events[j]
					tr.Trace(&de.Event, de.Offset, data, de.Length)
				}
			}
			return nil
		},
	}
	c.Flags().IntVar(&limit, "limit", 0, "Max trace rows per track (0 = all)")
	return c
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <file>",
		Short: "Aggregate event statistics for a MIDI file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.load(args[0])
			if err != nil {
				return err
			}
			s := stats.Collect(f)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s format, %d track(s), division %d\n",
				args[0], f.Format, len(f.Tracks), f.Division)

			names := make([]string, 0, len(s.EventCounts))
			for name := range s.EventCounts {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "  %-30s %d\n", name, s.EventCounts[name])
			}
			fmt.Fprintf(out, "Notes struck: %d\n", s.NotesStruck)
			fmt.Fprintf(out, "Tempo changes: %d\n", s.TempoChanges)
			fmt.Fprintf(out, "Longest track: %d ticks\n", s.TotalTicks)
			return nil
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	var addr string
	var corsOrigins []string
	c := &cobra.Command{
		Use:   "serve <file>",
		Short: "Serve an HTTP inspection API over a MIDI file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.load(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") && a.cfg.Addr != "" {
				addr = a.cfg.Addr
			}
			httpapi.SetLogger(a.log)
			if len(corsOrigins) > 0 {
				httpapi.SetCORSOptions(true, corsOrigins,
					[]string{http.MethodGet}, []string{"Content-Type"})
			}
			srv := &http.Server{Addr: addr, Handler: httpapi.NewMux(newFileService(f))}

			go func() {
				a.log.Info().Str("addr", addr).Str("file", args[0]).Msg("listening")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					a.log.Fatal().Err(err).Msg("server error")
				}
			}()

			// Graceful shutdown (Ctrl+C / SIGTERM)
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			<-stop
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
	c.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	c.Flags().StringSliceVar(&corsOrigins, "cors-origin", nil, "Allowed CORS origins (CORS disabled when empty)")
	return c
}

func newPlayCmd(a *app) *cobra.Command {
	var port string
	c := &cobra.Command{
		Use:   "play <file>",
		Short: "Play a MIDI file to an output port",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.load(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("port") && a.cfg.MIDIPort != "" {
				port = a.cfg.MIDIPort
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return player.Play(ctx, f, port, a.log)
		},
	}
	c.Flags().StringVar(&port, "port", "", "MIDI output port name (first available when empty)")
	return c
}

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
