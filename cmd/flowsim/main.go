package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/san-kum/flowsim/internal/config"
	"github.com/san-kum/flowsim/internal/experiment"
	"github.com/san-kum/flowsim/internal/metrics"
	"github.com/san-kum/flowsim/internal/sim"
	"github.com/san-kum/flowsim/internal/storage"
)

var (
	dataDir  string
	logLevel string
	logJSON  bool

	configFile  string
	preset      string
	field       string
	integrator  string
	dt          float64
	ticks       int
	seed        int64
	capacity    int
	emitPerTick int
	metricsAddr string
	record      bool
	drawEvery   int

	compareRecord bool

	outPath    string
	exportJSON bool
	themeName  string
	viewWidth  int
	viewHeight int
	gifPath    string

	orderDt     float64
	orderLevels int
	orderTime   float64

	analyzeIntegrator string
	analyzeDt         float64
	analyzeSteps      int
	xAxis             int
	yAxis             int
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:           "flowsim",
		Short:         "particle advection through vector fields",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd.ErrOrStderr())
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", env.DataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", env.LogLevel, "debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", env.LogJSON, "log as JSON")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation headless and record it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	runCmd.Flags().BoolVar(&record, "record", true, "record telemetry under --data")
	runCmd.Flags().IntVar(&drawEvery, "draw", 0, "print a terminal frame every N ticks")

	compareCmd := &cobra.Command{
		Use:   "compare [integrator...]",
		Short: "run several integrators on identical particles",
		RunE:  compareIntegrators,
	}
	addConfigFlags(compareCmd)
	compareCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	compareCmd.Flags().BoolVar(&compareRecord, "record", false, "record telemetry under --data")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with the interactive terminal view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().StringVar(&themeName, "theme", "plasma", "color theme")
	liveCmd.Flags().IntVar(&viewWidth, "width", 60, "canvas width in characters")
	liveCmd.Flags().IntVar(&viewHeight, "height", 20, "canvas height in characters")
	liveCmd.Flags().StringVar(&gifPath, "gif", "flowsim.gif", "where G saves the recording")

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "run and write the final frame as SVG",
		Args:  cobra.NoArgs,
		RunE:  renderFinal,
	}
	addConfigFlags(renderCmd)
	renderCmd.Flags().StringVarP(&outPath, "out", "o", "flowsim.svg", "output file")
	renderCmd.Flags().BoolVar(&exportJSON, "json", false, "also write the final snapshot as JSON")
	renderCmd.Flags().StringVar(&themeName, "theme", "plasma", "color theme")
	renderCmd.Flags().IntVar(&viewWidth, "width", 600, "image width")
	renderCmd.Flags().IntVar(&viewHeight, "height", 600, "image height")

	orderCmd := &cobra.Command{
		Use:   "order [integrator...]",
		Short: "measure convergence order on the harmonic oscillator",
		RunE:  convergenceOrder,
	}
	orderCmd.Flags().Float64Var(&orderDt, "dt", 0.1, "largest step size")
	orderCmd.Flags().IntVar(&orderLevels, "levels", 5, "number of halvings")
	orderCmd.Flags().Float64Var(&orderTime, "time", 1.0, "integration time")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [field] [x0...]",
		Short: "single-trajectory analysis: lyapunov exponent, spectrum, phase portrait",
		Args:  cobra.MinimumNArgs(1),
		RunE:  analyzeTrajectory,
	}
	analyzeCmd.Flags().StringVar(&analyzeIntegrator, "integrator", "rk4", "integrator")
	analyzeCmd.Flags().Float64Var(&analyzeDt, "dt", 0.01, "timestep")
	analyzeCmd.Flags().IntVar(&analyzeSteps, "steps", 10000, "number of steps")
	analyzeCmd.Flags().IntVar(&xAxis, "x-axis", 0, "channel for the x-axis")
	analyzeCmd.Flags().IntVar(&yAxis, "y-axis", 1, "channel for the y-axis")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot population and energy of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	fieldsCmd := &cobra.Command{
		Use:   "fields",
		Short: "list fields and integrators",
		Args:  cobra.NoArgs,
		RunE:  listFields,
	}

	rootCmd.AddCommand(runCmd, compareCmd, liveCmd, renderCmd, orderCmd, analyzeCmd, listCmd, plotCmd, presetsCmd, fieldsCmd)
	addBatchCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("flowsim failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging(w io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("log level %q: %w", logLevel, err)
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if logJSON {
		handler = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&field, "field", "", "vector field")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().IntVar(&ticks, "ticks", config.DefaultTicks, "number of ticks")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().IntVar(&capacity, "capacity", config.DefaultCapacity, "maximum live particles")
	cmd.Flags().IntVar(&emitPerTick, "emit", config.DefaultEmitPerTick, "particles emitted per tick")
}

// loadConfig resolves a run config: preset, then config file, then
// FLOWSIM_* environment, then flags the user actually set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	overrides, err := config.LoadOverrides()
	if err != nil {
		return nil, err
	}
	overrides.Apply(cfg)

	flags := cmd.Flags()
	if flags.Changed("field") {
		cfg.Field = field
		cfg.FieldParams = nil
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
		cfg.Compare = nil
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("capacity") {
		cfg.Capacity = capacity
	}
	if flags.Changed("emit") {
		cfg.EmitPerTick = emitPerTick
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// session is an experiment with its observers attached.
type session struct {
	exp       *experiment.Experiment
	recorders []*storage.Recorder
	server    *http.Server
}

func newSession(cfg *config.Config) (*session, error) {
	exp := experiment.New(cfg, experiment.NewRegistry(), slog.Default())
	if err := exp.Setup(); err != nil {
		return nil, err
	}
	return &session{exp: exp}, nil
}

// serveMetrics registers a prometheus observer on every simulation and
// serves them on addr.
func (s *session) serveMetrics(addr string) error {
	reg := prometheus.NewRegistry()
	cfg := s.exp.Config()
	for i, sm := range s.exp.Simulations() {
		p, err := metrics.NewPrometheus(reg, prometheus.Labels{
			"field":      cfg.Field,
			"integrator": s.exp.Labels()[i],
		})
		if err != nil {
			return err
		}
		sm.AddObserver(p)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	slog.Info("serving metrics", "addr", addr)
	return nil
}

// startRecording opens one telemetry recorder per simulation. Members of a
// comparison share a group id.
func (s *session) startRecording() error {
	st := storage.New(dataDir)
	cfg := s.exp.Config()
	group := ""
	if len(s.exp.Simulations()) > 1 {
		group = fmt.Sprintf("%s_%d", cfg.Field, time.Now().Unix())
	}
	for i, sm := range s.exp.Simulations() {
		rec, err := st.Create(storage.RunMetadata{
			Field:       cfg.Field,
			Integrator:  s.exp.Labels()[i],
			Group:       group,
			Seed:        cfg.Seed,
			Dt:          cfg.Dt,
			Capacity:    cfg.Capacity,
			EmitPerTick: cfg.EmitPerTick,
			MaxAge:      cfg.MaxAge,
		})
		if err != nil {
			return err
		}
		sm.AddObserver(rec)
		s.recorders = append(s.recorders, rec)
	}
	return nil
}

func (s *session) close(results []*sim.Result) error {
	var errs []error
	for i, rec := range s.recorders {
		var r *sim.Result
		if i < len(results) {
			r = results[i]
		}
		if err := rec.Close(r); err != nil {
			errs = append(errs, err)
		}
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
