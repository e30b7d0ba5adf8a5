// Command httpengine issues a single HTTP request described by flags, a
// config file and HTTPENGINE_* environment variables, and prints the
// response body to stdout.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/milan604/httpengine/pkg/config"
	"github.com/milan604/httpengine/pkg/engine"
	"github.com/milan604/httpengine/pkg/logger"
	"github.com/milan604/httpengine/pkg/metrics"
	"github.com/milan604/httpengine/pkg/observability"
	"github.com/milan604/httpengine/pkg/transport"
	"github.com/milan604/httpengine/pkg/version"
)

const envPrefix = "HTTPENGINE"

// flagKeys binds config keys to the flags that override them.
var flagKeys = map[string]string{
	"engine.url":      "url",
	"engine.method":   "method",
	"engine.executor": "executor",
	"log.level":       "log-level",
}

type cliOptions struct {
	data       string
	dataFile   string
	headers    []string
	params     []string
	user       string
	configFile string
	progress   bool
	version    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags, opts := newFlagSet(stderr)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}
	if opts.version {
		fmt.Fprintln(stdout, version.String())
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, flags, opts, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "httpengine: %v\n", err)
		return 1
	}
	return 0
}

func newFlagSet(stderr io.Writer) (*pflag.FlagSet, *cliOptions) {
	opts := &cliOptions{}
	flags := pflag.NewFlagSet("httpengine", pflag.ContinueOnError)
	flags.SetOutput(stderr)

	flags.String("url", "", "target URL (absolute http or https)")
	flags.String("method", "", "GET, PUT, POST or DELETE (default GET)")
	flags.StringVar(&opts.data, "data", "", "request body sent verbatim")
	flags.StringVar(&opts.dataFile, "data-file", "", "read the request body from a file")
	flags.StringArrayVarP(&opts.headers, "header", "H", nil, `request header "Name: value" (repeatable)`)
	flags.StringArrayVar(&opts.params, "param", nil, "URL-encoded parameter name=value (repeatable)")
	flags.StringVar(&opts.user, "user", "", "basic auth credentials user:password")
	flags.StringVar(&opts.configFile, "config", "", "config file (yaml, json or toml)")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.BoolVar(&opts.progress, "progress", false, "print transfer progress to stderr")
	flags.String("executor", "", "shared, serial or pool")
	flags.BoolVar(&opts.version, "version", false, "print version and exit")
	return flags, opts
}

func loadSettings(flags *pflag.FlagSet, opts *cliOptions) (*config.Settings, error) {
	cfg, err := config.New(
		config.WithDefaults(config.Defaults()),
		config.WithFile(opts.configFile),
		config.WithEnv(envPrefix),
		config.WithPFlags(flags, flagKeys),
		config.WithSensitiveKeys(config.SensitiveKeys...),
	)
	if err != nil {
		return nil, err
	}
	cfg.Set("engine.method", strings.ToUpper(cfg.GetString("engine.method")))
	return cfg.Settings()
}

func execute(ctx context.Context, flags *pflag.FlagSet, opts *cliOptions, stdout, stderr io.Writer) error {
	settings, err := loadSettings(flags, opts)
	if err != nil {
		return err
	}
	stderr = &syncWriter{w: stderr}

	log, err := logger.NewLogger(logger.LoggerOptions{
		Level:    settings.Log.Level,
		Encoding: settings.Log.Encoding,
		Output:   stderr,
	})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	req, err := buildRequest(flags, opts, settings)
	if err != nil {
		return err
	}
	if opts.progress {
		req.target.Progress = progressPrinter(stderr)
	}

	obs, err := observability.New(log, observability.TracingOptions{
		ServiceName:    settings.ServiceName,
		ServiceVersion: version.Version,
		Endpoint:       settings.Tracing.Endpoint,
		SampleRatio:    settings.Tracing.SampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			log.WarnF("tracing shutdown: %v", err)
		}
	}()

	executor, closeExecutor := newExecutor(settings.Engine)
	defer closeExecutor()

	base, next := newTransport(settings.Transport, settings.ServiceName, log)
	defer base.CloseIdleConnections()

	engineOpts := []engine.Option{
		engine.WithLogger(log),
		engine.WithExecutor(executor),
		engine.WithTransport(next),
	}
	if obs.Enabled() {
		engineOpts = append(engineOpts, engine.WithTracer(obs.GetTracer()))
	}
	if settings.Engine.RequestIDHeader != "" {
		engineOpts = append(engineOpts, engine.WithRequestID(settings.Engine.RequestIDHeader))
	}
	var collector *metrics.Collector
	if settings.Metrics.PushGateway != "" {
		collector = metrics.NewCollector(metricsNamespace(settings.ServiceName))
		engineOpts = append(engineOpts, engine.WithMetrics(collector))
	}

	eng, err := engine.New(req.target, engineOpts...)
	if err != nil {
		return err
	}

	body, err := dispatch(ctx, eng, req).Await(ctx)

	if collector != nil {
		if perr := collector.Push(context.WithoutCancel(ctx), settings.Metrics.PushGateway, settings.Metrics.Job); perr != nil {
			log.WarnF("push metrics to %s: %v", settings.Metrics.PushGateway, perr)
		}
	}
	if err != nil {
		return err
	}
	if _, err := stdout.Write(body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

// cliRequest is the parsed request: the engine target plus the operation.
type cliRequest struct {
	target  engine.Target
	method  string
	body    []byte
	hasBody bool
}

func buildRequest(flags *pflag.FlagSet, opts *cliOptions, s *config.Settings) (*cliRequest, error) {
	req := &cliRequest{
		method: s.Engine.Method,
		target: engine.Target{
			URL:        s.Engine.URL,
			Headers:    copyMap(s.Engine.Headers),
			Parameters: copyMap(s.Engine.Parameters),
		},
	}

	for _, h := range opts.headers {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, want \"Name: value\"", h)
		}
		req.target.Headers[name] = strings.TrimSpace(value)
	}
	for _, p := range opts.params {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, want name=value", p)
		}
		req.target.Parameters[name] = value
	}

	username, password := s.Engine.Username, s.Engine.Password
	if opts.user != "" {
		username, password, _ = strings.Cut(opts.user, ":")
	}
	if username != "" {
		req.target.Credentials = &engine.Credentials{Username: username, Password: password}
	}

	switch {
	case flags.Changed("data") && flags.Changed("data-file"):
		return nil, errors.New("--data and --data-file are mutually exclusive")
	case flags.Changed("data"):
		req.body, req.hasBody = []byte(opts.data), true
	case flags.Changed("data-file"):
		b, err := os.ReadFile(opts.dataFile)
		if err != nil {
			return nil, fmt.Errorf("read data file: %w", err)
		}
		req.body, req.hasBody = b, true
	}
	if req.hasBody && req.method == "DELETE" {
		return nil, errors.New("DELETE does not take a request body")
	}
	return req, nil
}

func dispatch(ctx context.Context, eng *engine.Engine, req *cliRequest) *engine.Future {
	switch {
	case req.method == "PUT" && req.hasBody:
		return eng.PutWithBody(ctx, req.body)
	case req.method == "PUT":
		return eng.Put(ctx)
	case req.method == "POST" && req.hasBody:
		return eng.PostWithBody(ctx, req.body)
	case req.method == "POST":
		return eng.Post(ctx)
	case req.method == "DELETE":
		return eng.Delete(ctx)
	case req.hasBody:
		return eng.GetWithBody(ctx, req.body)
	default:
		return eng.Get(ctx)
	}
}

// newTransport returns the net/http transport and the decorated chain built on it.
func newTransport(s config.TransportSettings, name string, log logger.LogManager) (*transport.HTTPTransport, transport.Transport) {
	opts := []transport.Option{
		transport.WithTimeout(s.Timeout),
		transport.WithLogger(log),
	}
	if s.UserAgent != "" {
		opts = append(opts, transport.WithUserAgent(s.UserAgent))
	}
	base := transport.NewHTTPTransport(opts...)
	var t transport.Transport = base

	if limiter := transport.NewLimiter(s.RateLimit.RPS, s.RateLimit.Burst); limiter != nil {
		t = transport.WithRateLimit(t, limiter)
	}
	if s.Breaker.Enabled {
		bs := transport.DefaultBreakerSettings()
		bs.MaxFailures = s.Breaker.MaxFailures
		bs.OpenTimeout = s.Breaker.OpenTimeout
		t = transport.WithCircuitBreaker(t, name, bs)
	}
	return base, t
}

func newExecutor(s config.EngineSettings) (engine.Executor, func()) {
	switch s.Executor {
	case "serial":
		ex := engine.NewSerialExecutor()
		return ex, ex.Close
	case "pool":
		return engine.NewPoolExecutor(s.PoolSize), func() {}
	default:
		return engine.SharedExecutor(), func() {}
	}
}

func progressPrinter(w io.Writer) engine.ProgressMonitor {
	return func(fraction float64) {
		fmt.Fprintf(w, "progress: %3.0f%%\n", fraction*100)
	}
}

// syncWriter serializes writes from the logger and progress callbacks,
// which may run on several goroutines at once.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func metricsNamespace(service string) string {
	return strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(service)
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
