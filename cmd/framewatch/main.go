// framewatch monitors a video source for meaningful change: frames are
// captured adaptively, pixel-diffed, and only changed regions are sent
// to a vision model. The session report is written to stdout as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/framewatch/framewatch/internal/log"
	"github.com/framewatch/framewatch/pkg/monitor"
	"github.com/framewatch/framewatch/pkg/source"
	"github.com/framewatch/framewatch/pkg/vision"
	"github.com/framewatch/framewatch/pkg/web"
)

func main() {
	// Optional; a missing .env is not an error.
	godotenv.Load()

	opts, cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "framewatch: %v\n", err)
		os.Exit(2)
	}

	log.Init(opts.logLevel)

	if err := run(opts, cfg); err != nil {
		log.Error("session failed", "err", err)
		os.Exit(1)
	}
}

// options holds the CLI surface that is not part of the monitor config.
type options struct {
	backend  string
	webPort  string
	logLevel string
}

func run(opts options, cfg monitor.Config) error {
	src := buildSource(cfg)

	backend, err := buildBackend(opts.backend, cfg)
	if err != nil {
		return err
	}

	sess, err := monitor.NewSession(cfg, src, backend)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if opts.webPort != "" {
		srv := web.NewServer(opts.webPort, sess)
		srv.Attach()
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Error("dashboard stopped", "err", err)
			}
		}()
	}

	report, err := sess.Run(ctx)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// parseFlags builds the session config from, in increasing precedence:
// defaults, the -config YAML file, and explicitly set flags.
func parseFlags() (options, monitor.Config, error) {
	var opts options

	configPath := flag.String("config", "", "YAML config file")
	flag.StringVar(&opts.backend, "backend", "", "vision backend: ollama, openai, gemini, mock (default: auto-detect from env)")
	flag.StringVar(&opts.webPort, "web", "", "serve the live dashboard on this port")
	flag.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	// Session flags share the param key surface with the config file.
	paramFlags := map[string]*string{
		"source":       flag.String("source", "", "video source: rtsp/http URL, device index, or file path"),
		"duration":     flag.String("duration", "", "session duration (e.g. 60s, 5m)"),
		"min_interval": flag.String("min-interval", "", "fastest capture interval"),
		"max_interval": flag.String("max-interval", "", "slowest capture interval"),
		"adaptive":     flag.String("adaptive", "", "adapt capture rate to activity (true/false)"),
		"buffer_size":  flag.String("buffer", "", "frame buffer capacity"),
		"threshold":    flag.String("threshold", "", "pixel diff threshold 0-100"),
		"min_change":   flag.String("min-change", "", "frame change percent that triggers analysis"),
		"min_region":   flag.String("min-region", "", "minimum merged region area in pixels"),
		"grid":         flag.String("grid", "", "region detection grid size"),
		"scale":        flag.String("scale", "", "diff downscale factor (0,1]"),
		"ai":           flag.String("ai", "", "enable vision analysis (true/false)"),
		"max_regions":  flag.String("max-regions", "", "max regions analyzed per frame (0 disables)"),
		"model":        flag.String("model", "", "vision model name"),
		"focus":        flag.String("focus", "", "what the analysis should look for"),
		"quality":      flag.String("quality", "", "JPEG capture quality 1-100"),
		"zones":        flag.String("zones", "", "zones as name:x,y,w,h[,sens]|..."),
		"save_all":     flag.String("save-all", "", "keep stable frames in the timeline (true/false)"),
		"save_frames":  flag.String("save-frames", "", "embed change frame JPEGs in results (true/false)"),
	}
	flag.Parse()

	cfg := monitor.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = monitor.LoadConfig(*configPath); err != nil {
			return opts, cfg, err
		}
	}

	params := make(map[string]string)
	for key, value := range paramFlags {
		if *value != "" {
			params[key] = *value
		}
	}

	cfg, err := cfg.WithParams(params)
	if err != nil {
		return opts, cfg, err
	}

	if cfg.Source == "" {
		return opts, cfg, fmt.Errorf("a video source is required (-source)")
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return opts, cfg, fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return opts, cfg, nil
}

// buildSource picks the capture path for the descriptor: device indices
// and V4L2 paths go through OpenCV, everything else through ffmpeg.
func buildSource(cfg monitor.Config) source.Source {
	desc := cfg.Source
	if _, err := strconv.Atoi(desc); err == nil || strings.HasPrefix(desc, "/dev/video") {
		return source.NewWebcam(desc, cfg.CaptureQuality)
	}
	return source.NewFFmpeg(desc, cfg.CaptureQuality)
}

// buildBackend resolves the vision backend, auto-detecting from the
// environment when no flag is given.
func buildBackend(name string, cfg monitor.Config) (vision.Backend, error) {
	if !cfg.AIEnabled {
		return nil, nil
	}

	if name == "" {
		switch {
		case os.Getenv("OPENAI_API_KEY") != "":
			name = "openai"
		case os.Getenv("GEMINI_API_KEY") != "":
			name = "gemini"
		default:
			name = "ollama"
		}
	}

	switch name {
	case "ollama":
		baseURL := os.Getenv("OLLAMA_URL")
		if baseURL == "" {
			baseURL = vision.DefaultOllamaURL
		}
		return vision.NewOllama(baseURL), nil
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai backend")
		}
		return vision.NewOpenAI(key, os.Getenv("OPENAI_BASE_URL")), nil
	case "gemini":
		key := os.Getenv("GEMINI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini backend")
		}
		return vision.NewGemini(key), nil
	case "mock":
		return vision.NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown vision backend %q", name)
	}
}
