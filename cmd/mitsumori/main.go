// Package main is the mitsumori CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/mitsumori/internal/cli"
	"github.com/hyperjump/mitsumori/internal/config"
	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/internal/predictor"
	"github.com/hyperjump/mitsumori/internal/server"
	"github.com/hyperjump/mitsumori/internal/storage"
	"github.com/hyperjump/mitsumori/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/mitsumori/config.yaml"
	defaultServerURL  = "http://localhost:8080"
	loadTimeout       = 2 * time.Minute
)

// loadConfig loads config from path. When path is the default, a config.yaml in the current
// directory takes precedence, so "mitsumori server" run from the project dir uses the project's config.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "predict":
		runPredict()
	case "recommend":
		runRecommend()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("mitsumori version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	noHistory := fs.Bool("no-history", false, "do not record predictions")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, !*noHistory)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	// Requests are answered with 503 until the artifacts are in.
	loadCtx, loadCancel := context.WithTimeout(context.Background(), loadTimeout)
	defer loadCancel()
	go func() {
		err := components.Predictor.Load(loadCtx, predictor.NewFileLoader(cfg, logger))
		if err != nil && !errors.Is(err, predictor.ErrClosed) {
			logger.Error("model load failed, serving without models", zap.Error(err))
		}
	}()

	var store storage.Storage
	if components.Storage != nil {
		store = components.Storage
	}
	srv := server.NewServer(components.Predictor, store, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	loadCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// houseFlags are the attribute flags shared by predict and recommend.
type houseFlags struct {
	area, rooms, toilets, floors float64
	width, length, lat, lng      float64
	district, ward, legal        string
	sellerType                   string
}

func (h *houseFlags) register(fs *flag.FlagSet) {
	fs.Float64Var(&h.area, "area", 0, "floor area in m²")
	fs.Float64Var(&h.rooms, "rooms", 0, "bedrooms (default 3)")
	fs.Float64Var(&h.toilets, "toilets", 0, "toilets (default 2)")
	fs.Float64Var(&h.floors, "floors", 0, "floors (default 4)")
	fs.Float64Var(&h.width, "width", 0, "frontage width in m")
	fs.Float64Var(&h.length, "length", 0, "lot length in m")
	fs.Float64Var(&h.lat, "lat", 0, "latitude")
	fs.Float64Var(&h.lng, "lng", 0, "longitude")
	fs.StringVar(&h.district, "district", "", "district name")
	fs.StringVar(&h.ward, "ward", "", "ward name")
	fs.StringVar(&h.legal, "legal", "", "legal status")
	fs.StringVar(&h.sellerType, "seller-type", "", "seller type")
}

// optional maps an unset (zero) flag to nil.
func optional(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return models.Float(v)
}

func (h *houseFlags) predictionRequest() *models.PredictionRequest {
	return &models.PredictionRequest{
		Area:       optional(h.area),
		Rooms:      optional(h.rooms),
		Toilets:    optional(h.toilets),
		Floors:     optional(h.floors),
		Width:      optional(h.width),
		Length:     optional(h.length),
		Lat:        optional(h.lat),
		Lng:        optional(h.lng),
		District:   h.district,
		Ward:       h.ward,
		Legal:      h.legal,
		SellerType: h.sellerType,
	}
}

func (h *houseFlags) recommendationRequest(price float64, n int) *models.RecommendationRequest {
	return &models.RecommendationRequest{
		Price:            optional(price),
		Area:             optional(h.area),
		Rooms:            optional(h.rooms),
		Toilets:          optional(h.toilets),
		Floors:           optional(h.floors),
		Width:            optional(h.width),
		Length:           optional(h.length),
		Lat:              optional(h.lat),
		Lng:              optional(h.lng),
		District:         h.district,
		Ward:             h.ward,
		Legal:            h.legal,
		SellerType:       h.sellerType,
		NRecommendations: n,
	}
}

// argsReorder moves any flags that appear after positional arguments to the front so that
// flag.Parse() sees them; the flag package stops at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func parseOutput(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return format
}

func runPredict() {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = load the models in-process)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	var h houseFlags
	h.register(fs)
	_ = fs.Parse(os.Args[2:])

	format := parseOutput(*outputFormat)
	req := h.predictionRequest()
	ctx := context.Background()

	var (
		res *models.PredictionResult
		err error
	)
	if *serverURL != "" {
		res, err = cli.NewClient(*serverURL).Predict(ctx, req)
	} else {
		withDirectPredictor(*configPath, func(p *predictor.Predictor) {
			res, err = p.PredictPrice(ctx, req)
		})
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Prediction failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WritePrediction(os.Stdout, res, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func printRecommendUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: mitsumori recommend [flags] [houseId]\n\n")
	fmt.Fprintf(fs.Output(), "With a houseId, lists the corpus houses most similar to it.\n")
	fmt.Fprintf(fs.Output(), "Without one, --price and --area describe the house to match.\n\n")
	fs.PrintDefaults()
}

func runRecommend() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = load the models in-process)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	limit := fs.Int("limit", 0, "number of recommendations (default from config)")
	price := fs.Float64("price", 0, "target price in VND (feature query)")
	var h houseFlags
	h.register(fs)
	fs.Usage = func() { printRecommendUsage(fs) }
	_ = fs.Parse(args)

	format := parseOutput(*outputFormat)
	byID := fs.NArg() > 0
	houseID := 0
	if byID {
		id, err := strconv.Atoi(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid house id %q\n", fs.Arg(0))
			os.Exit(1)
		}
		houseID = id
	}
	ctx := context.Background()

	var (
		res *models.RecommendationResult
		err error
	)
	switch {
	case *serverURL != "" && byID:
		res, err = cli.NewClient(*serverURL).RecommendByHouseID(ctx, houseID, *limit)
	case *serverURL != "":
		res, err = cli.NewClient(*serverURL).RecommendByFeatures(ctx, h.recommendationRequest(*price, *limit))
	default:
		withDirectPredictor(*configPath, func(p *predictor.Predictor) {
			if byID {
				res, err = p.RecommendByHouseID(ctx, houseID, *limit)
				return
			}
			res, err = p.RecommendByFeatures(ctx, h.recommendationRequest(*price, *limit))
		})
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Recommendation failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteRecommendations(os.Stdout, res, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// withDirectPredictor loads the artifacts in-process and runs fn against the loaded predictor.
func withDirectPredictor(configPath string, fn func(p *predictor.Predictor)) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, false)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	if err := components.Predictor.Load(ctx, predictor.NewFileLoader(cfg, logger)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load models: %v\n", err)
		os.Exit(1)
	}
	fn(components.Predictor)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = inspect local files)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format := parseOutput(*outputFormat)
	var status *models.Status
	if *serverURL != "" {
		res, err := cli.NewClient(*serverURL).Status(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = res
	} else {
		res, err := directStatus(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = res
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// directStatus builds the status report from local files. A failed model load is reported
// as "not loaded" rather than an error.
func directStatus(configPath string) (*models.Status, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, err
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		return nil, err
	}
	defer components.Close()

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	if err := components.Predictor.Load(ctx, predictor.NewFileLoader(cfg, logger)); err != nil {
		logger.Warn("model load failed", zap.Error(err))
	}

	count, err := components.Storage.CountPredictions(ctx)
	if err != nil {
		return nil, fmt.Errorf("count predictions: %w", err)
	}
	status := &models.Status{
		Health:      components.Predictor.Health(),
		Predictions: &count,
		Config: &models.StatusConfig{
			ArtifactsDir:    cfg.Artifacts.Dir,
			ArtifactsFormat: cfg.Artifacts.Format,
			DatabasePath:    cfg.Storage.DatabasePath,
			DefaultLimit:    cfg.Engine.DefaultLimit,
			MaxLimit:        cfg.Engine.MaxLimit,
		},
	}
	paths := append([]string{cfg.Artifacts.Dir}, storage.DatabaseFiles(cfg.Storage.DatabasePath)...)
	if diskBytes, err := storage.DiskUsageBytes(paths...); err == nil {
		status.DiskUsageBytes = &diskBytes
	}
	return status, nil
}

// Components holds initialized services.
type Components struct {
	Storage   *storage.SQLiteStorage
	Predictor *predictor.Predictor
}

func (c *Components) Close() {
	if c.Predictor != nil {
		_ = c.Predictor.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// initializeComponents opens the history database (when withHistory is set) and creates an
// unloaded predictor.
func initializeComponents(cfg *config.Config, logger *zap.Logger, withHistory bool) (*Components, error) {
	c := &Components{
		Predictor: predictor.New(logger, predictor.Options{
			DefaultLimit:   cfg.Engine.DefaultLimit,
			MaxLimit:       cfg.Engine.MaxLimit,
			PriceCacheSize: cfg.Engine.PriceCacheSize,
		}),
	}
	if withHistory {
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		c.Storage = store
	}
	logger.Debug("components initialized",
		zap.Bool("history", withHistory),
		zap.String("artifacts_dir", cfg.Artifacts.Dir),
		zap.String("format", cfg.Artifacts.Format))
	return c, nil
}

func printUsage() {
	fmt.Println(`mitsumori - House price prediction and recommendation engine

Usage:
  mitsumori server [flags]                 Start the HTTP server
  mitsumori predict [flags]                Predict the price of a house
  mitsumori recommend [flags] [houseId]    Recommend similar houses
  mitsumori status [flags]                 Show engine/history/artifact status
  mitsumori version                        Show version
  mitsumori help                           Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/mitsumori/config.yaml)
  --debug            Enable debug logging
  --no-history       Do not record predictions

Predict / Recommend Flags:
  --config string       Config file path (for direct mode)
  --server string       Server URL (default: http://localhost:8080). Use empty (--server "") to load the models in-process.
  --output string       Output format: text or json (default: text)
  --area float          Floor area in m² (required for predict and feature queries)
  --rooms, --toilets, --floors, --width, --length, --lat, --lng float
  --district, --ward, --legal, --seller-type string
  --price float         Target price in VND (recommend, feature query)
  --limit int           Number of recommendations (recommend)

Status Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to inspect local files.
  --output string    Output format: text or json (default: text)

Examples:
  mitsumori server
  mitsumori predict --area 50 --rooms 3 --district "Cau Giay"
  mitsumori predict --output json --area 80 --floors 5
  mitsumori recommend 42 --limit 10
  mitsumori recommend --price 5000000000 --area 50 --district "Ba Dinh"
  mitsumori status --server ""`)
}
