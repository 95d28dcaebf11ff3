package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"curator/internal/anomaly"
	"curator/internal/cluster"
	"curator/internal/config"
	"curator/internal/editorial"
	"curator/internal/enrich"
	"curator/internal/feeds"
	"curator/internal/llm"
	"curator/internal/logger"
	"curator/internal/memo"
	"curator/internal/pipeline"
	"curator/internal/profile"
	"curator/internal/render"
	"curator/internal/retry"
)

var (
	feedsFile  string
	outputPath string
	interests  string
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Fetch feeds and generate today's digest",
	RunE:  runDigest,
}

func init() {
	digestCmd.Flags().StringVar(&feedsFile, "feeds", "", "path to the feeds JSON list (overrides config)")
	digestCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output HTML path (default: <output_dir>/digest_<date>.html)")
	digestCmd.Flags().StringVar(&interests, "interests", "", "free-text reader interests for the editor")
	rootCmd.AddCommand(digestCmd)
}

func runDigest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	log := logger.Default(logger.Options{Level: cfg.App.LogLevel, Console: cfg.App.ConsoleLog})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := llm.NewClient(ctx, cfg.Gemini.Model)
	if err != nil {
		return err
	}

	specs, err := loadFeedSpecs(cfg)
	if err != nil {
		return err
	}

	fetcher := feeds.NewFetcher(cfg.Feeds.Concurrency, cfg.Feeds.MaxAge, log)
	items, err := fetcher.FetchAll(ctx, specs)
	if err != nil {
		return fmt.Errorf("feed ingestion: %w", err)
	}

	renderer, err := render.NewHTMLRenderer()
	if err != nil {
		return err
	}

	enrichCfg := enrich.DefaultConfig()
	enrichCfg.BatchSize = cfg.Enrichment.BatchSize
	enrichCfg.Retry = retry.Policy{
		MaxAttempts: cfg.Enrichment.RetryAttempts,
		BaseDelay:   cfg.Enrichment.RetryBase,
		MaxDelay:    5 * time.Second,
		Jitter:      0.2,
	}

	clusterCfg := cluster.DefaultConfig()
	clusterCfg.MinClusterSize = cfg.Clustering.MinClusterSize
	clusterCfg.Metric = cfg.Clustering.Metric
	clusterCfg.MaxPerPublisher = cfg.Clustering.MaxPerPublisher

	memoCfg := memo.DefaultConfig()
	memoCfg.FollowedCreatorTrust = cfg.Memo.FollowedCreatorTrust
	memoCfg.MultiSourceMin = cfg.Memo.MultiSourceMin
	memoCfg.UrgentHours = cfg.Memo.UrgentHours
	memoCfg.TimelyHours = cfg.Memo.TimelyHours

	editorialCfg := editorial.DefaultConfig()
	editorialCfg.TargetLanguage = cfg.Editorial.TargetLanguage

	var translator editorial.Translator
	if editorialCfg.TargetLanguage != "" {
		translator = editorial.NewGeminiTranslator(client)
	}

	var profiles pipeline.ProfileSource = profile.None{}
	if cfg.App.Profile != "" {
		profiles = profile.NewFileSource(cfg.App.Profile)
	}

	p := pipeline.New(
		anomaly.NewTagger(log),
		enrich.NewRunner(enrich.NewGeminiAdapter(client), enrichCfg, log),
		cluster.NewBuilder(
			cluster.NewHDBSCANClient(cfg.Clustering.ServiceURL),
			cluster.NewGeminiThemeGenerator(client),
			clusterCfg, log),
		memo.NewBuilder(memoCfg, log),
		editorial.NewSelector(client, translator, editorialCfg, log),
		renderer,
		profiles,
		log,
	)

	if interests == "" {
		interests = cfg.Editorial.Interests
	}

	result, err := p.Run(ctx, items, pipeline.Options{
		RunID:     uuid.NewString(),
		Interests: interests,
	})
	if err != nil {
		return err
	}

	switch result.Status {
	case pipeline.StatusEmpty:
		fmt.Println("No content today; no digest produced.")
		return nil
	case pipeline.StatusCancelled:
		fmt.Println("Run cancelled; no digest produced.")
		return nil
	}

	out := outputPath
	if out == "" {
		if err := os.MkdirAll(cfg.App.OutputDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		out = filepath.Join(cfg.App.OutputDir, fmt.Sprintf("digest_%s.html", time.Now().Format("2006-01-02")))
	}
	if err := os.WriteFile(out, []byte(result.Output), 0o644); err != nil {
		return fmt.Errorf("write digest: %w", err)
	}

	fmt.Printf("Digest written to %s (%d items in, %d clusters, %s elapsed)\n",
		out, result.Stats.ItemsIn, result.Stats.Clusters, result.Stats.Elapsed.Round(time.Millisecond))
	return nil
}

// loadFeedSpecs reads the feed list from the --feeds flag or config.
func loadFeedSpecs(cfg *config.Config) ([]feeds.FeedSpec, error) {
	path := feedsFile
	if path == "" {
		path = cfg.Feeds.File
	}
	if path == "" {
		return nil, fmt.Errorf("no feeds file configured: pass --feeds or set feeds.file")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feeds file %s: %w", path, err)
	}

	var specs []feeds.FeedSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("parse feeds file %s: %w", path, err)
	}
	return specs, nil
}
