package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/campaign-insights/internal/analytics"
	"github.com/ignite/campaign-insights/internal/config"
	"github.com/ignite/campaign-insights/internal/deployment"
	"github.com/ignite/campaign-insights/internal/metrics"
	"github.com/ignite/campaign-insights/internal/sink"
	"github.com/ignite/campaign-insights/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	asOfFlag := flag.String("as-of", "", "analysis anchor date (YYYY-MM-DD, default today)")
	noCache := flag.Bool("no-cache", false, "skip publishing results to Redis")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	if *asOfFlag != "" {
		asOf, err = time.ParseInLocation("2006-01-02", *asOfFlag, time.UTC)
		if err != nil {
			log.Fatalf("Invalid -as-of date: %v", err)
		}
	}
	start := asOf.AddDate(0, 0, -cfg.Analysis.LookbackDays)

	ctx := context.Background()

	log.Printf("[Analyzer] Loading deployments from %s source (%s .. %s)",
		cfg.Source.Type, start.Format("2006-01-02"), asOf.Format("2006-01-02"))
	batch, err := loadBatch(ctx, cfg, start, asOf)
	if err != nil {
		log.Fatalf("Failed to load deployment batch: %v", err)
	}
	log.Printf("[Analyzer] Loaded %d deployment records", len(batch))

	params := analytics.Params{
		Windows:       cfg.Analysis.Windows,
		MinSampleSize: cfg.Analysis.MinSampleSize,
		WindowWorkers: cfg.Analysis.WindowWorkers,
		AsOf:          asOf,
		Weights: analytics.ScoreWeights{
			ResponseRate:      cfg.Analysis.ScoreWeights.ResponseRate,
			ConversionRate:    cfg.Analysis.ScoreWeights.ConversionRate,
			RevenuePerContact: cfg.Analysis.ScoreWeights.RevenuePerContact,
		},
	}

	started := time.Now()
	res, err := analytics.Run(ctx, batch, params)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		log.Fatalf("Pipeline failed: %v", err)
	}
	metrics.RunDuration.Observe(time.Since(started).Seconds())
	metrics.RecordsProcessed.Set(float64(res.TotalDeployments))
	metrics.TableRows.WithLabelValues(analytics.TableContactFrequency).Set(float64(len(res.ContactFrequency)))
	metrics.TableRows.WithLabelValues(analytics.TableCampaignPerformance).Set(float64(len(res.CampaignPerformance)))
	metrics.TableRows.WithLabelValues(analytics.TableFrequencyImpact).Set(float64(len(res.FrequencyImpact)))
	metrics.TableRows.WithLabelValues(analytics.TableClientEngagement).Set(float64(len(res.ClientEngagement)))
	metrics.TableRows.WithLabelValues(analytics.TableOptimalFrequency).Set(float64(len(res.OptimalFrequency)))
	metrics.TableRows.WithLabelValues(analytics.TableMonthlyTrends).Set(float64(len(res.MonthlyTrends)))
	for name := range res.TableErrors {
		metrics.TableErrors.WithLabelValues(name).Inc()
	}
	if res.Partial() {
		metrics.RunsTotal.WithLabelValues("partial").Inc()
	} else {
		metrics.RunsTotal.WithLabelValues("ok").Inc()
	}

	writer, err := sink.NewCSVWriter(cfg.Output.Dir)
	if err != nil {
		log.Fatalf("Failed to create output dir: %v", err)
	}
	paths, err := writer.WriteAll(res, cfg.Analysis.Windows)
	if err != nil {
		log.Fatalf("Failed to write output tables: %v", err)
	}
	summary := sink.RenderSummary(res)
	summaryPath, err := sink.WriteSummary(cfg.Output.Dir, res)
	if err != nil {
		log.Fatalf("Failed to write executive summary: %v", err)
	}
	log.Printf("[Analyzer] Wrote %d tables and summary to %s", len(paths), cfg.Output.Dir)

	if cfg.Output.S3Bucket != "" {
		uploader, err := sink.NewS3Uploader(ctx, cfg.Output.S3Bucket, cfg.Output.S3Region, cfg.Output.S3Prefix)
		if err != nil {
			log.Fatalf("Failed to create S3 uploader: %v", err)
		}
		files := []string{summaryPath}
		for _, p := range paths {
			files = append(files, p)
		}
		if err := uploader.UploadFiles(ctx, res.RunID, files); err != nil {
			log.Fatalf("Failed to upload outputs: %v", err)
		}
	}

	if !*noCache {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cache := storage.NewResultCache(client)
		if err := cache.Publish(ctx, res, summary); err != nil {
			log.Printf("[Analyzer] Warning: failed to publish results to cache: %v", err)
		} else {
			log.Printf("[Analyzer] Published run %s to cache", res.RunID)
		}
	}

	if res.Partial() {
		log.Printf("[Analyzer] Run %s completed with partial results (%d failed tables)",
			res.RunID, len(res.TableErrors))
		os.Exit(2)
	}
	log.Printf("[Analyzer] Run %s completed in %s", res.RunID, time.Since(started).Round(time.Millisecond))
}

func loadBatch(ctx context.Context, cfg *config.Config, start, end time.Time) ([]*deployment.Record, error) {
	switch cfg.Source.Type {
	case "postgres":
		db, err := deployment.OpenPostgres(cfg.Source.PostgresDSN)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return deployment.NewPostgresSource(db, cfg.Source.PostgresTable).Load(ctx, start, end)
	case "snowflake":
		src, err := deployment.NewSnowflakeSource(cfg.Source.Snowflake)
		if err != nil {
			return nil, err
		}
		defer src.Close()
		if err := src.Ping(ctx); err != nil {
			return nil, err
		}
		return src.Load(ctx, start, end)
	default:
		return deployment.NewCSVSource(cfg.Source.CSVPath).Load(start, end)
	}
}
