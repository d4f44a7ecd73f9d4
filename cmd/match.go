package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/ai"
	"github.com/spigell/talent-matcher/internal/ai/gemini"
	"github.com/spigell/talent-matcher/internal/domain"
	"github.com/spigell/talent-matcher/internal/logger"
	"github.com/spigell/talent-matcher/internal/matching"
	"github.com/spigell/talent-matcher/internal/metrics"
	"github.com/spigell/talent-matcher/internal/secrets"
)

const (
	PromptBack = "back"
	PromptExit = "exit"

	geminiKeyEnv = "GEMINI_API_KEY"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match every candidate of a request file against every opportunity",
	Run: func(cmd *cobra.Command, _ []string) {
		match(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("input", "i", "", "request file with candidates and opportunities")
	matchCmd.Flags().StringP("output", "o", "", "write the batch result to this file instead of stdout")
	matchCmd.Flags().Bool("interactive", false, "browse the ranked matches after the run")

	matchCmd.MarkFlagRequired("input")
}

// requestFile is the on-disk shape of a batch request. Records stay loosely
// typed until the domain decoders validate them.
type requestFile struct {
	Candidates    []map[string]any `json:"candidates"`
	Opportunities []map[string]any `json:"opportunities"`
}

func match(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the talent-matcher", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	input, _ := cmd.Flags().GetString("input")
	req, err := readRequest(input)
	if err != nil {
		fatal(logger, "reading the request", err)
	}

	similarity, assessor, err := newProviders(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("ai providers are not available", zap.Error(err))
	}

	registry := prometheus.NewRegistry()

	engine, err := matching.New(matching.Options{
		Similarity: similarity,
		Assessor:   assessor,
		Scoring:    config.scoringConfig(),
		Limits:     config.limits(),
		Logger:     logger,
		Metrics:    metrics.NewRecorder(registry),
	})
	if err != nil {
		logger.Fatal("creating the engine", zap.Error(err))
	}

	logger.Debug("engine limits", zap.Any("limits", engine.Limits()))

	result, err := engine.Batch(ctx, req)
	if result == nil {
		fatal(logger, "running the batch", err)
	}
	if err != nil {
		logger.Warn("batch was interrupted, writing completed matches", zap.Error(err))
	}
	if perr := result.PartialFailure(); perr != nil {
		logger.Warn("some pairs failed", zap.String("reason", domain.MessageOf(perr)))
	}

	output, _ := cmd.Flags().GetString("output")
	if err := writeResult(output, result); err != nil {
		logger.Fatal("writing the result", zap.Error(err))
	}

	dumpMetrics(registry, logger)

	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		if err := browse(logger, result); err != nil && !errors.Is(err, promptui.ErrInterrupt) {
			logger.Fatal("browsing matches", zap.Error(err))
		}
	}
}

func fatal(logger *zap.Logger, msg string, err error) {
	logger.Fatal(msg,
		zap.String("kind", string(domain.KindOf(err))),
		zap.String("reason", domain.MessageOf(err)),
		zap.Error(err),
	)
}

func readRequest(path string) (matching.BatchRequest, error) {
	var req matching.BatchRequest

	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("read %s: %w", path, err)
	}

	var file requestFile
	if err := json.Unmarshal(data, &file); err != nil {
		return req, domain.NewValidationError("request", fmt.Sprintf("request file is not valid JSON: %v", err))
	}

	for i, raw := range file.Candidates {
		c, err := domain.DecodeCandidate(raw)
		if err != nil {
			return req, fmt.Errorf("candidates[%d]: %w", i, err)
		}
		req.Candidates = append(req.Candidates, c)
	}
	for i, raw := range file.Opportunities {
		o, err := domain.DecodeOpportunity(raw)
		if err != nil {
			return req, fmt.Errorf("opportunities[%d]: %w", i, err)
		}
		req.Opportunities = append(req.Opportunities, o)
	}

	return req, nil
}

func writeResult(path string, result *matching.BatchResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// newProviders builds the optional AI providers. The returned interfaces
// stay nil for disabled providers so the engine can tell they are missing.
func newProviders(ctx context.Context, cfg *AIConfig, log *zap.Logger) (matching.SimilarityProvider, ai.Assessor, error) {
	if cfg == nil || (!cfg.Similarity && !cfg.Assessment) {
		return nil, nil, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	gcfg := cfg.Gemini
	if gcfg == nil {
		gcfg = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  gcfg.APIKeyFile,
		Env:   geminiKeyEnv,
		Value: gcfg.APIKey,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w (set ai.gemini.api-key-file or %s)", err, geminiKeyEnv)
	}

	client, err := gemini.NewClient(ctx, apiKey)
	if err != nil {
		return nil, nil, err
	}

	var (
		similarity matching.SimilarityProvider
		assessor   ai.Assessor
	)

	if cfg.Similarity {
		embedder, err := gemini.NewEmbedder(client, gcfg.EmbeddingModel, log)
		if err != nil {
			return nil, nil, err
		}
		similarity = ai.NewSimilarity(embedder, logger.WithCommonFields(log, "gemini", embedder.Model()))
	}

	if cfg.Assessment {
		genLogger := log.With(zap.Int("ai_retry_attempts", gcfg.MaxRetries))
		generator, err := gemini.NewGenerator(client, gcfg.Model, gcfg.MaxRetries, genLogger)
		if err != nil {
			return nil, nil, err
		}
		assessor = gemini.NewAssessor(generator, gcfg.MaxLogLength, log)
	}

	return similarity, assessor, nil
}

func redacted(cfg *Config) *Config {
	if cfg == nil || cfg.AI == nil || cfg.AI.Gemini == nil || cfg.AI.Gemini.APIKey == "" {
		return cfg
	}
	clone := *cfg
	aiCfg := *cfg.AI
	gem := *cfg.AI.Gemini
	gem.APIKey = "***"
	aiCfg.Gemini = &gem
	clone.AI = &aiCfg
	return &clone
}

func dumpMetrics(gatherer prometheus.Gatherer, log *zap.Logger) {
	if !log.Core().Enabled(zap.DebugLevel) {
		return
	}

	families, err := gatherer.Gather()
	if err != nil {
		log.Debug("gathering metrics", zap.Error(err))
		return
	}

	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fields := []zap.Field{zap.String("metric", mf.GetName())}
			for _, lp := range m.GetLabel() {
				fields = append(fields, zap.String(lp.GetName(), lp.GetValue()))
			}

			switch {
			case m.GetCounter() != nil:
				fields = append(fields, zap.Float64("value", m.GetCounter().GetValue()))
			case m.GetGauge() != nil:
				fields = append(fields, zap.Float64("value", m.GetGauge().GetValue()))
			case m.GetHistogram() != nil:
				fields = append(fields,
					zap.Uint64("count", m.GetHistogram().GetSampleCount()),
					zap.Float64("sum", m.GetHistogram().GetSampleSum()),
				)
			}

			log.Debug("metric", fields...)
		}
	}
}

func browse(log *zap.Logger, result *matching.BatchResult) error {
	for {
		items := make([]string, 0, len(result.Candidates)+1)
		for _, cm := range result.Candidates {
			items = append(items, fmt.Sprintf("%s (%d matches)", cm.CandidateID, cm.TotalMatches))
		}

		candidatePrompt := promptui.Select{
			Label: "Choose a candidate and press ENTER",
			Items: append(items, PromptExit),
		}

		idx, selected, err := candidatePrompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptExit {
			return nil
		}

		if err := browseMatches(log, result.Candidates[idx]); err != nil {
			return err
		}
	}
}

func browseMatches(log *zap.Logger, cm matching.CandidateMatches) error {
	for {
		items := make([]string, 0, len(cm.Matches)+1)
		for _, m := range cm.Matches {
			items = append(items, fmt.Sprintf("%s %.2f %s (%s)", m.OpportunityID, m.MatchScore, m.FitLevel, m.Source))
		}

		matchPrompt := promptui.Select{
			Label: fmt.Sprintf("Matches of %s", cm.CandidateID),
			Items: append(items, PromptBack),
		}

		idx, selected, err := matchPrompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptBack {
			return nil
		}

		m := cm.Matches[idx]
		pretty, _ := json.MarshalIndent(m, "", "  ")
		log.Info(string(pretty),
			zap.String("candidate_id", m.CandidateID),
			zap.String("opportunity_id", m.OpportunityID),
		)
	}
}
