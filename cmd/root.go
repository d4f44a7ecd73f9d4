package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/talent-matcher/internal/matching"
	"github.com/spigell/talent-matcher/internal/ranking"
	"github.com/spigell/talent-matcher/internal/scoring"
)

const (
	app       = "talent-matcher"
	envPrefix = "TALENT_MATCHER"
)

type Config struct {
	Engine *EngineConfig `mapstructure:"engine"`
	Batch  *BatchConfig  `mapstructure:"batch"`
	AI     *AIConfig     `mapstructure:"ai"`
}

type EngineConfig struct {
	Weights             *WeightsConfig  `mapstructure:"weights"`
	OverqualifiedFactor float64         `mapstructure:"overqualification-factor"`
	OverqualifiedFit    float64         `mapstructure:"overqualification-fit"`
	Location            *LocationConfig `mapstructure:"location"`
	NeutralSkills       float64         `mapstructure:"neutral-skills"`
}

type WeightsConfig struct {
	Semantic   float64 `mapstructure:"semantic"`
	Skills     float64 `mapstructure:"skills"`
	Experience float64 `mapstructure:"experience"`
	Location   float64 `mapstructure:"location"`
	Salary     float64 `mapstructure:"salary"`
}

type LocationConfig struct {
	SameRegion  float64 `mapstructure:"same-region"`
	Unrelated   float64 `mapstructure:"unrelated"`
	Unspecified float64 `mapstructure:"unspecified"`
}

type BatchConfig struct {
	MaxCandidates    int `mapstructure:"max-candidates"`
	MaxOpportunities int `mapstructure:"max-opportunities"`
	TopN             int `mapstructure:"top-n"`
	Concurrency      int `mapstructure:"concurrency"`
}

type AIConfig struct {
	Provider   string        `mapstructure:"provider"`
	Assessment bool          `mapstructure:"assessment"`
	Similarity bool          `mapstructure:"similarity"`
	Gemini     *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey         string `mapstructure:"api-key"`
	APIKeyFile     string `mapstructure:"api-key-file"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding-model"`
	MaxRetries     int    `mapstructure:"max-retries"`
	MaxLogLength   int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "talent-matcher scores candidates against job opportunities and explains every match",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is talent-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	defaults := scoring.DefaultConfig()

	v.SetDefault("engine.weights.semantic", defaults.Weights.Semantic)
	v.SetDefault("engine.weights.skills", defaults.Weights.Skills)
	v.SetDefault("engine.weights.experience", defaults.Weights.Experience)
	v.SetDefault("engine.weights.location", defaults.Weights.Location)
	v.SetDefault("engine.weights.salary", defaults.Weights.Salary)
	v.SetDefault("engine.overqualification-factor", defaults.OverqualifiedFactor)
	v.SetDefault("engine.overqualification-fit", defaults.OverqualifiedFit)
	v.SetDefault("engine.location.same-region", defaults.SameRegionLocation)
	v.SetDefault("engine.location.unrelated", defaults.UnrelatedLocation)
	v.SetDefault("engine.location.unspecified", defaults.UnspecifiedLocation)
	v.SetDefault("engine.neutral-skills", defaults.NeutralSkills)

	v.SetDefault("batch.max-candidates", matching.DefaultMaxCandidates)
	v.SetDefault("batch.max-opportunities", matching.DefaultMaxOpportunities)
	v.SetDefault("batch.top-n", ranking.DefaultTopN)
	v.SetDefault("batch.concurrency", matching.DefaultConcurrency)

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.assessment", true)
	v.SetDefault("ai.similarity", true)
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 200)
}

func initConfig() {
	// Config needed only for match command. Other commands skip initialization.
	if matchCmd.CalledAs() == "" {
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The default config file is optional, an explicit one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

// scoringConfig converts the engine section into scorer constants. Missing
// sections keep the defaults.
func (c *Config) scoringConfig() scoring.Config {
	cfg := scoring.DefaultConfig()
	if c == nil || c.Engine == nil {
		return cfg
	}

	e := c.Engine
	if w := e.Weights; w != nil {
		cfg.Weights = scoring.Weights{
			Semantic:   w.Semantic,
			Skills:     w.Skills,
			Experience: w.Experience,
			Location:   w.Location,
			Salary:     w.Salary,
		}
	}
	if l := e.Location; l != nil {
		cfg.SameRegionLocation = l.SameRegion
		cfg.UnrelatedLocation = l.Unrelated
		cfg.UnspecifiedLocation = l.Unspecified
	}
	cfg.OverqualifiedFactor = e.OverqualifiedFactor
	cfg.OverqualifiedFit = e.OverqualifiedFit
	cfg.NeutralSkills = e.NeutralSkills

	return cfg
}

func (c *Config) limits() matching.Limits {
	if c == nil || c.Batch == nil {
		return matching.Limits{}
	}
	return matching.Limits{
		MaxCandidates:    c.Batch.MaxCandidates,
		MaxOpportunities: c.Batch.MaxOpportunities,
		TopN:             c.Batch.TopN,
		Concurrency:      c.Batch.Concurrency,
	}
}
