package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cas-wrgl/spliceannot/internal/annotation"
	"github.com/cas-wrgl/spliceannot/internal/liftover"
	"github.com/cas-wrgl/spliceannot/internal/pipeline"
)

// buildEntry is one build variant in the config file.
type buildEntry struct {
	Name     string `mapstructure:"name"`
	GTF      string `mapstructure:"gtf"`
	Liftover string `mapstructure:"liftover"` // conversion name, e.g. hg38-to-hg19
}

// buildConfig is the `build` command configuration, from flags or the
// config file.
type buildConfig struct {
	Release     string       `mapstructure:"release"`
	OutputDir   string       `mapstructure:"output_dir"`
	Tag         string       `mapstructure:"tag"`
	ChainDir    string       `mapstructure:"chain_dir"`
	LiftoverBin string       `mapstructure:"liftover_bin"`
	DuckDB      bool         `mapstructure:"duckdb"`
	Builds      []buildEntry `mapstructure:"builds"`
}

func newBuildCmd(logger *zap.Logger) *cobra.Command {
	var (
		gtfPath   string
		buildName string
		liftName  string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile annotation artifacts from a GENCODE release",
		Example: `  # builds listed in ~/.spliceannot.yaml
  spliceannot build --release v38

  # single native build from a release file
  spliceannot build --release v38 --gtf gencode.v38.annotation.gtf.gz --name grch38

  # lifted build (requires the UCSC liftOver binary and chain files)
  spliceannot build --release v38 --gtf gencode.v38.annotation.gtf.gz \
      --name grch37 --liftover hg38-to-hg19 --chain-dir ~/chains`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg buildConfig
			if err := viper.Unmarshal(&cfg); err != nil {
				return fmt.Errorf("parsing config: %w", err)
			}
			if gtfPath != "" {
				cfg.Builds = []buildEntry{{Name: buildName, GTF: gtfPath, Liftover: liftName}}
			}
			return runBuild(logger, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&gtfPath, "gtf", "", "Annotation release file (overrides the config file's build list)")
	flags.StringVar(&buildName, "name", "native", "Build variant name used in artifact file names")
	flags.StringVar(&liftName, "liftover", "", "Liftover conversion for this build (e.g. hg38-to-hg19)")
	flags.String("release", "", "Release version string (e.g. v38)")
	flags.String("out-dir", "annotations", "Output directory for the emitted artifacts")
	flags.String("tag", annotation.DefaultTag, "Annotation tag marking representative transcripts")
	flags.String("chain-dir", ".", "Directory containing liftover chain files")
	flags.String("liftover-bin", "", "Path to the UCSC liftOver binary (default: PATH lookup)")
	flags.Bool("duckdb", false, "Also write a per-build DuckDB transcript store")

	viper.BindPFlag("release", flags.Lookup("release"))
	viper.BindPFlag("output_dir", flags.Lookup("out-dir"))
	viper.BindPFlag("tag", flags.Lookup("tag"))
	viper.BindPFlag("chain_dir", flags.Lookup("chain-dir"))
	viper.BindPFlag("liftover_bin", flags.Lookup("liftover-bin"))
	viper.BindPFlag("duckdb", flags.Lookup("duckdb"))

	return cmd
}

func runBuild(logger *zap.Logger, cfg buildConfig) error {
	if cfg.Release == "" {
		return fmt.Errorf("release version required (--release or config)")
	}
	if len(cfg.Builds) == 0 {
		return fmt.Errorf("no builds configured (--gtf or a builds list in the config file)")
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	specs := make([]pipeline.BuildSpec, 0, len(cfg.Builds))
	for _, b := range cfg.Builds {
		if b.Name == "" || b.GTF == "" {
			return fmt.Errorf("each build needs a name and a gtf path")
		}

		spec := pipeline.BuildSpec{
			Name:         b.Name,
			GTFPath:      b.GTF,
			GenomeBuild:  b.Name,
			MetadataPath: artifactPath(cfg, b.Name, "metadata.json"),
			TablePath:    artifactPath(cfg, b.Name, "annotation.txt.gz"),
			ProgressLog:  filepath.Join(cfg.OutputDir, b.Name+".progress.log"),
		}
		if cfg.DuckDB {
			spec.DuckDBPath = filepath.Join(cfg.OutputDir, b.Name+".transcripts.duckdb")
		}

		if b.Liftover != "" {
			chainName, err := liftover.ChainFile(b.Liftover)
			if err != nil {
				return err
			}
			tool := liftover.NewUCSCTool(filepath.Join(cfg.ChainDir, chainName))
			tool.SetLogger(logger)
			if cfg.LiftoverBin != "" {
				tool.SetBinary(cfg.LiftoverBin)
			}
			spec.Mapper = tool
		}

		specs = append(specs, spec)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := pipeline.NewRunner(cfg.Release, annotation.SelectionPolicy{Tag: cfg.Tag})
	runner.SetLogger(logger)

	results := runner.Run(ctx, specs)
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "%s: FAILED: %v\n", res.Name, res.Err)
			continue
		}
		fmt.Fprintf(os.Stderr, "%s: %d genes, %d transcripts", res.Name, res.Genes, res.Transcripts)
		if res.Unmapped > 0 {
			fmt.Fprintf(os.Stderr, " (%d unmapped)", res.Unmapped)
		}
		fmt.Fprintln(os.Stderr)
		for _, s := range res.Stages {
			fmt.Fprintf(os.Stderr, "  %-10s %s\n", s.Stage, s.Elapsed.Round(time.Millisecond))
		}
	}

	if status := pipeline.Status(results); status != pipeline.StatusOK {
		return fmt.Errorf("annotation run finished with %s", status)
	}
	return nil
}

// artifactPath names artifacts the way the lookup service expects them,
// e.g. gencode.v38.grch38.annotation.txt.gz.
func artifactPath(cfg buildConfig, name, suffix string) string {
	return filepath.Join(cfg.OutputDir, fmt.Sprintf("gencode.%s.%s.%s", cfg.Release, name, suffix))
}
