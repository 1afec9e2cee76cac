package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/starmatch/assets"
	"github.com/robalobadob/starmatch/internal/config"
	"github.com/robalobadob/starmatch/internal/database"
	"github.com/robalobadob/starmatch/internal/httpserver"
	"github.com/robalobadob/starmatch/internal/profiles"
	"github.com/robalobadob/starmatch/internal/sampler"
	"github.com/robalobadob/starmatch/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "starmatch",
		Short:         "StarMatch puzzle and profile card server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server (default)",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE:  runMigrate,
		},
		sampleCmd(),
	)
	return root
}

// setup loads .env and the config, and configures the global logger.
func setup() (*config.Config, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Production() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.DBPath).Msg("open database")
		return err
	}
	defer db.Close()
	if err := database.Migrate(db, assets.Migrations()); err != nil {
		log.Error().Err(err).Msg("migrate")
		return err
	}

	seedJSON, err := assets.SeedProfiles()
	if err != nil {
		return err
	}
	seed, err := profiles.ParseSeed(seedJSON)
	if err != nil {
		return fmt.Errorf("seed profiles: %w", err)
	}
	dir := profiles.NewDirectory(profiles.NewGitHubClient(cfg.ProfileAPIBase, cfg.ProfileAPITimeout), seed)

	srv := httpserver.New(cfg, store.NewMemoryStore(), db, dir)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("port", cfg.Port).Dur("tick", cfg.TickInterval).Msg("starting starmatch server")
	if err := srv.Start(ctx, ":"+cfg.Port); err != nil {
		log.Error().Err(err).Msg("server exited")
		return err
	}
	return nil
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(db, assets.Migrations()); err != nil {
		return err
	}
	log.Info().Str("path", cfg.DBPath).Msg("migrations applied")
	return nil
}

func sampleCmd() *cobra.Command {
	var (
		numbers string
		bound   int
		seed    uint64
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Draw one star target from a set of play numbers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			nums, err := parseNumbers(numbers)
			if err != nil {
				return err
			}
			src := sampler.Default()
			if cmd.Flags().Changed("seed") {
				src = sampler.Seeded(seed)
			}
			pool := sampler.Sums(nums, bound)
			sum, ok := sampler.Sample(nums, bound, src)
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "pool=0 no subset of %v fits under %d\n", nums, bound)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pool=%d target=%d\n", len(pool), sum)
			return nil
		},
	}
	cmd.Flags().StringVar(&numbers, "numbers", "1,2,3,4,5,6,7,8,9", "comma-separated play numbers")
	cmd.Flags().IntVar(&bound, "bound", 9, "largest target allowed")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for a reproducible draw")
	return cmd
}

// parseNumbers reads "1,2,3" into a set of ints, keeping first-seen order.
func parseNumbers(s string) ([]int, error) {
	var out []int
	seen := map[int]bool{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad number %q: %w", part, err)
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out, nil
}

