package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-planner/internal/dto"
	"github.com/noah-isme/timetable-planner/internal/repository"
	"github.com/noah-isme/timetable-planner/internal/service"
	"github.com/noah-isme/timetable-planner/pkg/cache"
	"github.com/noah-isme/timetable-planner/pkg/config"
	"github.com/noah-isme/timetable-planner/pkg/database"
	"github.com/noah-isme/timetable-planner/pkg/lock"
	"github.com/noah-isme/timetable-planner/pkg/logger"
)

type generator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
}

type workloadReader interface {
	Workload(ctx context.Context, termID string) (*dto.WorkloadResponse, bool, error)
}

// env holds the resources shared by every subcommand.
type env struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *sqlx.DB
	timetable *service.TimetableService
	workload  *service.WorkloadService
	closers   []func() error
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i]()
	}
}

func newEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	e := &env{cfg: cfg, logger: logr}
	e.closers = append(e.closers, func() error { _ = logr.Sync(); return nil })

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	e.db = db
	e.closers = append(e.closers, db.Close)

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	e.closers = append(e.closers, cacheRepo.Close)

	engineCfg, err := service.NewEngineConfig(cfg.Scheduler.MaxPerDay, cfg.Scheduler.Days)
	if err != nil {
		e.Close()
		return nil, err
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if redisClient != nil {
		locker = lock.NewRedisLocker(redisClient, "timetable-planner:lock:")
	}

	validate := validator.New()
	cacheSvc := service.NewCacheService(cacheRepo, nil, cfg.Workload.CacheTTL, logr, redisClient != nil)
	termRepo := repository.NewTermRepository(db)
	lessonRepo := repository.NewLessonRepository(db)

	e.workload = service.NewWorkloadService(termRepo, lessonRepo, cacheSvc, cfg.Workload.CacheTTL, validate, logr)
	e.timetable = service.NewTimetableService(
		termRepo,
		repository.NewClassRepository(db),
		repository.NewSubjectRepository(db),
		repository.NewTimeSlotRepository(db),
		lessonRepo,
		db,
		locker,
		e.workload,
		nil,
		validate,
		logr,
		service.TimetableConfig{Engine: engineCfg, Seed: cfg.Scheduler.Seed, LockTTL: cfg.Scheduler.LockTTL},
	)
	return e, nil
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "timetable",
		Short:         "Generate weekly school timetables",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newGenerateCommand(), newWorkloadCommand(), newMigrateCommand())
	return root
}

func newGenerateCommand() *cobra.Command {
	var (
		req  dto.GenerateTimetableRequest
		seed int64
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate lessons for a term (latest term when --term is omitted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("seed") {
				req.Seed = &seed
			}
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			return runGenerate(cmd.Context(), cmd.OutOrStdout(), e.timetable, req)
		},
	}
	cmd.Flags().BoolVar(&req.ClearExisting, "clear", false, "delete the term's lessons before generating")
	cmd.Flags().StringVar(&req.TermID, "term", "", "term id")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for a reproducible timetable")
	return cmd
}

func runGenerate(ctx context.Context, out io.Writer, gen generator, req dto.GenerateTimetableRequest) error {
	result, err := gen.Generate(ctx, req)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "warning [%s] %s\n", w.Type, w.Message)
	}
	if result.Cleared > 0 {
		fmt.Fprintf(out, "cleared %d lessons\n", result.Cleared)
	}
	fmt.Fprintf(out, "placed %d lessons for %s (seed %d)\n", result.Placed, result.TermLabel, result.Seed)
	return nil
}

func newWorkloadCommand() *cobra.Command {
	var termID string
	cmd := &cobra.Command{
		Use:   "workload",
		Short: "Print periods per teacher for a term",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			return runWorkload(cmd.Context(), cmd.OutOrStdout(), e.workload, termID)
		},
	}
	cmd.Flags().StringVar(&termID, "term", "", "term id")
	_ = cmd.MarkFlagRequired("term")
	return cmd
}

func runWorkload(ctx context.Context, out io.Writer, reader workloadReader, termID string) error {
	result, _, err := reader.Workload(ctx, termID)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TEACHER\tNAME\tPERIODS")
	for _, row := range result.Teachers {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", row.TeacherID, row.TeacherName, row.Periods)
	}
	fmt.Fprintf(tw, "\t\t%d\n", result.Total)
	return tw.Flush()
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			db, err := database.NewPostgres(cfg.Database)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close() //nolint:errcheck

			applied, err := database.Migrate(cmd.Context(), db)
			if err != nil {
				return err
			}
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
			}
			return nil
		},
	}
}
