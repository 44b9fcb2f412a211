// Command tiertool checks, imports and exports the commission tier table.
//
//	tiertool check  tiers.yaml
//	tiertool import tiers.yaml
//	tiertool export > tiers.yaml
//
// import refuses a table with gaps or overlaps.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kreditkeliling/kupon-backend-go/internal/config"
	"github.com/kreditkeliling/kupon-backend-go/internal/domain/commission"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/cache"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/database"
	"github.com/kreditkeliling/kupon-backend-go/internal/repository/postgresql"
)

var errTierIssues = errors.New("tier table has issues")

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: tiertool check|import <file> | export")
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	cmd, args := flag.Arg(0), flag.Args()[1:]

	var err error
	switch cmd {
	case "check":
		err = withFile(args, func(f io.Reader) error { return check(f, os.Stdout) })
	case "import":
		err = withStore(ctx, func(repo commission.TierRepository, c cache.Cache) error {
			return withFile(args, func(f io.Reader) error { return importTiers(ctx, repo, c, f, os.Stdout) })
		})
	case "export":
		err = withStore(ctx, func(repo commission.TierRepository, _ cache.Cache) error {
			return exportTiers(ctx, repo, os.Stdout)
		})
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		slog.Error("tiertool failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func withFile(args []string, fn func(io.Reader) error) error {
	if len(args) != 1 {
		return errors.New("expected exactly one tier file")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(f)
}

// withStore opens the tier table and, when the API shares a Redis report
// cache, that cache too. The cache is nil otherwise.
func withStore(ctx context.Context, fn func(commission.TierRepository, cache.Cache) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	var reportCache cache.Cache
	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		reportCache = cache.NewRedisCache(rdb)
	}

	return fn(postgresql.NewCommissionTierRepository(db), reportCache)
}

// check prints every issue and fails when there is at least one.
func check(r io.Reader, out io.Writer) error {
	tiers, err := readTierFile(r)
	if err != nil {
		return err
	}

	issues := commission.InspectTiers(tiers)
	for _, issue := range issues {
		fmt.Fprintf(out, "%s: %s\n", issue.Kind, issue.Message)
	}
	if len(issues) > 0 {
		return fmt.Errorf("%w: %d found", errTierIssues, len(issues))
	}
	fmt.Fprintf(out, "ok: %d tiers cover every amount\n", len(tiers))
	return nil
}

// importTiers replaces the tier table and retires the cached views computed
// from the old one. A nil cache means the API caches in process memory, which
// this tool cannot reach.
func importTiers(ctx context.Context, repo commission.TierRepository, c cache.Cache, r io.Reader, out io.Writer) error {
	tiers, err := readTierFile(r)
	if err != nil {
		return err
	}
	if issues := commission.InspectTiers(tiers); len(issues) > 0 {
		for _, issue := range issues {
			fmt.Fprintf(out, "%s: %s\n", issue.Kind, issue.Message)
		}
		return fmt.Errorf("%w: refusing to import", errTierIssues)
	}

	if err := repo.ReplaceAll(ctx, commission.SortTiers(tiers)); err != nil {
		return err
	}
	fmt.Fprintf(out, "imported %d tiers\n", len(tiers))

	if c == nil {
		fmt.Fprintln(out, "warning: report cache is in process memory; restart the API or wait for REPORT_CACHE_TTL")
		return nil
	}
	if err := cache.InvalidateTiers(ctx, c); err != nil {
		return fmt.Errorf("tiers imported but cache invalidation failed: %w", err)
	}
	return nil
}

func exportTiers(ctx context.Context, repo commission.TierRepository, out io.Writer) error {
	tiers, err := repo.List(ctx)
	if err != nil {
		return err
	}
	return writeTierFile(out, tiers)
}
