package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/cache"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/repository"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var n int
	var month string
	var recalculate bool

	flag.IntVar(&n, "n", 0, "要生成的员工数量，0 表示使用配置中的值")
	flag.StringVar(&month, "month", "", "要生成的月份 (YYYY-MM)，为空时使用配置中的值")
	flag.BoolVar(&recalculate, "recalculate", true, "生成后是否立即重算缓存")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 执行数据库迁移
	if cfg.Database.AutoMigrate {
		if err := repository.RunMigrations(dbpool, logger); err != nil {
			logger.Error("数据库迁移失败", "error", err)
			return
		}
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	opts := seed.Options{
		TenantID:   cfg.Seed.TenantID,
		MonthCode:  cfg.Seed.MonthCode,
		TimeZone:   cfg.Seed.TimeZone,
		Employees:  cfg.Seed.Employees,
		RandomSeed: cfg.Seed.RandomSeed,
	}
	if n > 0 {
		opts.Employees = n
	}
	if month != "" {
		opts.MonthCode = month
	}

	summary, err := seed.Run(context.Background(), repo, opts, logger)
	if err != nil {
		logger.Error("生成演示数据失败", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("插入数据完成", slog.Int("timelines", len(summary.TimelineIDs)), slog.Int("plans", summary.Plans), slog.Int("facts", summary.Facts))

	if !recalculate {
		return
	}

	// 直接在本进程内重算，不经过消息队列
	recalcCtx, recalcCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Engine.RecalculateTimeout)*time.Second)
	defer recalcCancel()

	recalculator := cache.NewRecalculator(repo, seed.DefaultOptions{}, logger)
	if err := recalculator.RecalculateCache(recalcCtx, summary.TimelineIDs, summary.VacancyIDs); err != nil {
		logger.Error("重算缓存失败", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("重算缓存完成")
}
