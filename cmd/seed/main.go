package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/repository"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/seed"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var month int
	var year int
	var csvPath string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机前台, 2: 生成演示班表, 3: 从 CSV 导入班表)")
	flag.IntVar(&n, "n", 5, "要插入的前台数量")
	flag.IntVar(&month, "month", int(time.Now().Month()), "班表月份")
	flag.IntVar(&year, "year", time.Now().Year(), "班表年份")
	flag.StringVar(&csvPath, "csv", "", "要导入的 CSV 文件路径")
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

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的前台数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				operator, err := utils.GenerateRandomOperator(cfg.Seed.Operator.Password, cfg.Email.UserDomain)
				if err != nil {
					slog.Error("无法生成随机前台", slog.String("error", err.Error()))
					continue
				}

				if err := repo.CreateOperator(operator); err != nil {
					slog.Error("无法插入前台", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入前台成功", slog.Int("count", n-cnt))
		}
	case 2:
		if month < 1 || month > 12 {
			slog.Error("请输入合法的月份")
			return
		}

		seed.SeedDemoSchedule(repo, month, year)
	case 3:
		if csvPath == "" {
			slog.Error("请指定要导入的 CSV 文件路径")
			return
		}
		if month < 1 || month > 12 {
			slog.Error("请输入合法的月份")
			return
		}

		seed.SeedRosterFromCSV(repo, csvPath, month, year)
	default:
		slog.Error("指定的操作非法")
	}
}
