// 命令行入口：
// - 读取 settings.yaml（可缺省）、.env 与 GUARD_* 环境变量
// - 初始化日志、HTTP 客户端与可选的运行历史库
// - 抓取舰长榜→检查目标用户→增量写入 CSV→输出摘要
package main

import (
	"context"
	"flag"
	"log"

	"bili-guard-list/internal/aggregate"
	"bili-guard-list/internal/bili"
	"bili-guard-list/internal/config"
	"bili-guard-list/internal/fetch"
	"bili-guard-list/internal/guards"
	"bili-guard-list/internal/logx"
	"bili-guard-list/internal/store"
)

func main() {
	configPath := flag.String("config", "settings.yaml", "path to settings.yaml (optional)")
	flag.Parse()

	// 1) 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	// 2) 初始化日志：级别/格式/语言/颜色
	logx.Init(cfg.LogLevel, cfg.LogFormat, cfg.LogLocale, cfg.LogColor)

	// 3) 初始化 HTTP 客户端（代理/超时/浏览器请求头）
	cl, err := fetch.New(fetch.Options{
		ProxyHTTP:  cfg.Proxy.HTTP,
		ProxyHTTPS: cfg.Proxy.HTTPS,
		Timeout:    cfg.API.Timeout,
		UserAgent:  cfg.API.UserAgent,
		Referer:    cfg.API.Referer,
	})
	if err != nil {
		log.Fatalf("http client: %v", err)
	}
	fetcher := guards.NewFetcher(bili.NewClient(cl, cfg.API.BaseURL),
		guards.WithPageSize(cfg.API.PageSize),
		guards.WithDelay(cfg.API.PageDelay),
	)

	// 4) 运行历史：默认关闭，打开失败不影响主流程
	var hist *store.History
	if cfg.History.Enabled {
		hist, err = store.OpenHistory(cfg.History.DSN)
		if err != nil {
			logx.Warnf("打开运行历史库失败：%v", err)
		} else {
			defer hist.Close()
		}
	}

	// 5) 运行
	ctx := context.Background()
	run := aggregate.New(cfg, fetcher, hist, nil)
	if _, err := run.Run(ctx); err != nil {
		logx.Errorf("输出摘要失败：%v", err)
	}
}
