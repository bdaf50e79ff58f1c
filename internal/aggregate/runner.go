// 包 aggregate 负责主流程编排：
// - 翻页抓取舰长榜
// - 检查目标用户是否在榜
// - 增量写入 CSV 并统计总行数
// - 可选记录运行历史，最后输出摘要
package aggregate

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"bili-guard-list/internal/config"
	"bili-guard-list/internal/guards"
	"bili-guard-list/internal/logx"
	"bili-guard-list/internal/model"
	"bili-guard-list/internal/report"
	"bili-guard-list/internal/store"
)

// Runner 聚合执行器，持有配置/抓取器/可选的历史库。
type Runner struct {
	cfg     *config.Config
	fetcher *guards.Fetcher
	history *store.History
	out     io.Writer
	now     func() time.Time
}

// New 创建 Runner；history 为 nil 时不记录运行历史，out 为 nil 时输出到标准输出。
func New(cfg *config.Config, f *guards.Fetcher, h *store.History, out io.Writer) *Runner {
	if out == nil {
		out = os.Stdout
	}
	return &Runner{cfg: cfg, fetcher: f, history: h, out: out, now: time.Now}
}

// Run 执行一轮：抓取→检查→落盘→统计→摘要。
// 抓取失败、读取旧文件失败与写入失败都只记日志并反映在摘要中；仅输出摘要失败时返回 error。
func (r *Runner) Run(ctx context.Context) (model.RunSummary, error) {
	s := model.RunSummary{
		RunID:      uuid.NewString(),
		RoomID:     r.cfg.RoomID,
		RUID:       r.cfg.RUID,
		TargetUID:  r.cfg.TargetUID,
		OutputFile: r.cfg.OutputFile,
		StartedAt:  r.now(),
	}
	lg := logx.With("room", r.cfg.RoomID, "run", s.RunID)
	lg.Info("开始获取舰长名单", "ruid", r.cfg.RUID)

	res := r.fetcher.FetchAll(ctx, r.cfg.RoomID, r.cfg.RUID)
	s.Pages = res.Pages
	s.Fetched = len(res.Records)
	if res.Err != nil {
		s.Failure = res.Err.Error()
		logx.Warnf("抓取提前结束，已获取 %d 条：%v", s.Fetched, res.Err)
	}

	if s.Fetched == 0 {
		logx.Warnf("未能获取到舰长数据")
	} else {
		s.Check = guards.IsGuard(r.cfg.TargetUID, res.Records)
		written, err := store.MergeAndAppend(res.Records, r.cfg.OutputFile)
		if err != nil {
			logx.Errorf("保存 CSV 失败：%v", err)
			s.Failure = joinFailure(s.Failure, err)
		}
		s.Written = written
	}

	if _, err := os.Stat(r.cfg.OutputFile); err == nil {
		s.FileExists = true
		rows, err := store.CountRows(r.cfg.OutputFile)
		if err != nil {
			lg.Warn("统计 CSV 行数失败", "err", err)
		}
		s.FileRows = rows
	}
	s.FinishedAt = r.now()

	s.Previous = r.previousRun(ctx)
	r.recordHistory(ctx, s)
	lg.Info("运行结束", "fetched", s.Fetched, "written", s.Written, "file_rows", s.FileRows)

	if err := report.Write(r.out, s, r.cfg.LogFormat); err != nil {
		return s, fmt.Errorf("write summary: %w", err)
	}
	return s, nil
}

// previousRun 读取同一房间最近一次运行；未启用历史或读取失败时为 nil。
func (r *Runner) previousRun(ctx context.Context) *model.RunSummary {
	if r.history == nil {
		return nil
	}
	runs, err := r.history.ListRuns(ctx, r.cfg.RoomID, 1)
	if err != nil {
		logx.Warnf("读取运行历史失败：%v", err)
		return nil
	}
	if len(runs) == 0 {
		return nil
	}
	return &runs[0]
}

// recordHistory 写入运行历史并按 KEEP_DAYS 清理；失败只记日志。
func (r *Runner) recordHistory(ctx context.Context, s model.RunSummary) {
	if r.history == nil {
		return
	}
	if err := r.history.RecordRun(ctx, s); err != nil {
		logx.Warnf("记录运行历史失败：%v", err)
		return
	}
	if n, err := r.history.CleanOldRuns(ctx, r.cfg.History.KeepDays); err != nil {
		logx.Warnf("清理运行历史失败：%v", err)
	} else if n > 0 {
		logx.Debugf("已清理 %d 条过期运行历史", n)
	}
}

func joinFailure(prev string, err error) string {
	if prev == "" {
		return err.Error()
	}
	return prev + "; " + err.Error()
}
