// 包 guards 负责翻页抓取舰长榜（按 UID 去重）以及成员检查。
package guards

import (
	"context"
	"fmt"
	"time"

	"bili-guard-list/internal/bili"
	"bili-guard-list/internal/logx"
	"bili-guard-list/internal/model"
)

// DefaultPageSize 为每页请求条数。
const DefaultPageSize = 10

// PageLister 为单页舰长榜来源，*bili.Client 实现了该接口。
type PageLister interface {
	TopList(ctx context.Context, roomID, ruid int64, page, pageSize int) (*bili.TopListResponse, error)
}

// Fetcher 顺序翻页抓取，同一时刻只有一个请求在途。
type Fetcher struct {
	api      PageLister
	pageSize int
	delay    time.Duration
	sleep    func(context.Context, time.Duration) error
	now      func() time.Time
}

type Option func(*Fetcher)

func WithPageSize(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.pageSize = n
		}
	}
}

// WithDelay 设置两次请求之间的固定间隔。
func WithDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		if d >= 0 {
			f.delay = d
		}
	}
}

// WithSleep 替换等待函数（测试用）。
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(f *Fetcher) { f.sleep = fn }
}

// WithClock 替换时钟，用于 fetch_date。
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

func NewFetcher(api PageLister, opts ...Option) *Fetcher {
	f := &Fetcher{
		api:      api,
		pageSize: DefaultPageSize,
		delay:    time.Second,
		sleep:    sleepCtx,
		now:      time.Now,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// FetchAll 从第 1 页开始抓取直至最后一页。
// 任何错误（传输/业务码/解码/取消）都会结束循环，并在结果中返回已累计的记录与失败原因。
func (f *Fetcher) FetchAll(ctx context.Context, roomID, ruid int64) (res model.FetchResult) {
	acc := NewAccumulator()
	defer func() {
		res.Records = acc.Records()
		// 兜底：未预期的 panic 同样视为提前结束，保留已有结果
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("page %d: unexpected: %v", res.Pages+1, p)
			logx.Errorf("抓取过程出错：%v", res.Err)
		}
	}()

	for page := 1; ; page++ {
		logx.Infof("正在获取第 %d 页...", page)
		resp, err := f.api.TopList(ctx, roomID, ruid, page, f.pageSize)
		if err != nil {
			res.Err = fmt.Errorf("page %d: %w", page, err)
			logx.Warnf("获取第 %d 页失败：%v", page, err)
			return res
		}
		res.Pages++

		// 第 1 页的 top3 单独返回，先处理以便在去重时优先保留
		entries := resp.Data.List
		if page == 1 && len(resp.Data.Top3) > 0 {
			entries = make([]bili.Entry, 0, len(resp.Data.Top3)+len(resp.Data.List))
			entries = append(entries, resp.Data.Top3...)
			entries = append(entries, resp.Data.List...)
		}
		date := f.now().Format(model.DateLayout)
		for _, e := range entries {
			rec, ok := e.Record(date)
			if !ok {
				logx.Debugf("第 %d 页跳过缺少 uid 的条目：%q", page, e.Username)
				continue
			}
			acc.Add(rec)
		}
		logx.Infof("第 %d 页获取到 %d 条记录，去重后累计 %d 条", page, len(entries), acc.Len())

		if len(entries) == 0 || !hasMore(page, resp) {
			return res
		}
		if err := f.sleep(ctx, f.delay); err != nil {
			res.Err = fmt.Errorf("wait before page %d: %w", page+1, err)
			return res
		}
	}
}

// hasMore 判断是否还有下一页：info.page 为总页数，
// 当前页取请求页与 info.now 中较大者。
func hasMore(requested int, resp *bili.TopListResponse) bool {
	current := requested
	if resp.Data.Info.Now > current {
		current = resp.Data.Info.Now
	}
	return current < resp.Data.Info.Page
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
