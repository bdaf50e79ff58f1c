// 包 model 定义舰长名单的数据模型（记录/抓取结果/检查结果/运行摘要）。
package model

import "time"

// DateLayout 为 fetch_date 列使用的日期格式。
const DateLayout = "2006-01-02"

// Medal 为粉丝勋章（API 中嵌套在 medal_info 下）。
type Medal struct {
	Name  string `json:"medal_name"`
	Level *int   `json:"medal_level,omitempty"`
}

// GuardRecord 表示一条舰长记录，UID 在单次抓取与 CSV 文件内唯一。
// 数值字段为指针：接口未返回时为 nil，写入 CSV 时留空而不是 0。
type GuardRecord struct {
	FetchDate  string `json:"fetch_date"`
	UID        int64  `json:"uid"`
	Username   string `json:"username"`
	Rank       *int   `json:"rank,omitempty"`
	GuardLevel *int   `json:"guard_level,omitempty"`
	Accompany  *int   `json:"accompany,omitempty"`
	Face       string `json:"face"`
	Medal      *Medal `json:"medal_info,omitempty"`
	RUID       *int64 `json:"ruid,omitempty"`
}

// Ptr 返回 v 的指针，便于构造可选字段。
func Ptr[T any](v T) *T { return &v }

// Deref 取指针的值，nil 时返回零值。
func Deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// FetchResult 为一次翻页抓取的结果：已累计的记录与可选的失败原因。
// Err 为 nil 表示正常翻完；否则 Records 为失败前的部分结果。
type FetchResult struct {
	Records []GuardRecord
	Pages   int
	Err     error
}

// Partial 报告抓取是否提前中止。
func (r FetchResult) Partial() bool { return r.Err != nil }

// CheckResult 为成员检查结果；IsGuard 为 false 时其余字段为零值。
type CheckResult struct {
	IsGuard    bool   `json:"is_guard"`
	Username   string `json:"username,omitempty"`
	Rank       int    `json:"rank,omitempty"`
	GuardLevel int    `json:"guard_level,omitempty"`
}

// RunSummary 汇总一次运行：抓取、检查、落盘。
type RunSummary struct {
	RunID      string      `json:"run_id"`
	RoomID     int64       `json:"room_id"`
	RUID       int64       `json:"ruid"`
	TargetUID  int64       `json:"target_uid"`
	Pages      int         `json:"pages"`
	Fetched    int         `json:"fetched"`
	Check      CheckResult `json:"check"`
	Written    bool        `json:"written"`
	FileExists bool        `json:"file_exists"`
	FileRows   int         `json:"file_rows"`
	OutputFile string      `json:"output_file"`
	Failure    string      `json:"failure,omitempty"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	// Previous 为同一房间上一次运行的摘要，仅在启用运行历史时填充
	Previous   *RunSummary `json:"previous,omitempty"`
}
