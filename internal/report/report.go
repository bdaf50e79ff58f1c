// 包 report 负责把一次运行的摘要输出到终端：人读文本或 JSON。
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"bili-guard-list/internal/model"
)

// Write 按 format 输出摘要；format 为 json 时输出带缩进的 JSON，其余为文本。
func Write(w io.Writer, s model.RunSummary, format string) error {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode summary: %w", err)
		}
		return nil
	}
	return writeText(w, s)
}

func writeText(w io.Writer, s model.RunSummary) error {
	var b strings.Builder
	b.WriteString(strings.Repeat("=", 50))
	b.WriteByte('\n')
	if s.Fetched == 0 {
		b.WriteString("未能获取到舰长数据\n")
	} else {
		fmt.Fprintf(&b, "总计获取到 %d 条唯一舰长记录（%d 页）\n", s.Fetched, s.Pages)
		if s.Check.IsGuard {
			fmt.Fprintf(&b, "\n✅ 用户 %d 是舰长！\n", s.TargetUID)
			fmt.Fprintf(&b, "   用户名: %s\n", s.Check.Username)
			fmt.Fprintf(&b, "   排名: %d\n", s.Check.Rank)
			fmt.Fprintf(&b, "   舰长等级: %s\n", GuardLevelName(s.Check.GuardLevel))
		} else {
			fmt.Fprintf(&b, "\n❌ 用户 %d 不是舰长\n", s.TargetUID)
		}
	}
	if s.Failure != "" {
		fmt.Fprintf(&b, "\n⚠️  抓取提前结束，结果不完整：%s\n", s.Failure)
	}
	if s.FileExists {
		fmt.Fprintf(&b, "\n📊 CSV文件总计记录: %d 条（%s）\n", s.FileRows, s.OutputFile)
	}
	if p := s.Previous; p != nil {
		fmt.Fprintf(&b, "🕘 上次运行: %s，获取 %d 条，文件 %d 条\n",
			p.StartedAt.Local().Format("2006-01-02 15:04:05"), p.Fetched, p.FileRows)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// GuardLevelName 将 guard_level 代码转为名称（1 总督 / 2 提督 / 3 舰长）。
func GuardLevelName(level int) string {
	switch level {
	case 1:
		return "1（总督）"
	case 2:
		return "2（提督）"
	case 3:
		return "3（舰长）"
	default:
		return fmt.Sprintf("%d", level)
	}
}
