// 包 logx 是对标准库 slog 的薄封装：
// - 支持级别/格式/语言/颜色配置
// - 提供 pretty 中文输出（[调试]/[信息]/[警告]/[错误]），附加属性展平为 k=v
// - 通过 Debugf/Infof/Warnf/Errorf 暴露；抓取进度与汇总都经由这里输出到标准输出
package logx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// levelOff 高于任何实际级别，用于关闭输出。
const levelOff slog.Level = 100

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"":        slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
	"none":    levelOff,
	"silent":  levelOff,
	"off":     levelOff,
}

// Init 根据 level/format/locale/colorMode 初始化全局日志器，输出到标准输出。
func Init(level, format, locale, colorMode string) {
	InitWriter(os.Stdout, level, format, locale, colorMode)
}

// InitWriter 同 Init，但输出到指定 writer（测试或重定向时使用）。
// format 为 json/text 时使用 slog 自带 Handler，pretty 或留空时使用 PrettyHandler。
func InitWriter(w io.Writer, level, format, locale, colorMode string) {
	lv := parseLevel(level)
	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lv})
	case "pretty", "":
		handler = NewPrettyHandler(w, lv, locale, colorMode)
	default:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv})
	}
	slog.SetDefault(slog.New(handler))
}

// Discard 关闭全部日志输出。
func Discard() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// parseLevel 解析级别名，未知名称按 info 处理。
func parseLevel(s string) slog.Level {
	if lv, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return lv
	}
	return slog.LevelInfo
}

// With 返回携带固定属性（如 room/run）的 logger。
func With(args ...any) *slog.Logger { return slog.Default().With(args...) }

// 便捷函数：格式化并按级别输出
func Debugf(format string, v ...any) { slog.Debug(fmt.Sprintf(format, v...)) }
func Infof(format string, v ...any)  { slog.Info(fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...any)  { slog.Warn(fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...any) { slog.Error(fmt.Sprintf(format, v...)) }

// levelStyle 为某一级别在终端上的标签与颜色。
type levelStyle struct {
	zh, en string
	ansi   string
}

var styles = map[slog.Level]levelStyle{
	slog.LevelDebug: {"[调试]", "[DEBUG]", "90"},
	slog.LevelInfo:  {"[信息]", "[INFO]", "36"},
	slog.LevelWarn:  {"[警告]", "[WARN]", "33"},
	slog.LevelError: {"[错误]", "[ERROR]", "31"},
}

// PrettyHandler 面向终端的人读输出：时间 + 等级 + 消息 + k=v 属性。
// With 附加的属性在创建时预先渲染，避免每条日志重复格式化。
type PrettyHandler struct {
	w      io.Writer
	level  slog.Leveler
	zh     bool
	color  bool
	mu     *sync.Mutex
	prefix string // 预渲染的 " k=v k=v"
	group  string // 形如 "a.b."
}

// NewPrettyHandler 创建美化 Handler；locale 以 zh 开头（或留空）时输出中文标签。
func NewPrettyHandler(w io.Writer, lv slog.Leveler, locale string, colorMode string) slog.Handler {
	if w == nil {
		w = os.Stdout
	}
	if lv == nil {
		lv = slog.LevelInfo
	}
	return &PrettyHandler{
		w:     w,
		level: lv,
		zh:    locale == "" || strings.HasPrefix(strings.ToLower(locale), "zh"),
		color: shouldColor(w, colorMode),
		mu:    &sync.Mutex{},
	}
}

func (h *PrettyHandler) Enabled(_ context.Context, l slog.Level) bool {
	floor := h.level.Level()
	return floor < levelOff && l >= floor
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	buf.WriteString(ts.Format("2006-01-02 15:04:05"))
	buf.WriteByte(' ')
	buf.WriteString(h.label(r.Level))
	buf.WriteByte(' ')
	buf.WriteString(r.Message)
	buf.WriteString(h.prefix)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&buf, h.group, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var buf bytes.Buffer
	buf.WriteString(h.prefix)
	for _, a := range attrs {
		writeAttr(&buf, h.group, a)
	}
	cp := *h
	cp.prefix = buf.String()
	return &cp
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	cp := *h
	cp.group += name + "."
	return &cp
}

func (h *PrettyHandler) label(l slog.Level) string {
	st, ok := styles[l]
	if !ok {
		st = levelStyle{zh: fmt.Sprintf("[L%d]", l), ansi: "0"}
		st.en = st.zh
	}
	s := st.en
	if h.zh {
		s = st.zh
	}
	if h.color {
		return "\x1b[" + st.ansi + "m" + s + "\x1b[0m"
	}
	return s
}

// writeAttr 以 " group.key=value" 形式追加属性；嵌套分组递归展开，含空白的值加引号。
func writeAttr(buf *bytes.Buffer, group string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		sub := group
		if a.Key != "" {
			sub += a.Key + "."
		}
		for _, ga := range v.Group() {
			writeAttr(buf, sub, ga)
		}
		return
	}
	if a.Equal(slog.Attr{}) {
		return
	}
	buf.WriteByte(' ')
	buf.WriteString(group)
	buf.WriteString(a.Key)
	buf.WriteByte('=')
	s := v.String()
	if strings.ContainsAny(s, " \t\n\"=") {
		s = strconv.Quote(s)
	}
	buf.WriteString(s)
}

// shouldColor 判断是否启用颜色：NO_COLOR 优先，其次 always/never，auto 时仅在终端上启用。
func shouldColor(w io.Writer, mode string) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "always":
		return true
	case "auto", "":
		f, ok := w.(*os.File)
		if !ok {
			return false
		}
		fi, err := f.Stat()
		return err == nil && fi.Mode()&os.ModeCharDevice != 0
	default:
		return false
	}
}
