// 包 store 提供存储实现：
// - CSV：舰长记录的增量追加（按 uid 去重）
// - SQLite：可选的运行历史（每次运行一行摘要）
package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"bili-guard-list/internal/logx"
	"bili-guard-list/internal/model"
)

// Header 为 CSV 固定列顺序。
var Header = []string{
	"fetch_date", "uid", "username", "rank",
	"guard_level", "accompany", "face",
	"medal_name", "medal_level", "ruid",
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Row 将记录按 Header 顺序展开；接口未返回的字段（含勋章）写为空。
func Row(r model.GuardRecord) []string {
	medalName, medalLevel := "", ""
	if r.Medal != nil {
		medalName = r.Medal.Name
		medalLevel = optInt(r.Medal.Level)
	}
	ruid := ""
	if r.RUID != nil {
		ruid = strconv.FormatInt(*r.RUID, 10)
	}
	return []string{
		r.FetchDate,
		strconv.FormatInt(r.UID, 10),
		r.Username,
		optInt(r.Rank),
		optInt(r.GuardLevel),
		optInt(r.Accompany),
		r.Face,
		medalName,
		medalLevel,
		ruid,
	}
}

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

// ExistingUIDs 读取已有 CSV 的 uid 列。文件不存在时返回空集合。
func ExistingUIDs(path string) (map[int64]struct{}, error) {
	out := make(map[int64]struct{})
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(skipBOM(f))
	header, err := r.Read()
	if err == io.EOF {
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("read header %s: %w", path, err)
	}
	col := -1
	for i, h := range header {
		if h == "uid" {
			col = i
			break
		}
	}
	if col < 0 {
		return out, nil
	}
	// 列数不一致的行（例如中途崩溃留下的残行）不视为整体读取失败
	r.FieldsPerRecord = -1
	r.ReuseRecord = true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return make(map[int64]struct{}), fmt.Errorf("read %s: %w", path, err)
		}
		if len(rec) <= col || rec[col] == "" {
			continue
		}
		uid, err := strconv.ParseInt(rec[col], 10, 64)
		if err != nil {
			line, _ := r.FieldPos(col)
			return make(map[int64]struct{}), fmt.Errorf("%s line %d: bad uid %q: %w", path, line, rec[col], err)
		}
		out[uid] = struct{}{}
	}
	return out, nil
}

// MergeAndAppend 过滤掉文件中已有 uid 的记录后追加写入，
// 文件不存在或为空时先写表头。返回是否写入了至少一行。
// 读取已有文件失败只记日志并按空集合处理。
func MergeAndAppend(records []model.GuardRecord, path string) (bool, error) {
	if len(records) == 0 {
		logx.Infof("没有获取到新数据，跳过保存")
		return false, nil
	}
	existing, err := ExistingUIDs(path)
	if err != nil {
		logx.Warnf("读取现有文件出错：%v", err)
		existing = map[int64]struct{}{}
	} else if len(existing) > 0 {
		logx.Infof("已从现有文件读取 %d 条已有记录", len(existing))
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		if _, ok := existing[r.UID]; ok {
			continue
		}
		rows = append(rows, Row(r))
	}
	if len(rows) == 0 {
		logx.Infof("没有新的唯一记录需要添加")
		return false, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if fi.Size() == 0 {
		if err := w.Write(Header); err != nil {
			f.Close()
			return false, fmt.Errorf("write header %s: %w", path, err)
		}
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return false, fmt.Errorf("write rows %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("close %s: %w", path, err)
	}
	logx.Infof("成功保存 %d 条新记录到 %s", len(rows), path)
	return true, nil
}

// CountRows 返回 CSV 中的数据行数（不含表头）；文件不存在时为 0。
func CountRows(path string) (int, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	r := csv.NewReader(skipBOM(f))
	r.FieldsPerRecord = -1
	r.ReuseRecord = true
	n := 0
	for {
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", path, err)
		}
		n++
	}
	if n > 0 {
		n-- // 表头
	}
	return n, nil
}

// skipBOM 去掉部分表格软件保存时加上的 UTF-8 BOM。
func skipBOM(r io.Reader) io.Reader {
	head := make([]byte, len(utf8BOM))
	n, _ := io.ReadFull(r, head)
	if n == len(utf8BOM) && bytes.Equal(head, utf8BOM) {
		return r
	}
	return io.MultiReader(bytes.NewReader(head[:n]), r)
}
