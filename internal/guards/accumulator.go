package guards

import "bili-guard-list/internal/model"

// Accumulator 在内存中收集一次抓取的记录：按 uid 去重，先到者保留，保持加入顺序。
type Accumulator struct {
	seen    map[int64]struct{}
	records []model.GuardRecord
}

func NewAccumulator() *Accumulator {
	return &Accumulator{seen: make(map[int64]struct{})}
}

// Add 加入一条记录，uid 已存在时忽略并返回 false。
func (a *Accumulator) Add(r model.GuardRecord) bool {
	if _, ok := a.seen[r.UID]; ok {
		return false
	}
	a.seen[r.UID] = struct{}{}
	a.records = append(a.records, r)
	return true
}

func (a *Accumulator) Len() int { return len(a.records) }

// Records 返回按加入顺序排列的副本。
func (a *Accumulator) Records() []model.GuardRecord {
	out := make([]model.GuardRecord, len(a.records))
	copy(out, a.records)
	return out
}
