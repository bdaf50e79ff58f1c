package guards

import "bili-guard-list/internal/model"

// IsGuard 在本次抓取结果中查找 uid，返回首个匹配的用户名/排名/舰长等级。
func IsGuard(uid int64, records []model.GuardRecord) model.CheckResult {
	for _, r := range records {
		if r.UID == uid {
			return model.CheckResult{
				IsGuard:    true,
				Username:   r.Username,
				Rank:       model.Deref(r.Rank),
				GuardLevel: model.Deref(r.GuardLevel),
			}
		}
	}
	return model.CheckResult{}
}
