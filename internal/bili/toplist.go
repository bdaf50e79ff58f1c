// 包 bili 封装直播间舰长榜接口 xlive/app-room/v2/guardTab/topList。
package bili

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"bili-guard-list/internal/fetch"
	"bili-guard-list/internal/model"
)

// TopListPath 为舰长榜接口路径。
const TopListPath = "/xlive/app-room/v2/guardTab/topList"

// APIError 表示接口返回的业务错误（code != 0）。
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api code=%d message=%s", e.Code, e.Message)
}

// TopListResponse 为接口响应外层结构。
type TopListResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    TopListData `json:"data"`
}

type TopListData struct {
	Info struct {
		Num  int `json:"num"`
		Page int `json:"page"`
		Now  int `json:"now"`
	} `json:"info"`
	List []Entry `json:"list"`
	Top3 []Entry `json:"top3"`
}

// Entry 为接口中的一条舰长信息；各字段均可能缺失，用指针区分缺失与零值。
type Entry struct {
	UID        *int64 `json:"uid"`
	RUID       *int64 `json:"ruid"`
	Username   string `json:"username"`
	Rank       *int   `json:"rank"`
	GuardLevel *int   `json:"guard_level"`
	Accompany  *int   `json:"accompany"`
	Face       string `json:"face"`
	MedalInfo  *struct {
		MedalName  string `json:"medal_name"`
		MedalLevel *int   `json:"medal_level"`
	} `json:"medal_info"`
}

// Record 将条目转换为 GuardRecord；缺少 uid 时返回 false。
func (e Entry) Record(fetchDate string) (model.GuardRecord, bool) {
	if e.UID == nil {
		return model.GuardRecord{}, false
	}
	r := model.GuardRecord{
		FetchDate:  fetchDate,
		UID:        *e.UID,
		Username:   e.Username,
		Rank:       e.Rank,
		GuardLevel: e.GuardLevel,
		Accompany:  e.Accompany,
		Face:       e.Face,
		RUID:       e.RUID,
	}
	if e.MedalInfo != nil {
		r.Medal = &model.Medal{Name: e.MedalInfo.MedalName, Level: e.MedalInfo.MedalLevel}
	}
	return r, true
}

// Client 请求舰长榜分页。
type Client struct {
	http    *fetch.Client
	baseURL string
}

// NewClient 创建接口客户端；baseURL 形如 https://api.live.bilibili.com。
func NewClient(cl *fetch.Client, baseURL string) *Client {
	return &Client{http: cl, baseURL: strings.TrimRight(baseURL, "/")}
}

// TopList 请求单页舰长榜。code != 0 时返回 *APIError，响应体仍一并返回。
func (c *Client) TopList(ctx context.Context, roomID, ruid int64, page, pageSize int) (*TopListResponse, error) {
	var resp TopListResponse
	err := c.http.GetJSON(ctx, c.baseURL+TopListPath, map[string]string{
		"roomid":    strconv.FormatInt(roomID, 10),
		"page":      strconv.Itoa(page),
		"ruid":      strconv.FormatInt(ruid, 10),
		"page_size": strconv.Itoa(pageSize),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return &resp, &APIError{Code: resp.Code, Message: resp.Message}
	}
	return &resp, nil
}
