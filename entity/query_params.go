package entity

// QueryParams 定义通用的查询参数
type QueryParams struct {
	Page     int `form:"page"`      // 页码
	PageSize int `form:"page_size"` // 每页数量

	// 评估记录过滤指标
	Status    *int8    `form:"status"`     // 1:成功｜2:输入错误｜3:失败
	MinF1     *float64 `form:"min_f1"`     // f1_score 下限
	RequestID string   `form:"request_id"` // 请求ID
	FileName  string   `form:"file_name"`  // 文件名模糊匹配

	// 排序字段
	F1Sort string `form:"f1_sort"` // f1_score 排序: "asc" 或 "desc"
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 1000
)

// GetOffset 按页码计算偏移量，页码 <= 0 视为第 1 页
func (p QueryParams) GetOffset() int {
	page := p.Page
	if page <= 0 {
		page = 1
	}
	return (page - 1) * p.GetLimit()
}

// GetLimit 每页条数，默认 10，上限 1000
func (p QueryParams) GetLimit() int {
	switch {
	case p.PageSize <= 0:
		return DefaultPageSize
	case p.PageSize > MaxPageSize:
		return MaxPageSize
	}
	return p.PageSize
}

// PageResult 通用的分页返回结构
type PageResult struct {
	Total int64       `json:"total"` // 总条数
	List  interface{} `json:"list"`  // 数据列表
}
