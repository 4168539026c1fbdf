package model

// SaleParameters 售卖参数，整组写入、整组替换
// 所有金额字段与售卖代币数量同单位，时间为Unix秒
type SaleParameters struct {
	StartTime uint64 `json:"start_time"`
	EndTime   uint64 `json:"end_time"`
	SoftCap   uint64 `json:"soft_cap"`
	HardCap   uint64 `json:"hard_cap"`
	MinBuy    uint64 `json:"min_buy"`
	MaxBuy    uint64 `json:"max_buy"`
	TgeTime   uint64 `json:"tge_time"`
}

// SalePhase 售卖阶段
// 阶段不落库，每次调用根据参数、累计售出量和当前时间推导
type SalePhase string

const (
	SalePhaseUnconfigured SalePhase = "unconfigured" // 未配置
	SalePhaseConfigured   SalePhase = "configured"   // 已配置未开始
	SalePhaseActive       SalePhase = "active"       // 进行中
	SalePhaseSuccess      SalePhase = "success"      // 已结束且达到软顶
	SalePhaseFailed       SalePhase = "failed"       // 已结束未达软顶
)
