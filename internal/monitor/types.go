package monitor

import (
	"time"
)

// EventType 表示监控事件类型。
type EventType string

const (
	EventStepTransition EventType = "step_transition"
	EventFlowError      EventType = "flow_error"
	EventMarketSnapshot EventType = "market_snapshot"
)

// Event 封装通用监控事件。
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// StepTransitionPayload 记录步骤状态变更。
type StepTransitionPayload struct {
	StepID int    `json:"stepId"`
	Kind   string `json:"kind"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// FlowErrorPayload 记录步骤执行失败。
type FlowErrorPayload struct {
	StepID  int    `json:"stepId"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// MarketSnapshotPayload 记录一次行情采集的概要。
type MarketSnapshotPayload struct {
	MarketCount   int       `json:"marketCount"`
	StrategyCount int       `json:"strategyCount"`
	RetrievedAt   time.Time `json:"retrievedAt"`
}
