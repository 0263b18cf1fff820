package mcp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rpcRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sasselerator_mcp_requests_total",
			Help: "Total number of JSON-RPC requests by method and outcome.",
		},
		[]string{"method", "status"},
	)
	toolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sasselerator_mcp_tool_calls_total",
			Help: "Total number of tool invocations by tool and outcome.",
		},
		[]string{"tool", "status"},
	)
)
