package eventservices

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type RequestSummary struct {
	TotalRequests      int
	SuccessfulRequests int
	FailedRequests     int
	SuccessRate        float64
	MeanLatency        time.Duration
	MedianLatency      time.Duration
	P95Latency         time.Duration
	TotalTime          time.Duration
}

// RequestMonitor records per-request outcomes and latencies for the
// gateway session.
type RequestMonitor struct {
	mu           sync.Mutex
	durationsSec []float64
	successes    int
	failures     int
	totalTime    time.Duration
}

func NewRequestMonitor() *RequestMonitor {
	return &RequestMonitor{}
}

func (m *RequestMonitor) RecordRequest(success bool, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.durationsSec = append(m.durationsSec, duration.Seconds())
	m.totalTime += duration

	if success {
		m.successes++
	} else {
		m.failures++
	}
}

func (m *RequestMonitor) Summary() RequestSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	summary := RequestSummary{
		TotalRequests:      m.successes + m.failures,
		SuccessfulRequests: m.successes,
		FailedRequests:     m.failures,
		TotalTime:          m.totalTime,
	}

	if summary.TotalRequests == 0 {
		return summary
	}

	summary.SuccessRate = float64(m.successes) / float64(summary.TotalRequests)

	mean, err := stats.Mean(m.durationsSec)
	if err == nil {
		summary.MeanLatency = secondsToDuration(mean)
	}

	median, err := stats.Median(m.durationsSec)
	if err == nil {
		summary.MedianLatency = secondsToDuration(median)
	}

	p95, err := stats.Percentile(m.durationsSec, 95)
	if err == nil {
		summary.P95Latency = secondsToDuration(p95)
	}

	return summary
}

func (m *RequestMonitor) RenderSummary(display io.Writer) {
	summary := m.Summary()

	p := message.NewPrinter(language.English)

	table := tablewriter.NewWriter(display)
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetHeader([]string{"Requests", "Success Rate", "Mean", "Median", "P95", "Total Time"})
	table.Append([]string{
		p.Sprintf("%d", summary.TotalRequests),
		fmt.Sprintf("%.1f%%", summary.SuccessRate*100),
		summary.MeanLatency.Round(time.Millisecond).String(),
		summary.MedianLatency.Round(time.Millisecond).String(),
		summary.P95Latency.Round(time.Millisecond).String(),
		summary.TotalTime.Round(time.Millisecond).String(),
	})
	table.Render()
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
