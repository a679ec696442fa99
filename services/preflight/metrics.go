// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package preflight

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for preflight operations.
var (
	tracer = otel.Tracer("aleutian.preflight")
	meter  = otel.Meter("aleutian.preflight")
)

// Metrics for preflight operations.
var (
	checkLatency  metric.Float64Histogram
	filesChecked  metric.Int64Counter
	findingsFound metric.Int64Histogram
	errorsFound   metric.Int64Counter
	warningsFound metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		checkLatency, err = meter.Float64Histogram(
			"preflight_duration_seconds",
			metric.WithDescription("Duration of per-file preflight checks"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		filesChecked, err = meter.Int64Counter(
			"preflight_files_total",
			metric.WithDescription("Total number of files checked"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		findingsFound, err = meter.Int64Histogram(
			"preflight_findings_found",
			metric.WithDescription("Number of findings per checked file"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		errorsFound, err = meter.Int64Counter(
			"preflight_errors_found_total",
			metric.WithDescription("Total number of error findings"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		warningsFound, err = meter.Int64Counter(
			"preflight_warnings_found_total",
			metric.WithDescription("Total number of warning findings"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startFileSpan creates a span for one file's check.
func startFileSpan(ctx context.Context, filePath string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Runner.checkFile",
		trace.WithAttributes(
			attribute.String("preflight.file_path", filePath),
		),
	)
}

// setFileSpanResult sets the result attributes on a file span.
func setFileSpanResult(span trace.Span, findingCount, errorCount int) {
	span.SetAttributes(
		attribute.Int("preflight.finding_count", findingCount),
		attribute.Int("preflight.error_count", errorCount),
	)
}

// recordFileMetrics records metrics for one file's check.
func recordFileMetrics(ctx context.Context, duration time.Duration, findingCount, errorCount, warningCount int) {
	if err := initMetrics(); err != nil {
		return
	}

	checkLatency.Record(ctx, duration.Seconds())
	filesChecked.Add(ctx, 1)
	findingsFound.Record(ctx, int64(findingCount))
	errorsFound.Add(ctx, int64(errorCount))
	warningsFound.Add(ctx, int64(warningCount))
}
