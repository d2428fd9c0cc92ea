/**
 * Static-Scan Orchestrator Tests.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package staticscan

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunPreservesDispatchOrderWithFailureAndTimeout(t *testing.T) {
	probes := []Probe{
		{Name: "dns", Scan: func(ctx context.Context) (Result, error) {
			return Result{}, errors.New("boom")
		}},
		{Name: "os_banner", Scan: func(ctx context.Context) (Result, error) {
			<-ctx.Done()
			return Result{}, ctx.Err()
		}},
		{Name: "ports", Scan: func(ctx context.Context) (Result, error) {
			return Result{Score: 1}, nil
		}},
	}

	o := New(probes, 50*time.Millisecond)
	report := o.Run(context.Background())

	if len(report.Findings) != 3 {
		t.Fatalf("expected 3 findings, got %d", len(report.Findings))
	}
	if report.Findings[0].Category != "ports" {
		t.Fatalf("expected ports first, got %q", report.Findings[0].Category)
	}
	if report.Findings[1].Category != "os_banner" {
		t.Fatalf("expected os_banner second, got %q", report.Findings[1].Category)
	}
	if report.Findings[1].Details["error"] != "timeout" {
		t.Fatalf("expected os_banner to report a timeout, got %v", report.Findings[1].Details)
	}
	if report.Findings[2].Category != "dns" || report.Findings[2].Details["error"] != "boom" {
		t.Fatalf("expected dns error to surface, got %+v", report.Findings[2])
	}
	if report.RiskScore != 1 {
		t.Fatalf("expected risk_score=1, got %d", report.RiskScore)
	}
}

func TestRunFillsMissingFieldsOnSuccess(t *testing.T) {
	probes := []Probe{
		{Name: "upnp", Scan: func(ctx context.Context) (Result, error) {
			return Result{}, nil
		}},
	}
	o := New(probes, time.Second)
	report := o.Run(context.Background())

	if report.Findings[0].Category != "upnp" {
		t.Fatalf("expected category defaulted to probe name, got %q", report.Findings[0].Category)
	}
	if report.Findings[0].Details == nil {
		t.Fatalf("expected details defaulted to empty map, not nil")
	}
}

func TestRunRecoversFromPanic(t *testing.T) {
	probes := []Probe{
		{Name: "arp_spoof", Scan: func(ctx context.Context) (Result, error) {
			panic("unexpected")
		}},
	}
	o := New(probes, time.Second)
	report := o.Run(context.Background())

	if report.Findings[0].Details["error"] != "unexpected" {
		t.Fatalf("expected panic to surface as details.error, got %+v", report.Findings[0])
	}
}
