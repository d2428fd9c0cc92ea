/**
 * Risk Report Tests.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package report

import (
	"reflect"
	"testing"

	"github.com/netsentry/netsentry/internal/models"
)

func TestBuildMixesAnomaliesAndUnknownProtocol(t *testing.T) {
	findings := []models.Finding{
		{DangerousProtocol: models.BoolPtr(true), Protocol: models.StringPtr("ftp"), SrcIP: models.StringPtr("2.2.2.2")},
		{DangerousProtocol: models.BoolPtr(true), SrcIP: models.StringPtr("3.3.3.3")},
		{DangerousProtocol: models.BoolPtr(false), SrcIP: models.StringPtr("1.1.1.1")},
		{TrafficAnomaly: models.BoolPtr(true), SrcIP: models.StringPtr("4.4.4.4")},
	}

	r := Build(findings)
	if r.RiskScore != 3 {
		t.Fatalf("expected risk_score=3, got %d", r.RiskScore)
	}

	var protocols, traffic []string
	for _, c := range r.Categories {
		switch c.Name {
		case "protocols":
			protocols = c.Issues
			if c.Severity != "high" {
				t.Fatalf("expected protocols severity high, got %q", c.Severity)
			}
		case "traffic":
			traffic = c.Issues
			if c.Severity != "medium" {
				t.Fatalf("expected traffic severity medium, got %q", c.Severity)
			}
		}
	}
	if !reflect.DeepEqual(protocols, []string{"ftp", "unknown"}) {
		t.Fatalf("expected protocols issues [ftp unknown], got %v", protocols)
	}
	if !reflect.DeepEqual(traffic, []string{"4.4.4.4"}) {
		t.Fatalf("expected traffic issues [4.4.4.4], got %v", traffic)
	}
}

func TestBuildOmitsEmptyCategories(t *testing.T) {
	r := Build(nil)
	if r.RiskScore != 0 {
		t.Fatalf("expected risk_score=0 for no findings")
	}
	if len(r.Categories) != 0 {
		t.Fatalf("expected no categories, got %v", r.Categories)
	}
}

func TestBuildDangerousProtocolIsCaseInsensitiveLabel(t *testing.T) {
	findings := []models.Finding{
		{DangerousProtocol: models.BoolPtr(true), Protocol: models.StringPtr("TELNET"), SrcIP: models.StringPtr("1.1.1.1")},
	}
	r := Build(findings)
	if len(r.Categories) != 1 || r.Categories[0].Issues[0] != "telnet" {
		t.Fatalf("expected lowercase telnet issue, got %v", r.Categories)
	}
}
