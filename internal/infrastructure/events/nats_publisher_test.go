package events

import (
	"context"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/artefactual/fixity/internal/ports"
)

func TestEncodeUsesWireNames(t *testing.T) {
	payload, err := Encode(ports.ScanEvent{
		AIP:            "3f1e6c1a-5a7b-4c4e-9c2f-0c1d2e3f4a5b",
		SessionID:      "0d0c7e34-7d5c-4a3e-9a43-2c1f0d9b8a70",
		ReportID:       7,
		Outcome:        "success",
		DeliveryStatus: "delivered",
		Started:        1514775600,
		Finished:       1514775610,
	})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	checks := map[string]string{
		"aip_uuid":        "3f1e6c1a-5a7b-4c4e-9c2f-0c1d2e3f4a5b",
		"session_uuid":    "0d0c7e34-7d5c-4a3e-9a43-2c1f0d9b8a70",
		"report_id":       "7",
		"outcome":         "success",
		"delivery_status": "delivered",
		"finished":        "1514775610",
	}
	for path, want := range checks {
		if got := gjson.GetBytes(payload, path).String(); got != want {
			t.Fatalf("%s = %q, want %q", path, got, want)
		}
	}
}

func TestNewNATSPublisherRequiresSubject(t *testing.T) {
	if _, err := NewNATSPublisher("nats://127.0.0.1:4222", " "); err == nil {
		t.Fatalf("NewNATSPublisher() expected error for empty subject")
	}
}

func TestNoopPublisher(t *testing.T) {
	if err := (NoopPublisher{}).PublishScan(context.Background(), ports.ScanEvent{}); err != nil {
		t.Fatalf("PublishScan() error = %v", err)
	}
}
