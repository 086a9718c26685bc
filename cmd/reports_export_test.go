package cmd

import (
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/artefactual/fixity/internal/ports"
)

func exportRecords() []ports.ReportRecord {
	return []ports.ReportRecord{
		{
			ID:             2,
			PackageUUID:    testAIPTwo,
			SessionID:      "s-1",
			Outcome:        "failure",
			DeliveryStatus: "delivered",
			Begun:          "2018-01-01T03:00:00Z",
			Ended:          "2018-01-01T03:00:05Z",
			Message:        "files changed",
			Report:         `{"success":false,"started":1514775600,"finished":1514775605}`,
		},
		{
			ID:             1,
			PackageUUID:    testAIPOne,
			SessionID:      "s-1",
			Outcome:        "success",
			DeliveryStatus: "not_attempted",
			Report:         `{"success":true}`,
		},
	}
}

func TestMarshalReportExportJSONL(t *testing.T) {
	payload, err := marshalReportExport(exportRecords(), "jsonl")
	if err != nil {
		t.Fatalf("marshalReportExport() error = %v", err)
	}
	got := strings.Split(strings.TrimRight(string(payload), "\n"), "\n")
	if len(got) != 2 {
		t.Fatalf("jsonl lines = %d, want 2", len(got))
	}
	if !strings.Contains(got[0], `"aip_uuid":"`+testAIPTwo+`"`) {
		t.Fatalf("first line = %s", got[0])
	}
}

func TestMarshalReportExportYAMLAndTOML(t *testing.T) {
	yamlPayload, err := marshalReportExport(exportRecords(), "yaml")
	if err != nil {
		t.Fatalf("marshal yaml error = %v", err)
	}
	var fromYAML reportExportDocument
	if err := yaml.Unmarshal(yamlPayload, &fromYAML); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}

	tomlPayload, err := marshalReportExport(exportRecords(), "toml")
	if err != nil {
		t.Fatalf("marshal toml error = %v", err)
	}
	var fromTOML reportExportDocument
	if err := toml.Unmarshal(tomlPayload, &fromTOML); err != nil {
		t.Fatalf("toml.Unmarshal() error = %v", err)
	}

	for name, doc := range map[string]reportExportDocument{"yaml": fromYAML, "toml": fromTOML} {
		if len(doc.Reports) != 2 {
			t.Fatalf("%s reports = %d, want 2", name, len(doc.Reports))
		}
		if doc.Reports[0].Message != "files changed" || doc.Reports[0].ID != 2 {
			t.Fatalf("%s first report = %+v", name, doc.Reports[0])
		}
		if doc.Reports[1].Report != `{"success":true}` {
			t.Fatalf("%s payload = %q", name, doc.Reports[1].Report)
		}
	}
}

func TestMarshalReportExportRejectsUnknownFormat(t *testing.T) {
	if _, err := marshalReportExport(nil, "xml"); err == nil {
		t.Fatalf("marshalReportExport(xml) expected error")
	}
}
