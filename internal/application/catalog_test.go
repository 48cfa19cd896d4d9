package application

import (
	"errors"
	"testing"

	"tplc/internal/domain"
)

func testRecords() []domain.DeviceRecord {
	return []domain.DeviceRecord{
		{DeviceID: "8001", Alias: "Lamp", Model: "HS103(US)", Provider: domain.ProviderKasa},
		{DeviceID: "8002", Alias: "lamp", Model: "HS105(US)", Provider: domain.ProviderKasa},
		{DeviceID: "8003", Alias: "Floor Lamp 2", Model: "KL430(US)", Provider: domain.ProviderKasa},
		{DeviceID: "8004", Alias: "Kitchen", Model: "HS110(US)", Provider: domain.ProviderTapo},
	}
}

func TestResolveQuery(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		wantID string
	}{
		{"exact alias", "Lamp", "8001"},
		{"exact alias, lowercase variant exists", "lamp", "8002"},
		{"device id", "8004", "8004"},
		{"case-insensitive alias", "LAMP", "8001"},
		{"unique substring", "amp 2", "8003"},
		{"unique substring different case", "kitch", "8004"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, err := resolveQuery(testRecords(), tt.query)
			if err != nil {
				t.Fatalf("resolveQuery(%q) error: %v", tt.query, err)
			}
			if dev.DeviceID != tt.wantID {
				t.Errorf("resolveQuery(%q): got %s, want %s", tt.query, dev.DeviceID, tt.wantID)
			}
		})
	}
}

func TestResolveQuery_PriorityOverSubstring(t *testing.T) {
	records := []domain.DeviceRecord{
		{DeviceID: "1", Alias: "Lamp"},
		{DeviceID: "2", Alias: "lamp2"},
	}

	// "lamp2" also matches case-insensitively and as a substring, but the
	// exact tier wins first.
	dev, err := resolveQuery(records, "Lamp")
	if err != nil || dev.DeviceID != "1" {
		t.Errorf("exact: got %s, %v", dev.DeviceID, err)
	}

	dev, err = resolveQuery(records, "lamp")
	if err != nil || dev.DeviceID != "1" {
		t.Errorf("case-insensitive: got %s, %v", dev.DeviceID, err)
	}

	if _, err := resolveQuery(records, "la"); domain.Kind(err) != domain.KindAmbiguousDevice {
		t.Errorf("ambiguous substring: got %v", err)
	}
	if _, err := resolveQuery(records, "zzz"); domain.Kind(err) != domain.KindDeviceNotFound {
		t.Errorf("no match: got %v", err)
	}
}

func TestResolveQuery_NotFound(t *testing.T) {
	_, err := resolveQuery(testRecords(), "thermostat")
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}
	if notFound.Query != "thermostat" {
		t.Errorf("query: got %s", notFound.Query)
	}
}

func TestResolveQuery_Ambiguous(t *testing.T) {
	_, err := resolveQuery(testRecords(), "amp")
	var ambiguous *domain.AmbiguousError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("expected AmbiguousError, got %T: %v", err, err)
	}

	want := []string{"Floor Lamp 2", "Lamp", "lamp"}
	if len(ambiguous.Matches) != len(want) {
		t.Fatalf("matches: got %v, want %v", ambiguous.Matches, want)
	}
	for i, m := range ambiguous.Matches {
		if m != want[i] {
			t.Errorf("matches: got %v, want %v", ambiguous.Matches, want)
			break
		}
	}
}

func TestDedupe(t *testing.T) {
	records := []domain.DeviceRecord{
		{DeviceID: "k1", Alias: "Lamp", Model: "HS103(US)", Provider: domain.ProviderKasa},
		{DeviceID: "t1", Alias: "Lamp", Model: "HS103(US)", Provider: domain.ProviderTapo},
		{DeviceID: "k2", Alias: "Strip", Model: "HS300(US)", Provider: domain.ProviderKasa},
		{DeviceID: "k2", Alias: "Strip", Model: "HS300(US)", Provider: domain.ProviderKasa, ChildID: "k2-00"},
	}

	out := dedupe(records)
	if len(out) != 3 {
		t.Fatalf("dedupe: got %d records, want 3", len(out))
	}
	if out[0].Provider != domain.ProviderKasa || out[0].DeviceID != "k1" {
		t.Errorf("first provider listed should win, got %+v", out[0])
	}
	if out[2].ChildID != "k2-00" {
		t.Errorf("child record should survive alongside its parent, got %+v", out[2])
	}
}
