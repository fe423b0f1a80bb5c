package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestSetupWriterRenamesKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWriter("streamledgerd", "test", &buf, slog.LevelDebug)
	logger.Info("ledger ready", slog.String("token", MaskValue("abc")))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	for _, key := range []string{"timestamp", "severity", "message", "service", "env"} {
		if _, ok := line[key]; !ok {
			t.Fatalf("missing %q in %v", key, line)
		}
	}
	if line["severity"] != "INFO" || line["message"] != "ledger ready" {
		t.Fatalf("unexpected line: %v", line)
	}
	if line["token"] != RedactedValue {
		t.Fatalf("expected masked token, got %v", line["token"])
	}
}

func TestMaskField(t *testing.T) {
	if attr := MaskField("caller", "strm1qqq"); attr.Value.String() != RedactedValue {
		t.Fatalf("caller should be masked, got %v", attr.Value)
	}
	if attr := MaskField("Operation", "tip"); attr.Value.String() != "tip" {
		t.Fatalf("allowlisted key was masked, got %v", attr.Value)
	}
	if attr := MaskField("caller", ""); attr.Value.String() != "" {
		t.Fatalf("empty values stay empty")
	}
}

func TestSetupWriterMasksSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWriter("streamledgerd", "", &buf, slog.LevelInfo)
	logger.Warn("auth: token rejected",
		slog.String("authorization", "Bearer abc"),
		slog.String("method", "settlement_tip"))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line["authorization"] != RedactedValue {
		t.Fatalf("authorization leaked: %v", line["authorization"])
	}
	if line["method"] != "settlement_tip" {
		t.Fatalf("unexpected method: %v", line["method"])
	}
}
