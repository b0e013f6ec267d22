package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

// decodeLines parses each emitted line as a JSON object.
func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var records []map[string]interface{}
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for sc.Scan() {
		var m map[string]interface{}
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line %q is not valid JSON: %v", sc.Text(), err)
		}
		records = append(records, m)
	}
	return records
}

func TestEmitterRecords(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf)

	e.Ready()
	e.Status("recording", "capturing system audio")
	e.Status("stopped", "")
	e.Error(CodePermissionDenied, "screen capture not authorized", "grant Screen Recording permission")
	e.Config(16000, 1)
	e.AudioFormat(48000, 2, 32, 8)
	e.FirstSample(640)
	e.Progress(1000, 640000)
	e.SilenceDetected(6 * time.Second)
	e.AudioResumed(7500 * time.Millisecond)
	e.ExtractionError("buffer size mismatch", 3)
	e.CaptureStats(3, 1920)

	records := decodeLines(t, &buf)
	if len(records) != 12 {
		t.Fatalf("got %d records, want 12", len(records))
	}

	wantTypes := []string{
		TypeReady, TypeStatus, TypeStatus, TypeError, TypeConfig,
		TypeAudioFormat, TypeFirstSample, TypeProgress, TypeSilenceDetected,
		TypeAudioResumed, TypeExtractionError, TypeCaptureStats,
	}
	for i, want := range wantTypes {
		if got := records[i]["type"]; got != want {
			t.Errorf("record %d type = %v, want %q", i, got, want)
		}
	}

	if got := records[1]["status"]; got != "recording" {
		t.Errorf(`status field = %v, want "recording"`, got)
	}
	if _, ok := records[2]["message"]; ok {
		t.Error("empty message should be omitted from status record")
	}
	if got := records[3]["code"]; got != CodePermissionDenied {
		t.Errorf("error code = %v, want %q", got, CodePermissionDenied)
	}
	if got := records[3]["help"]; got != "grant Screen Recording permission" {
		t.Errorf("error help = %v", got)
	}
	if got := records[4]["sample_rate"]; got != float64(16000) {
		t.Errorf("config sample_rate = %v, want 16000", got)
	}
	if got := records[4]["channels"]; got != float64(1) {
		t.Errorf("config channels = %v, want 1", got)
	}
	if got := records[6]["byte_size"]; got != float64(640) {
		t.Errorf("first_sample byte_size = %v, want 640", got)
	}
	if got := records[8]["duration_seconds"]; got != float64(6) {
		t.Errorf("silence duration_seconds = %v, want 6", got)
	}
	if got := records[9]["silence_duration_seconds"]; got != float64(7.5) {
		t.Errorf("silence_duration_seconds = %v, want 7.5", got)
	}
	if got := records[10]["count"]; got != float64(3) {
		t.Errorf("extraction_error count = %v, want 3", got)
	}
	if got := records[11]["total_bytes"]; got != float64(1920) {
		t.Errorf("capture_stats total_bytes = %v, want 1920", got)
	}
}

func TestEmitterOneLinePerRecord(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf)
	e.Ready()
	e.CaptureStats(0, 0)

	lines := bytes.Count(buf.Bytes(), []byte("\n"))
	if lines != 2 {
		t.Errorf("got %d newlines, want 2", lines)
	}
}
