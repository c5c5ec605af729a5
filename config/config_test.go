package config

import (
	"strings"
	"testing"
	"time"
)

func TestParseOverridesDefaults(t *testing.T) {
	src := strings.NewReader("bind 127.0.0.1\nport 7000\n# a comment\n\ndbfilename snapshot.json\n")
	props := parse(src)

	if props.Bind != "127.0.0.1" {
		t.Fatalf("expected bind override, got %q", props.Bind)
	}
	if props.Port != 7000 {
		t.Fatalf("expected port 7000, got %d", props.Port)
	}
	if props.DBFilename != "snapshot.json" {
		t.Fatalf("expected snapshot.json, got %q", props.DBFilename)
	}
	// unspecified field keeps its compiled-in default
	if props.Dir != Properties.Dir {
		t.Fatalf("expected dir to keep its default %q, got %q", Properties.Dir, props.Dir)
	}
}

func TestParseIgnoresCommentsAndBlankLines(t *testing.T) {
	src := strings.NewReader("# comment line\n\nport 1234\n")
	props := parse(src)
	if props.Port != 1234 {
		t.Fatalf("expected port 1234, got %d", props.Port)
	}
}

func TestParseBoolField(t *testing.T) {
	src := strings.NewReader("alwaysshowlog yes\n")
	props := parse(src)
	if !props.AlwaysShowLog {
		t.Fatal("expected alwaysshowlog to be true")
	}
}

func TestDumpPath(t *testing.T) {
	p := &ServerProperties{Dir: ".", DBFilename: "dump.json"}
	if p.DumpPath() != "dump.json" {
		t.Fatalf("expected bare filename for dir='.', got %q", p.DumpPath())
	}
	p.Dir = "/var/lib/redis/"
	if p.DumpPath() != "/var/lib/redis/dump.json" {
		t.Fatalf("expected joined path, got %q", p.DumpPath())
	}
}

func TestSavePoints(t *testing.T) {
	p := &ServerProperties{SavePointsRaw: "900 1 300 10"}
	points := p.SavePoints()
	if len(points) != 2 {
		t.Fatalf("expected 2 save points, got %d", len(points))
	}
	if points[0].Delay != 900*time.Second || points[0].Threshold != 1 {
		t.Fatalf("unexpected first save point: %+v", points[0])
	}
	if points[1].Delay != 300*time.Second || points[1].Threshold != 10 {
		t.Fatalf("unexpected second save point: %+v", points[1])
	}
}

func TestSavePointsSkipsMalformedPairs(t *testing.T) {
	p := &ServerProperties{SavePointsRaw: "900 notanumber 300 10"}
	points := p.SavePoints()
	if len(points) != 1 {
		t.Fatalf("expected the malformed pair to be skipped, got %d points", len(points))
	}
	if points[0].Threshold != 10 {
		t.Fatalf("expected the surviving pair to be 300/10, got %+v", points[0])
	}
}
