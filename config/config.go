// Package config implements the programmatic configuration surface
// spec.md §6 describes. Grounded on the teacher's config/config.go
// reflect-tag file reader, trimmed of cluster/AOF fields (cluster and
// AOF are explicit non-goals here) and extended with the dump
// file/save-point fields this core's snapshot manager needs.
package config

import (
	"bufio"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/NozeIO/redi-s/database"
	"github.com/NozeIO/redi-s/lib/logger"
)

// DefaultConfPath is the config file Setup falls back to when none is
// given explicitly.
const DefaultConfPath = "redis.conf"

// Properties holds the process-wide configuration, populated by Setup or
// left at its init-time defaults.
var Properties *ServerProperties

// ServerProperties is the programmatic configuration spec.md §6 names:
// host/port, the dump filename, save points, and logging. EventLoopGroup
// and Commands are left to whatever embeds this core (see
// interface/database.EventLoopGroup) rather than modeled as file fields.
type ServerProperties struct {
	Bind          string `cfg:"bind"`
	Port          int    `cfg:"port"`
	DBFilename    string `cfg:"dbfilename"`
	Dir           string `cfg:"dir"`
	SavePointsRaw string `cfg:"save"`
	LogDir        string `cfg:"logdir"`
	AlwaysShowLog bool   `cfg:"alwaysshowlog"`
}

func init() {
	Properties = &ServerProperties{
		Bind:          "0.0.0.0",
		Port:          6379,
		DBFilename:    "dump.json",
		Dir:           ".",
		SavePointsRaw: "900 1 300 10 60 10000",
		LogDir:        "logs",
	}
}

// DumpPath joins Dir and DBFilename into the snapshot manager's target
// path.
func (p *ServerProperties) DumpPath() string {
	if p.Dir == "" || p.Dir == "." {
		return p.DBFilename
	}
	return strings.TrimRight(p.Dir, "/") + "/" + p.DBFilename
}

// SavePoints parses SavePointsRaw — whitespace-separated
// "<seconds> <changes>" pairs, e.g. "900 1 300 10" — into the
// (delay, threshold) rules the database package consumes (spec.md §4.4).
// Malformed pairs are skipped with a logged warning rather than failing
// startup.
func (p *ServerProperties) SavePoints() []database.SavePoint {
	fields := strings.Fields(p.SavePointsRaw)
	points := make([]database.SavePoint, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		seconds, err := strconv.Atoi(fields[i])
		if err != nil {
			logger.Warn("skipping malformed save point seconds: " + fields[i])
			continue
		}
		threshold, err := strconv.Atoi(fields[i+1])
		if err != nil {
			logger.Warn("skipping malformed save point threshold: " + fields[i+1])
			continue
		}
		points = append(points, database.SavePoint{
			Delay:     time.Duration(seconds) * time.Second,
			Threshold: threshold,
		})
	}
	return points
}

func parse(src io.Reader) *ServerProperties {
	properties := &ServerProperties{}
	*properties = *Properties // start from the compiled-in defaults

	rawMap := make(map[string]string)
	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		pivot := strings.IndexAny(line, " ")
		if pivot > 0 && pivot < len(line)-1 {
			key := line[0:pivot]
			value := strings.Trim(line[pivot+1:], " ")
			rawMap[strings.ToLower(key)] = value
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Fatal(err)
	}

	t := reflect.TypeOf(properties)
	v := reflect.ValueOf(properties)
	n := t.Elem().NumField()
	for i := 0; i < n; i++ {
		field := t.Elem().Field(i)
		fieldVal := v.Elem().Field(i)
		key, ok := field.Tag.Lookup("cfg")
		if !ok {
			key = field.Name
		}
		value, ok := rawMap[strings.ToLower(key)]
		if !ok {
			continue
		}
		switch field.Type.Kind() {
		case reflect.String:
			fieldVal.SetString(value)
		case reflect.Int:
			intValue, err := strconv.ParseInt(value, 10, 64)
			if err == nil {
				fieldVal.SetInt(intValue)
			}
		case reflect.Bool:
			fieldVal.SetBool(toBool(value))
		}
	}
	return properties
}

// Setup reads configFilename, falling back to DefaultConfPath when empty
// and present, and stores the result in Properties. A missing
// DefaultConfPath is not an error: Properties keeps its compiled-in
// defaults. An explicitly named file that cannot be opened is fatal.
func Setup(configFilename string) {
	if configFilename == "" {
		if !fileExists(DefaultConfPath) {
			return
		}
		configFilename = DefaultConfPath
	}
	file, err := os.Open(configFilename)
	if err != nil {
		logger.Fatal(err)
		return
	}
	defer file.Close()
	Properties = parse(file)
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && !info.IsDir()
}

func toBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "yes", "t", "y":
		return true
	default:
		return false
	}
}
