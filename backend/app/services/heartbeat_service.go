package services

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"fleetpulse/backend/app/apperr"
	"fleetpulse/backend/app/metrics"
	"fleetpulse/backend/global"

	"gorm.io/datatypes"
)

const (
	MaxDeviceIDLen = 191
	MaxVersionLen  = 64
)

// HeartbeatService is the single place heartbeat payloads are checked before
// they reach the registry.
type HeartbeatService struct {
	devices *DeviceService
}

func NewHeartbeatService(devices *DeviceService) *HeartbeatService {
	return &HeartbeatService{devices: devices}
}

// Ingest parses a raw heartbeat body and records it.
func (s *HeartbeatService) Ingest(ctx context.Context, raw []byte) (DeviceView, error) {
	report, err := s.Parse(raw)
	if err != nil {
		return DeviceView{}, err
	}
	return s.Record(ctx, report)
}

// Parse validates a heartbeat body without touching the registry. Rejections
// are counted.
func (s *HeartbeatService) Parse(raw []byte) (HeartbeatReport, error) {
	report, err := ParseHeartbeat(raw)
	if err != nil {
		metrics.HeartbeatsRejected.Inc()
	}
	return report, err
}

func (s *HeartbeatService) Record(ctx context.Context, report HeartbeatReport) (DeviceView, error) {
	view, err := s.devices.RecordHeartbeat(ctx, report)
	if err != nil {
		global.Logger.Error().Err(err).Str("device_id", report.DeviceID).Msg("record heartbeat")
		return DeviceView{}, err
	}
	metrics.HeartbeatsTotal.Inc()
	global.Logger.Debug().Str("device_id", report.DeviceID).Str("version", report.Version).Msg("heartbeat recorded")
	return view, nil
}

// ParseHeartbeat accepts two shapes:
//
//	{"deviceId": "...", "version": "...", "hostname": "...", "metrics": {...}}
//	{"device_id": "...", "agent_version": "...", "cpu": ..., ...}
//
// In the flat form every field other than device_id and agent_version is
// treated as a metric.
func ParseHeartbeat(raw []byte) (HeartbeatReport, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return HeartbeatReport{}, apperr.Validation("body must be a JSON object")
	}
	if _, ok := fields["deviceId"]; !ok {
		if _, legacy := fields["device_id"]; legacy {
			return parseFlat(fields)
		}
	}

	var r HeartbeatReport
	var err error
	if r.DeviceID, err = stringField(fields, "deviceId"); err != nil {
		return HeartbeatReport{}, err
	}
	if r.Version, err = stringField(fields, "version"); err != nil {
		return HeartbeatReport{}, err
	}
	if r.Hostname, err = stringField(fields, "hostname"); err != nil {
		return HeartbeatReport{}, err
	}
	if r.Metrics, err = metricsObject(fields["metrics"]); err != nil {
		return HeartbeatReport{}, err
	}
	return r, checkReport(r)
}

func parseFlat(fields map[string]json.RawMessage) (HeartbeatReport, error) {
	var r HeartbeatReport
	var err error
	if r.DeviceID, err = stringField(fields, "device_id"); err != nil {
		return HeartbeatReport{}, err
	}
	if r.Version, err = stringField(fields, "agent_version"); err != nil {
		return HeartbeatReport{}, err
	}
	if r.Hostname, err = stringField(fields, "hostname"); err != nil {
		return HeartbeatReport{}, err
	}
	rest := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		if k != "device_id" && k != "agent_version" {
			rest[k] = v
		}
	}
	b, err := json.Marshal(rest)
	if err != nil {
		return HeartbeatReport{}, apperr.Validation("metrics are not encodable")
	}
	r.Metrics = datatypes.JSON(b)
	return r, checkReport(r)
}

func checkReport(r HeartbeatReport) error {
	if strings.TrimSpace(r.DeviceID) == "" {
		return apperr.Validation("deviceId is required")
	}
	if utf8.RuneCountInString(r.DeviceID) > MaxDeviceIDLen {
		return apperr.Validation("deviceId longer than %d characters", MaxDeviceIDLen)
	}
	if utf8.RuneCountInString(r.Version) > MaxVersionLen {
		return apperr.Validation("version longer than %d characters", MaxVersionLen)
	}
	return nil
}

// stringField returns "" for an absent or null field.
func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", apperr.Validation("%s must be a string", name)
	}
	return s, nil
}

// metricsObject normalises an absent or null metrics field to {} and rejects
// anything that is not an object.
func metricsObject(raw json.RawMessage) (datatypes.JSON, error) {
	if len(raw) == 0 || isNull(raw) {
		return datatypes.JSON("{}"), nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, apperr.Validation("metrics must be a JSON object")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, apperr.Validation("metrics must be a JSON object")
	}
	return datatypes.JSON(buf.Bytes()), nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
