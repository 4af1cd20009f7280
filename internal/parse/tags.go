package parse

import (
	"fmt"
	"regexp"
	"strings"

	"chargetracker-backend/internal/model"
)

var (
	spaceRe     = regexp.MustCompile(`[\s_\-]+`)
	typeNumRe   = regexp.MustCompile(`^type\s?([1-4])$`)
	ccsComboRe  = regexp.MustCompile(`^(?:ccs|combo|ccs combo)\s?([12])$`)
	waitRangeRe = regexp.MustCompile(`^(\d+)\s?(?:to\s)?(\d+)\s?(?:min|mins|minutes)?$`)
)

// normalize lowercases, trims, and collapses separators into single spaces.
func normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// ChargerType maps a free-form connector label ("Type 2", "CCS Combo 2",
// "chademo", "Tesla") onto a known connector standard.
func ChargerType(raw string) (model.ChargerType, error) {
	s := normalize(raw)
	if s == "" {
		return "", fmt.Errorf("empty charger type")
	}

	if m := typeNumRe.FindStringSubmatch(s); m != nil {
		switch m[1] {
		case "1":
			return model.ChargerType1, nil
		case "2":
			return model.ChargerType2, nil
		case "3":
			return model.ChargerType3, nil
		case "4":
			// IEC 62196 type 4 is the CHAdeMO connector.
			return model.ChargerCHAdeMO, nil
		}
	}
	if m := ccsComboRe.FindStringSubmatch(s); m != nil {
		if m[1] == "1" {
			return model.ChargerCCS1, nil
		}
		return model.ChargerCCS2, nil
	}

	switch strings.ReplaceAll(s, " ", "") {
	case "j1772":
		return model.ChargerType1, nil
	case "mennekes":
		return model.ChargerType2, nil
	case "chademo":
		return model.ChargerCHAdeMO, nil
	case "nacs", "tesla", "teslasupercharger", "j3400":
		return model.ChargerNACS, nil
	}
	return "", fmt.Errorf("unknown charger type: %q", raw)
}

// ChargerTypeOrUnknown is ChargerType for feed data, where an unrecognized
// label should not drop the dock.
func ChargerTypeOrUnknown(raw string) model.ChargerType {
	ct, err := ChargerType(raw)
	if err != nil {
		return model.ChargerUnknown
	}
	return ct
}

// WaitTime maps the wait-time choices offered by the review form ("No Wait",
// "Up to 10 min", "10-20 min", "20+ min") and their stored forms onto a bucket.
func WaitTime(raw string) (model.WaitTimeBucket, error) {
	s := normalize(raw)
	switch s {
	case "none", "no wait", "0":
		return model.WaitNone, nil
	case "up to 10", "up to 10 min", "up to 10 mins", "<10", "<= 10 min":
		return model.WaitUpTo10, nil
	case "20+", "20+ min", "20+ mins", "over 20", "over 20 min":
		return model.WaitOver20, nil
	}
	if m := waitRangeRe.FindStringSubmatch(s); m != nil && m[1] == "10" && m[2] == "20" {
		return model.Wait10To20, nil
	}
	return "", fmt.Errorf("unknown wait time: %q", raw)
}

// ChargeOutcome accepts the success/failure answers of the review form.
func ChargeOutcome(raw string) (model.ChargeOutcome, error) {
	switch normalize(raw) {
	case "success", "successful", "successful charge":
		return model.ChargeSucceeded, nil
	case "failure", "fail", "failed", "unable to charge":
		return model.ChargeFailed, nil
	}
	return "", fmt.Errorf("unknown charge outcome: %q", raw)
}

// DockStatus accepts the stored status values, including the legacy "In Use"
// spelling used by older station documents.
func DockStatus(raw string) (model.DockStatus, error) {
	switch strings.ReplaceAll(normalize(raw), " ", "") {
	case "available", "free", "idle":
		return model.DockAvailable, nil
	case "inuse", "occupied", "charging":
		return model.DockInUse, nil
	}
	return "", fmt.Errorf("unknown dock status: %q", raw)
}
