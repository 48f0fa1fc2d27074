package casatunes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexBool unmarshals the boolean-ish values the CasaTunes API emits.
// Power arrives as a JSON bool, Shared as a stringified boolean ("True"),
// and some firmware revisions use 0/1.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*b = false
		return nil
	}

	switch trimmed[0] {
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		*b = FlexBool(v)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1":
			*b = true
		case "false", "0", "":
			*b = false
		default:
			return fmt.Errorf("invalid boolean string %q", s)
		}
		return nil
	default:
		v, err := strconv.Atoi(string(trimmed))
		if err != nil {
			return fmt.Errorf("invalid boolean value %s", trimmed)
		}
		*b = v != 0
		return nil
	}
}

func (b FlexBool) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(b))
}

// GroupMember is one entry of a shared zone's member list.
type GroupMember struct {
	ZoneID string `json:"ZoneID"`
}

// Zone is the wire shape of a CasaTunes zone. The list endpoint guarantees
// Name and PersistentZoneID; single-zone responses additionally carry the
// power, volume, and group fields.
type Zone struct {
	Name             string        `json:"Name"`
	PersistentZoneID string        `json:"PersistentZoneID"`
	Power            FlexBool      `json:"Power"`
	Volume           int           `json:"Volume"`
	Shared           FlexBool      `json:"Shared"`
	ZoneGroupInfo    []GroupMember `json:"ZoneGroupInfo"`
}

// MatrixEntry describes one matrix amplifier reported by the server.
type MatrixEntry struct {
	Title string `json:"Title"`
}

// SystemInfo is the wire shape of the server identity endpoint.
type SystemInfo struct {
	AppName          string        `json:"AppName"`
	CasaTunesVersion string        `json:"CasaTunesVersion"`
	MatrixInfo       []MatrixEntry `json:"MatrixInfo"`
}
