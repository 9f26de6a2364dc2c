package store

import (
	"errors"
	"fmt"
)

// Kind identifies an entity category. Each kind has its own table and its
// own event-name prefix.
type Kind string

const (
	KindSensor    Kind = "sensor"
	KindEquipment Kind = "equipment"
)

// Kinds lists every supported kind in table-creation order.
var Kinds = []Kind{KindSensor, KindEquipment}

// ErrUnknownKind is returned when a kind outside Kinds is requested.
var ErrUnknownKind = errors.New("UNKNOWN_KIND")

// ParseKind validates a raw kind string.
func ParseKind(raw string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == raw {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
}

// Table returns the SQL table name for the kind. Table names come from
// this fixed mapping only, never from caller input.
func (k Kind) Table() string {
	switch k {
	case KindSensor:
		return "sensor"
	case KindEquipment:
		return "equipment"
	default:
		return ""
	}
}

// EventName returns the broadcast event name for updates of this kind.
func (k Kind) EventName() string {
	return string(k) + "Updated"
}

// Reading is the latest value stored under a name.
type Reading struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
