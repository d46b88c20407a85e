package dto

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// rawJSON converts a stored JSON column into a response payload, mapping
// empty columns to JSON null.
func rawJSON(value datatypes.JSON) json.RawMessage {
	if len(value) == 0 {
		return json.RawMessage("null")
	}

	return json.RawMessage(value)
}
