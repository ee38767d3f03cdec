package utils

import (
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// Lenient JSON parsing for classifier responses. The TOC and page-format
// proposals come back from an external model and routinely arrive with
// markdown fences, trailing commas, or unquoted keys. Callers validate the
// decoded content afterwards; this file only gets the bytes into a struct.

// RepairJSON attempts to fix common JSON errors in model output:
// missing quotes, single quotes, unclosed brackets, trailing commas,
// comments, and surrounding code fences.
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("json repair failed: %v", err)
	}
	return repaired, nil
}

// SmartParse tries multiple parsing strategies to decode input into target.
// Order of attempts:
// 1. Standard JSON parse
// 2. JSON repair
// 3. Hjson parse (most lenient)
func SmartParse(input string, target interface{}) error {
	if err := json.Unmarshal([]byte(input), target); err == nil {
		return nil
	}

	if repaired, err := RepairJSON(input); err == nil {
		if err := json.Unmarshal([]byte(repaired), target); err == nil {
			return nil
		}
	}

	if err := hjson.Unmarshal([]byte(input), target); err == nil {
		return nil
	}

	return fmt.Errorf("smart parse failed: no strategy decoded the input")
}
