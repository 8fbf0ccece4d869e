package features

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// DefaultCapacity applies when a facility has no usable capacity.
const DefaultCapacity = 100

var firstDigits = regexp.MustCompile(`\d+`)

// ParseCapacity accepts numbers and free text such as "200 pax".
func ParseCapacity(value interface{}) int {
	switch v := value.(type) {
	case nil:
		return DefaultCapacity
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float32:
		return floatCapacity(float64(v))
	case float64:
		return floatCapacity(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return floatCapacity(f)
		}
		return capacityFromText(v.String())
	case string:
		return capacityFromText(v)
	case *string:
		if v == nil {
			return DefaultCapacity
		}
		return capacityFromText(*v)
	default:
		return capacityFromText(fmt.Sprint(v))
	}
}

func floatCapacity(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return DefaultCapacity
	}
	return int(f)
}

func capacityFromText(s string) int {
	match := firstDigits.FindString(s)
	if match == "" {
		return DefaultCapacity
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return DefaultCapacity
	}
	return n
}
