package config

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

var durationType = reflect.TypeOf(time.Duration(0))

// millisDurationHook decodes bare numbers into durations as milliseconds,
// so "5000" and 5000 both mean five seconds. Strings with a unit fall
// through to mapstructure.StringToTimeDurationHookFunc.
func millisDurationHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != durationType || from == durationType {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			s := strings.TrimSpace(v)
			ms, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return data, nil
			}
			return time.Duration(ms) * time.Millisecond, nil
		case int:
			return time.Duration(v) * time.Millisecond, nil
		case int64:
			return time.Duration(v) * time.Millisecond, nil
		case uint64:
			return time.Duration(v) * time.Millisecond, nil
		case float64:
			return time.Duration(v * float64(time.Millisecond)), nil
		}
		return data, nil
	}
}
