package transform

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/any-hub/img-edge/internal/cdnerr"
)

// DefaultMaxDimension 为未配置时允许的最大像素尺寸。
const DefaultMaxDimension = 8192

type queryParam struct {
	name  string
	value string
}

// Parse 以默认尺寸上限解析查询串，不做缓存。
func Parse(rawQuery string) (Spec, error) {
	return parse(rawQuery, DefaultMaxDimension)
}

func parse(rawQuery string, maxDimension int) (Spec, error) {
	params, err := splitQuery(rawQuery)
	if err != nil {
		return Spec{}, err
	}

	ops := make([]Operation, 0, len(params))
	seen := make(map[string]struct{}, len(params))
	resizeAt := -1
	var resize resizeBuilder

	for _, p := range params {
		if _, dup := seen[p.name]; dup {
			return Spec{}, badParam(p.name, p.value, "parameter given more than once")
		}
		seen[p.name] = struct{}{}

		owner, ok := globalRegistry.owner(p.name)
		if !ok {
			return Spec{}, cdnerr.With(cdnerr.BadRequest("unknown transform parameter %q", p.name), "param", p.name)
		}

		switch owner {
		case opResize:
			if resizeAt < 0 {
				resizeAt = len(ops)
				ops = append(ops, nil)
			}
			if err := resize.set(p.name, strings.ToLower(p.value), maxDimension); err != nil {
				return Spec{}, err
			}
		case opCrop:
			op, err := parseCrop(strings.ToLower(p.value), maxDimension)
			if err != nil {
				return Spec{}, err
			}
			ops = append(ops, op)
		case opPad:
			op, err := parsePad(p.value, maxDimension)
			if err != nil {
				return Spec{}, err
			}
			ops = append(ops, op)
		case opEffect:
			op, err := parseEffect(p.value)
			if err != nil {
				return Spec{}, err
			}
			ops = append(ops, op)
		case opQuality:
			op, err := parseQuality(p.value)
			if err != nil {
				return Spec{}, err
			}
			ops = append(ops, op)
		default:
			return Spec{}, cdnerr.With(cdnerr.BadRequest("parameter %q has no parser", p.name), "param", p.name)
		}
	}

	if resizeAt >= 0 {
		op, err := resize.build()
		if err != nil {
			return Spec{}, err
		}
		ops[resizeAt] = op
	}
	return NewSpec(ops...).WithMaxDimension(maxDimension), nil
}

// splitQuery 按 & 切分并解码参数；名称转小写，名称与值两侧空白忽略，空段跳过。
func splitQuery(rawQuery string) ([]queryParam, error) {
	rawQuery = strings.TrimPrefix(rawQuery, "?")
	if strings.TrimSpace(rawQuery) == "" {
		return nil, nil
	}

	segments := strings.Split(rawQuery, "&")
	params := make([]queryParam, 0, len(segments))
	for _, segment := range segments {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		rawName, rawValue, _ := strings.Cut(segment, "=")
		name, err := url.QueryUnescape(rawName)
		if err != nil {
			return nil, cdnerr.With(cdnerr.BadRequest("malformed query parameter %q", segment), "param", segment)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, cdnerr.With(cdnerr.BadRequest("malformed query value in %q", segment), "param", segment)
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)
		if name == "" {
			return nil, cdnerr.With(cdnerr.BadRequest("query parameter %q has no name", segment), "param", segment)
		}
		if value == "" {
			return nil, badParam(name, value, "a value is required")
		}
		params = append(params, queryParam{name: name, value: value})
	}
	return params, nil
}

func parseDimension(name, value string, maxDimension int) (int, error) {
	return parseBounded(name, value, value, 1, maxDimension)
}

// parseBounded 解析十进制无符号整数（允许前导零）并检查 [lower, upper] 区间。
func parseBounded(name, raw, field string, lower, upper int) (int, error) {
	field = strings.TrimSpace(field)
	n, err := strconv.ParseUint(field, 10, 31)
	if err != nil {
		return 0, badParam(name, raw, fmt.Sprintf("%q is not a non-negative integer", field))
	}
	v := int(n)
	if v < lower || v > upper {
		return 0, badParam(name, raw, fmt.Sprintf("%d is outside %d-%d", v, lower, upper))
	}
	return v, nil
}

func badParam(name, value, reason string) error {
	err := cdnerr.BadRequest("invalid %s=%q: %s", name, value, reason)
	return cdnerr.With(err, "param", name)
}
