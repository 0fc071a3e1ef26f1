package transform

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Parser 带尺寸上限与解析结果缓存；解析是纯函数，按原始查询串缓存成功结果。
type Parser struct {
	maxDimension int
	memo         *lru.Cache[string, Spec]
}

// NewParser 创建解析器；cacheSize<=0 时关闭缓存，maxDimension<=0 时使用默认上限。
func NewParser(maxDimension, cacheSize int) (*Parser, error) {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	p := &Parser{maxDimension: maxDimension}
	if cacheSize > 0 {
		memo, err := lru.New[string, Spec](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create spec cache: %w", err)
		}
		p.memo = memo
	}
	return p, nil
}

// Parse 解析查询串；失败结果不缓存。
func (p *Parser) Parse(rawQuery string) (Spec, error) {
	if p.memo != nil {
		if spec, ok := p.memo.Get(rawQuery); ok {
			return spec, nil
		}
	}
	spec, err := parse(rawQuery, p.maxDimension)
	if err != nil {
		return Spec{}, err
	}
	if p.memo != nil {
		p.memo.Add(rawQuery, spec)
	}
	return spec, nil
}

// MaxDimension 返回生效的尺寸上限。
func (p *Parser) MaxDimension() int {
	return p.maxDimension
}

// Cached 返回当前缓存条目数，供诊断使用。
func (p *Parser) Cached() int {
	if p.memo == nil {
		return 0
	}
	return p.memo.Len()
}
