package filter

import (
	"fmt"
)

// MaxFilters is the number of stages a pipeline may hold; it is bounded by
// the width of the per-chunk skip mask.
const MaxFilters = 32

// Pipeline is an ordered list of filters.
type Pipeline struct {
	infos   []Info
	filters []Filter
}

// NewPipeline builds a pipeline from persisted stage descriptions.
func NewPipeline(infos []Info) (*Pipeline, error) {
	if len(infos) > MaxFilters {
		return nil, fmt.Errorf("pipeline has %d filters, at most %d allowed", len(infos), MaxFilters)
	}
	p := &Pipeline{
		infos:   infos,
		filters: make([]Filter, 0, len(infos)),
	}
	for _, info := range infos {
		f, err := New(info)
		if err != nil {
			return nil, err
		}
		p.filters = append(p.filters, f)
	}
	return p, nil
}

// Encode applies every stage in order and returns the stored bytes together
// with the mask of stages that were skipped. An optional stage is skipped
// when its output would not be smaller than its input.
func (p *Pipeline) Encode(input []byte) ([]byte, uint32, error) {
	data := input
	var mask uint32
	for i, f := range p.filters {
		out, err := f.Encode(data)
		if err != nil {
			return nil, 0, fmt.Errorf("filter %s encode: %w", p.infos[i].Name(), err)
		}
		if p.infos[i].Optional() && len(out) >= len(data) {
			mask |= 1 << uint(i)
			continue
		}
		data = out
	}
	return data, mask, nil
}

// Decode reverses Encode. Bit i of mask set means stage i was skipped.
func (p *Pipeline) Decode(input []byte, mask uint32) ([]byte, error) {
	data := input
	for i := len(p.filters) - 1; i >= 0; i-- {
		if mask&(1<<uint(i)) != 0 {
			continue
		}
		var err error
		data, err = p.filters[i].Decode(data)
		if err != nil {
			return nil, fmt.Errorf("filter %s decode: %w", p.infos[i].Name(), err)
		}
	}
	return data, nil
}
