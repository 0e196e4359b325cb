package companies

import (
	"context"
	"sort"
	"strings"
)

// Directory is a read-only source of real employers
type Directory interface {
	ByRegionAndIndustry(ctx context.Context, region string, industry Industry) ([]Company, error)
	ByIndustry(ctx context.Context, industry Industry) ([]Company, error)
}

// MemoryDirectory is a Directory over a fixed company list
type MemoryDirectory struct {
	companies []Company
}

// NewMemoryDirectory returns a directory holding a copy of companies
func NewMemoryDirectory(companies []Company) *MemoryDirectory {
	cp := append([]Company(nil), companies...)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Name < cp[j].Name })
	return &MemoryDirectory{companies: cp}
}

// ByRegionAndIndustry returns companies of industry registered in region
func (d *MemoryDirectory) ByRegionAndIndustry(_ context.Context, region string, industry Industry) ([]Company, error) {
	var out []Company
	for _, c := range d.companies {
		if c.Industry == industry && strings.EqualFold(c.Canton, region) {
			out = append(out, c)
		}
	}
	return out, nil
}

// ByIndustry returns companies of industry in any region
func (d *MemoryDirectory) ByIndustry(_ context.Context, industry Industry) ([]Company, error) {
	var out []Company
	for _, c := range d.companies {
		if c.Industry == industry {
			out = append(out, c)
		}
	}
	return out, nil
}
