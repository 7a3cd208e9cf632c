package contracts

import "context"

// Mapping is a durable raw value → positive integer code table for one feature
type Mapping map[string]int

// MaxCode returns the largest assigned code (0 when empty)
func (m Mapping) MaxCode() int {
	maxCode := 0
	for _, code := range m {
		if code > maxCode {
			maxCode = code
		}
	}
	return maxCode
}

// Clone returns an independent copy
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// MappingStore persists categorical code mappings per feature (S2)
// ⭐ SSOT: 코드 매핑 저장소 인터페이스
//
// Load returns ErrMappingNotFound when the feature has never been saved.
// Save replaces the full mapping.
type MappingStore interface {
	Load(ctx context.Context, feature string) (Mapping, error)
	Save(ctx context.Context, feature string, m Mapping) error
}

// Locker serialises writers of one key (single writer per feature)
// ⭐ SSOT: 매핑 저장소 잠금 인터페이스
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
